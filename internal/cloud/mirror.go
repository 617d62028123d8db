/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cloud

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	applog "paintify/internal/log"
)

// Uploader stores a saved PNG remotely. *Store and *Client implement it.
type Uploader interface {
	UploadDrawing(ctx context.Context, userID, title, filePath string) (Drawing, error)
}

// Job is one pending upload.
type Job struct {
	UserID   string
	Title    string
	FilePath string
}

// Mirror uploads saved drawings in the background. It never blocks the
// caller: when the queue is full the job is dropped and logged.
type Mirror struct {
	up      Uploader
	lg      *slog.Logger
	timeout time.Duration

	q       chan Job
	pending atomic.Int64

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// OnResult is called after every attempt, if set. Used by tests.
	OnResult func(Job, Drawing, error)
}

// NewMirror starts a mirror with a queue of size jobs. timeout bounds each
// upload; zero means 15s.
func NewMirror(up Uploader, size int, timeout time.Duration) *Mirror {
	if size <= 0 {
		size = 32
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	m := &Mirror{
		up:      up,
		lg:      applog.WithComponent("cloud.mirror"),
		timeout: timeout,
		q:       make(chan Job, size),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go m.loop()
	return m
}

// Enqueue schedules job and reports whether it was accepted.
func (m *Mirror) Enqueue(job Job) bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.pending.Add(1)
	select {
	case m.q <- job:
		return true
	default:
		m.pending.Add(-1)
		m.lg.Warn("mirror queue full; dropping upload", slog.String("file", job.FilePath))
		return false
	}
}

// Pending is the number of queued or running uploads.
func (m *Mirror) Pending() int { return int(m.pending.Load()) }

// Flush waits until every accepted job has been attempted or ctx ends.
func (m *Mirror) Flush(ctx context.Context) error {
	for m.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stopped:
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// Close stops the worker after the upload in progress. Queued jobs that
// have not started are dropped.
func (m *Mirror) Close() {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.done)
		m.mu.Unlock()
		<-m.stopped
		if n := m.pending.Load(); n > 0 {
			m.lg.Warn("mirror closed with uploads pending", slog.Int64("dropped", n))
		}
	})
}

func (m *Mirror) loop() {
	defer close(m.stopped)
	for {
		select {
		case <-m.done:
			return
		case job := <-m.q:
			m.upload(job)
			m.pending.Add(-1)
		}
	}
}

func (m *Mirror) upload(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	d, err := m.up.UploadDrawing(ctx, job.UserID, job.Title, job.FilePath)
	if err != nil {
		m.lg.Error("mirror upload failed", slog.String("file", job.FilePath), slog.Any("err", err))
	} else {
		m.lg.Info("drawing mirrored", slog.String("id", d.ID), slog.String("title", job.Title))
	}
	if m.OnResult != nil {
		m.OnResult(job, d, err)
	}
}

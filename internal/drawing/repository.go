/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drawing ties the canvas to the library: it flattens strokes,
// writes the PNG, records the row and hands the file to the cloud mirror.
package drawing

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"os"

	"paintify/internal/cloud"
	"paintify/internal/compose"
	applog "paintify/internal/log"
	"paintify/internal/storage"
	"paintify/internal/stroke"
)

// ErrEmptyDrawing is returned when there are neither strokes nor a background.
var ErrEmptyDrawing = errors.New("drawing: nothing to save")

// Mirror receives saved files for background upload. *cloud.Mirror implements it.
type Mirror interface {
	Enqueue(job cloud.Job) bool
}

// SaveRequest describes one save.
type SaveRequest struct {
	Name       string
	Strokes    []stroke.Stroke
	Background image.Image // nil for a plain white canvas
	Width      int
	Height     int
}

// Repository saves and manages drawings in a library.
type Repository struct {
	lib    *storage.Library
	mirror Mirror
	userID string
	lg     *slog.Logger
}

// NewRepository wraps lib. mirror may be nil.
func NewRepository(lib *storage.Library, mirror Mirror, userID string) *Repository {
	return &Repository{lib: lib, mirror: mirror, userID: userID, lg: applog.WithComponent("drawing")}
}

// Save composites the request and stores it. The caller's stroke slice is
// only read.
func (r *Repository) Save(ctx context.Context, req SaveRequest) (storage.Drawing, error) {
	if len(req.Strokes) == 0 && req.Background == nil {
		return storage.Drawing{}, ErrEmptyDrawing
	}
	lg := r.lg.With(slog.String("name", req.Name))
	img, err := compose.Composite(req.Background, req.Strokes, req.Width, req.Height)
	if err != nil {
		lg.Warn("composite failed", slog.Int("w", req.Width), slog.Int("h", req.Height), slog.Any("err", err))
		return storage.Drawing{}, err
	}
	path, err := r.lib.SavePNG(img, req.Name)
	if err != nil {
		return storage.Drawing{}, err
	}
	d, err := r.lib.Insert(ctx, storage.Drawing{Name: req.Name, FilePath: path, WidthPx: req.Width, HeightPx: req.Height})
	if err != nil {
		lg.Error("record drawing failed", slog.String("path", path), slog.Any("err", err))
		if rmErr := os.Remove(path); rmErr != nil {
			lg.Warn("remove unrecorded file", slog.String("path", path), slog.Any("err", rmErr))
		}
		return storage.Drawing{}, err
	}
	lg.InfoContext(applog.WithDrawing(ctx, d.ID), "drawing saved",
		slog.String("path", path), slog.Int("strokes", len(req.Strokes)))
	if r.mirror != nil && !r.mirror.Enqueue(cloud.Job{UserID: r.userID, Title: d.Name, FilePath: path}) {
		lg.Warn("cloud mirror did not accept drawing", slog.Int64("id", d.ID))
	}
	return d, nil
}

// Rename sets a new name.
func (r *Repository) Rename(ctx context.Context, id int64, name string) (storage.Drawing, error) {
	return r.lib.Rename(ctx, id, name)
}

// Delete removes a drawing, and its file when deleteFile is set.
func (r *Repository) Delete(ctx context.Context, id int64, deleteFile bool) error {
	if err := r.lib.Delete(ctx, id, deleteFile); err != nil {
		return err
	}
	r.lg.Info("drawing deleted", slog.Int64("id", id), slog.Bool("file", deleteFile))
	return nil
}

// List returns every drawing, newest first.
func (r *Repository) List(ctx context.Context) ([]storage.Drawing, error) {
	return r.lib.List(ctx)
}

// Get returns one drawing.
func (r *Repository) Get(ctx context.Context, id int64) (storage.Drawing, error) {
	return r.lib.Get(ctx, id)
}

// Thumbnail returns a cached PNG preview.
func (r *Repository) Thumbnail(ctx context.Context, id int64, maxPx int) ([]byte, error) {
	return r.lib.Thumbnail(ctx, id, maxPx)
}

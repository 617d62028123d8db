/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log configures the process-wide slog logger for paintify.
//
// Records go to a console handler (one-line text or JSON) and, when a file
// is configured, to a rotating JSON file. Attributes attached to a context
// with ContextWith or WithDrawing are added to records logged through the
// *Context methods.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"paintify/internal/version"
)

// Options controls Init. FromEnv reads the same values from
// PAINTIFY_LOG_LEVEL, PAINTIFY_LOG_FORMAT, PAINTIFY_LOG_FILE and
// PAINTIFY_LOG_SOURCE.
type Options struct {
	Level     string // debug, info (default), warn, error
	Format    string // console (default) or json
	AddSource bool
	File      string // rotated JSON log, off when empty

	// Writer replaces stderr for the console handler.
	Writer io.Writer
}

var current atomic.Pointer[slog.Logger]

// L returns the application logger, initializing it from the environment
// on first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// Init replaces the application logger and slog's default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})
	} else {
		console = newConsoleHandler(out, lvl, opts.AddSource)
	}
	sinks := fanout{console}
	if f := strings.TrimSpace(opts.File); f != "" {
		w := &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		sinks = append(sinks, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	var h slog.Handler = sinks
	if len(sinks) == 1 {
		h = sinks[0]
	}
	l := slog.New(ctxAttrs{next: h}).With(
		slog.String("app", "paintify"),
		slog.String("ver", version.Version),
	)
	current.Store(l)
	slog.SetDefault(l)
}

// FromEnv builds Options from PAINTIFY_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     envOr("PAINTIFY_LOG_LEVEL", "info"),
		Format:    envOr("PAINTIFY_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(os.Getenv("PAINTIFY_LOG_SOURCE"), "true"),
		File:      os.Getenv("PAINTIFY_LOG_FILE"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseLevel accepts slog's level names plus "warning"; anything else is info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// WithComponent returns the application logger tagged with component=name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with op.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type ctxAttrsKey struct{}

// ContextWith returns ctx carrying attrs in addition to any it already carries.
func ContextWith(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	all := make([]slog.Attr, 0, len(prev)+len(attrs))
	all = append(append(all, prev...), attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, all)
}

// WithDrawing tags ctx with a library drawing id.
func WithDrawing(ctx context.Context, id int64) context.Context {
	return ContextWith(ctx, slog.Int64("drawing", id))
}

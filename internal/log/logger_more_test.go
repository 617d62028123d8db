/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromEnvAndParseLevel(t *testing.T) {
	t.Setenv("PAINTIFY_LOG_LEVEL", "warn")
	t.Setenv("PAINTIFY_LOG_FORMAT", "json")
	t.Setenv("PAINTIFY_LOG_SOURCE", "TRUE")
	t.Setenv("PAINTIFY_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := envOr("PAINTIFY_SURELY_UNSET", "fallback"); v != "fallback" {
		t.Fatalf("envOr fallback failed: %q", v)
	}

	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, " ERROR ": slog.LevelError, "warning": slog.LevelWarn,
		"": slog.LevelInfo, "loud": slog.LevelInfo,
	} {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, true)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	l := slog.New(h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp"))
	l.Error("boom", slog.Int("n", 42), slog.Float64("pi", 3.14), slog.Group("sz", slog.Int("w", 2)))

	out := buf.String()
	for _, want := range []string{" ERR boom", " k=v", " grp.n=42", " grp.pi=3.14", " grp.sz.w=2", " src="} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line: %q", out)
	}
}

func TestConsoleHandlerUsesRecordTime(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, nil, false)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := h.Handle(context.Background(), slog.NewRecord(at, slog.LevelInfo, "tick", 0)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "2025-03-01T12:00:00Z INF tick") {
		t.Fatalf("line = %q", buf.String())
	}
}

func TestFanoutRespectsEachLevel(t *testing.T) {
	var a, b bytes.Buffer
	verbose := newConsoleHandler(&a, slog.LevelDebug, false)
	quiet := newConsoleHandler(&b, slog.LevelError, false)
	l := slog.New(fanout{verbose, quiet}).With(slog.String("component", "raster"))

	l.Info("rendered", slog.Int("strokes", 3))
	l.Error("failed")

	if !strings.Contains(a.String(), "rendered") || !strings.Contains(a.String(), "failed") {
		t.Fatalf("debug handler missed records: %q", a.String())
	}
	if strings.Contains(b.String(), "rendered") {
		t.Fatalf("error handler printed an info record: %q", b.String())
	}
	if !strings.Contains(b.String(), "failed component=raster") {
		t.Fatalf("error handler output wrong: %q", b.String())
	}
	if !(fanout{quiet}).Enabled(context.Background(), slog.LevelError) || (fanout{quiet}).Enabled(context.Background(), slog.LevelWarn) {
		t.Fatalf("fanout Enabled should follow its handlers")
	}
}

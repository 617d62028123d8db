/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paintify/internal/capture"
	"paintify/internal/document"
	"paintify/internal/geom"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport("", "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	defer os.Remove(path)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Paintify Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "crashes")
	path, err := writeReport(dir, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected crash report under %s, got %s", dir, path)
	}
}

// muteStderr swallows Recover's console message for the test's duration.
func muteStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	done := make(chan struct{})
	go func() { _, _ = io.Copy(io.Discard, r); close(done) }()
	t.Cleanup(func() {
		_ = w.Close()
		<-done
		os.Stderr = old
	})
}

func TestRecoverAutosavesStrokes(t *testing.T) {
	muteStderr(t)
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	s := capture.NewSession()
	s.PointerDown(geom.Pt(1, 1))
	s.PointerMove(geom.Pt(9, 9))
	s.PointerUp()
	snap := func() document.Document { return document.New(32, 32, s.Strokes()) }

	dir := t.TempDir()
	func() {
		defer Recover(dir, snap)
		panic("boom")
	}()
	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}

	var report, saved string
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-"):
			report = filepath.Join(dir, f.Name())
		case strings.HasPrefix(f.Name(), "autosave-"):
			saved = filepath.Join(dir, f.Name())
		}
	}
	if report == "" || saved == "" {
		t.Fatalf("report=%q autosave=%q in %v", report, saved, files)
	}
	doc, err := document.Load(saved)
	if err != nil {
		t.Fatalf("load autosave: %v", err)
	}
	if len(doc.Strokes) != 1 || doc.Strokes[0].Len() != 2 {
		t.Fatalf("autosaved %+v", doc)
	}
}

func TestRecoverSurvivesBadSnapshot(t *testing.T) {
	muteStderr(t)
	oldExit := exitFn
	exitFn = func(int) {}
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	func() {
		defer Recover(dir, func() document.Document { panic("snapshot broke too") })
		panic("boom")
	}()
	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "autosave-") {
			t.Fatalf("unexpected autosave %s", f.Name())
		}
	}
	if len(files) != 1 {
		t.Fatalf("expected only the crash report, got %d files", len(files))
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()
	func() {
		defer Recover(t.TempDir(), nil)
	}()
	if called {
		t.Fatalf("exit called without a panic")
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paintify/internal/geom"
	"paintify/internal/paint"
	"paintify/internal/stroke"
)

func sample() Document {
	s := stroke.New(stroke.Rectangle, paint.Pen(paint.Red, 4), geom.Pt(1, 2)).WithPoint(geom.Pt(30, 40))
	e := stroke.FromPoints(stroke.Freehand, paint.Pen(paint.White, 20), []geom.Point{geom.Pt(0, 0), geom.Pt(5, 5)})
	return New(64, 48, []stroke.Stroke{s, e})
}

func TestSaveLoadKeepsStrokes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.json")
	doc := sample()
	doc.Background = "bg.png"
	if err := Save(path, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Width != 64 || got.Height != 48 || len(got.Strokes) != 2 {
		t.Fatalf("loaded %+v", got)
	}
	if got.Background != filepath.Join(dir, "nested", "bg.png") {
		t.Fatalf("background not resolved: %s", got.Background)
	}
	r := got.Strokes[0]
	if r.Kind() != stroke.Rectangle || r.Paint().Color != paint.Red || r.Len() != 2 {
		t.Fatalf("first stroke %+v", r)
	}
	if !got.Strokes[1].Paint().IsEraser {
		t.Fatalf("eraser flag lost")
	}

	// no temp files left behind
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left: %s", e.Name())
		}
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := Save(path, sample()); err != nil {
		t.Fatalf("save 1: %v", err)
	}
	if err := Save(path, New(10, 10, nil)); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	got, err := Load(path)
	if err != nil || got.Width != 10 || len(got.Strokes) != 0 {
		t.Fatalf("after overwrite %+v, %v", got, err)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"missing width":  `{"version":1,"height":5,"strokes":[]}`,
		"zero height":    `{"version":1,"width":5,"height":0,"strokes":[]}`,
		"future version": `{"version":2,"width":5,"height":5,"strokes":[]}`,
		"unknown shape":  `{"version":1,"width":5,"height":5,"strokes":[{"shape":"star","paint":{"color":{"r":0,"g":0,"b":0,"a":255},"width":3},"points":[{"x":1,"y":1}]}]}`,
		"no points":      `{"version":1,"width":5,"height":5,"strokes":[{"shape":"circle","paint":{"color":{"r":0,"g":0,"b":0,"a":255},"width":3},"points":[]}]}`,
		"channel range":  `{"version":1,"width":5,"height":5,"strokes":[{"shape":"circle","paint":{"color":{"r":300,"g":0,"b":0,"a":255},"width":3},"points":[{"x":1,"y":1}]}]}`,
	}
	for name, in := range cases {
		if _, err := Decode(strings.NewReader(in)); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("%s: err = %v, want ErrInvalidDocument", name, err)
		}
	}
}

func TestDecodeMinimal(t *testing.T) {
	in := `{"version":1,"width":3,"height":4,"strokes":[{"shape":"freehand","paint":{"color":{"r":0,"g":0,"b":255,"a":255},"width":2},"points":[{"x":0,"y":0},{"x":2,"y":3}]}]}`
	doc, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Strokes) != 1 || doc.Strokes[0].Paint().Color != paint.Blue {
		t.Fatalf("decoded %+v", doc)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

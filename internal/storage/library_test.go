/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := OpenLibrary(t.TempDir())
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		t := cur
		cur = cur.Add(time.Second)
		return t
	}
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestOpenLibraryCreatesLayoutAndMigrates(t *testing.T) {
	lib := openTestLibrary(t)
	if _, err := os.Stat(IndexPath(lib.Root())); err != nil {
		t.Fatalf("index missing: %v", err)
	}
	if st, err := os.Stat(lib.PicturesDir()); err != nil || !st.IsDir() {
		t.Fatalf("pictures dir missing: %v", err)
	}
	ctx := context.Background()
	v, err := lib.SchemaVersion(ctx)
	if err != nil || v != schemaVersion {
		t.Fatalf("schema = %d, %v; want %d", v, err, schemaVersion)
	}
	var mode string
	if err := lib.db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Fatalf("expected WAL, got %s", mode)
	}
}

func TestReopenKeepsData(t *testing.T) {
	root := t.TempDir()
	lib, err := OpenLibrary(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if _, err := lib.Insert(ctx, Drawing{Name: "keep", FilePath: "/x.png", WidthPx: 1, HeightPx: 1}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = lib.Close()
	lib, err = OpenLibrary(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer lib.Close()
	all, err := lib.List(ctx)
	if err != nil || len(all) != 1 || all[0].Name != "keep" {
		t.Fatalf("list after reopen = %+v, %v", all, err)
	}
}

func TestDrawingCRUD(t *testing.T) {
	lib := openTestLibrary(t)
	lib.now = fixedClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	a, err := lib.Insert(ctx, Drawing{Name: "first", FilePath: "/a.png", WidthPx: 100, HeightPx: 50})
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	b, err := lib.Insert(ctx, Drawing{Name: "  ", FilePath: "/b.png", WidthPx: 10, HeightPx: 10})
	if err != nil {
		t.Fatalf("insert b: %v", err)
	}
	if a.ID == 0 || b.ID == a.ID {
		t.Fatalf("ids not assigned: %d %d", a.ID, b.ID)
	}
	if b.Name != DefaultName {
		t.Fatalf("blank name stored as %q", b.Name)
	}

	all, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != b.ID || all[1].ID != a.ID {
		t.Fatalf("list not newest first: %+v", all)
	}

	got, err := lib.Get(ctx, a.ID)
	if err != nil || got.WidthPx != 100 || got.HeightPx != 50 || !got.CreatedAt.Equal(a.CreatedAt) {
		t.Fatalf("get = %+v, %v", got, err)
	}

	renamed, err := lib.Rename(ctx, a.ID, "renamed")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "renamed" || !renamed.UpdatedAt.After(renamed.CreatedAt) {
		t.Fatalf("rename result %+v", renamed)
	}

	if err := lib.Delete(ctx, b.ID, false); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := lib.Get(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete err = %v", err)
	}
	if err := lib.Delete(ctx, b.ID, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if _, err := lib.Update(ctx, Drawing{ID: 9999, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing err = %v", err)
	}
}

func TestSavePNGNamingAndDeleteWithFile(t *testing.T) {
	lib := openTestLibrary(t)
	lib.now = func() time.Time { return time.UnixMilli(1700000000123) }
	img := solid(4, 3, color.NRGBA{10, 20, 30, 255})

	p1, err := lib.SavePNG(img, "My/Drawing:1?")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if base := filepath.Base(p1); base != "1700000000123_My_Drawing_1_.png" {
		t.Fatalf("file name = %s", base)
	}
	// same millisecond: must not overwrite
	p2, err := lib.SavePNG(img, "My/Drawing:1?")
	if err != nil || p2 == p1 {
		t.Fatalf("second save = %s, %v", p2, err)
	}
	back, err := DecodeImage(p1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Bounds().Dx() != 4 || back.Bounds().Dy() != 3 {
		t.Fatalf("decoded bounds %v", back.Bounds())
	}

	ctx := context.Background()
	d, err := lib.Insert(ctx, Drawing{Name: "x", FilePath: p1, WidthPx: 4, HeightPx: 3})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := lib.Delete(ctx, d.ID, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(p1); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file still present: %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"hello world": "hello world",
		"a.b-c_d":     "a.b-c_d",
		"x/y\\z":      "x_y_z",
		"näive":       "n_ive",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImportReencodesAsPNG(t *testing.T) {
	lib := openTestLibrary(t)
	src := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(src)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, solid(3, 3, color.NRGBA{255, 0, 0, 255})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_ = f.Close()

	path, img, err := lib.Import(src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.HasSuffix(path, "_import.png") || filepath.Dir(path) != lib.PicturesDir() {
		t.Fatalf("import path = %s", path)
	}
	if img.Bounds().Dx() != 3 {
		t.Fatalf("import image bounds %v", img.Bounds())
	}
	if _, _, err := lib.Import(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestImportReaderNamesByStem(t *testing.T) {
	lib := openTestLibrary(t)
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(5, 4, color.NRGBA{0, 255, 0, 255})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path, img, err := lib.ImportReader(&buf, "from bob/sunset")
	if err != nil {
		t.Fatalf("import reader: %v", err)
	}
	if !strings.HasSuffix(path, "_from bob_sunset.png") || filepath.Dir(path) != lib.PicturesDir() {
		t.Fatalf("import path = %s", path)
	}
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 4 {
		t.Fatalf("bounds %v", img.Bounds())
	}
	if _, _, err := lib.ImportReader(strings.NewReader("not an image"), "x"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestThumbnailFitsAndCaches(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()
	path, err := lib.SavePNG(solid(400, 200, color.NRGBA{0, 0, 255, 255}), "big")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	d, err := lib.Insert(ctx, Drawing{Name: "big", FilePath: path, WidthPx: 400, HeightPx: 200})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	blob, err := lib.Thumbnail(ctx, d.ID, 100)
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("decode thumb: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("thumb size %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
	// remove the source; the cached thumbnail must still be served
	_ = os.Remove(path)
	again, err := lib.Thumbnail(ctx, d.ID, 100)
	if err != nil || !bytes.Equal(again, blob) {
		t.Fatalf("cached thumbnail not used: %v", err)
	}
	if _, err := lib.Thumbnail(ctx, 4242, 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing drawing err = %v", err)
	}
}

func TestCheckAndRepairRebuildsFromPictures(t *testing.T) {
	root := t.TempDir()
	lib, err := OpenLibrary(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	lib.now = func() time.Time { return time.UnixMilli(1600000000000) }
	if _, err := lib.SavePNG(solid(8, 6, color.NRGBA{1, 2, 3, 255}), "sunset"); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = lib.Close()

	if err := os.WriteFile(IndexPath(root), []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(IndexPath(root) + suffix)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	lib, rebuilt, err := CheckAndRepair(ctx, root)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	defer lib.Close()
	if !rebuilt {
		t.Fatalf("expected a rebuild")
	}
	all, err := lib.List(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list after rebuild = %+v, %v", all, err)
	}
	d := all[0]
	if d.Name != "sunset" || d.WidthPx != 8 || d.HeightPx != 6 || d.CreatedAt.UnixMilli() != 1600000000000 {
		t.Fatalf("recovered drawing %+v", d)
	}
	backups, _ := os.ReadDir(filepath.Join(root, IndexDirName, "backups"))
	if len(backups) == 0 {
		t.Fatalf("expected a backup of the corrupt index")
	}

	// a healthy library is left alone
	_ = lib.Close()
	lib2, rebuilt, err := CheckAndRepair(ctx, root)
	if err != nil || rebuilt {
		t.Fatalf("healthy repair: rebuilt=%v err=%v", rebuilt, err)
	}
	_ = lib2.Close()
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when no drawing has the requested id.
var ErrNotFound = errors.New("storage: drawing not found")

// DefaultName is stored for drawings saved without a name.
const DefaultName = "Untitled"

// Drawing is the metadata row for one saved image.
type Drawing struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	FilePath  string    `json:"file_path"`
	WidthPx   int       `json:"width_px"`
	HeightPx  int       `json:"height_px"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func normalizeName(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return DefaultName
	}
	return s
}

func millis(t time.Time) int64     { return t.UnixMilli() }
func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// Insert stores d and returns it with id and timestamps assigned. Zero
// timestamps are set to now.
func (l *Library) Insert(ctx context.Context, d Drawing) (Drawing, error) {
	d.Name = normalizeName(d.Name)
	now := l.now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO drawings(name, file_path, width_px, height_px, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		d.Name, d.FilePath, d.WidthPx, d.HeightPx, millis(d.CreatedAt), millis(d.UpdatedAt))
	if err != nil {
		return Drawing{}, fmt.Errorf("insert drawing: %w", err)
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return Drawing{}, fmt.Errorf("insert drawing id: %w", err)
	}
	// timestamps round-trip through millis
	d.CreatedAt = fromMillis(millis(d.CreatedAt))
	d.UpdatedAt = fromMillis(millis(d.UpdatedAt))
	l.lg.Debug("drawing inserted", slog.Int64("id", d.ID), slog.String("name", d.Name))
	return d, nil
}

// Update rewrites name, file and size of an existing drawing and bumps updated_at.
func (l *Library) Update(ctx context.Context, d Drawing) (Drawing, error) {
	d.Name = normalizeName(d.Name)
	d.UpdatedAt = fromMillis(millis(l.now()))
	res, err := l.db.ExecContext(ctx,
		`UPDATE drawings SET name=?, file_path=?, width_px=?, height_px=?, updated_at=? WHERE id=?`,
		d.Name, d.FilePath, d.WidthPx, d.HeightPx, millis(d.UpdatedAt), d.ID)
	if err != nil {
		return Drawing{}, fmt.Errorf("update drawing %d: %w", d.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Drawing{}, ErrNotFound
	}
	return l.Get(ctx, d.ID)
}

// Rename changes only the name of a drawing.
func (l *Library) Rename(ctx context.Context, id int64, name string) (Drawing, error) {
	d, err := l.Get(ctx, id)
	if err != nil {
		return Drawing{}, err
	}
	d.Name = name
	return l.Update(ctx, d)
}

// Delete removes the drawing row and its cached thumbnail. With deleteFile
// the image file is removed as well; a file that is already gone is ignored.
func (l *Library) Delete(ctx context.Context, id int64, deleteFile bool) error {
	d, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete drawing %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM thumbnails WHERE drawing_id=?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete thumbnail %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM drawings WHERE id=?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete drawing %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete drawing %d: %w", id, err)
	}
	if deleteFile && d.FilePath != "" {
		if err := os.Remove(d.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.lg.Warn("remove drawing file failed", slog.String("path", d.FilePath), slog.Any("err", err))
			return fmt.Errorf("remove %s: %w", d.FilePath, err)
		}
	}
	return nil
}

const drawingCols = `id, name, file_path, width_px, height_px, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanDrawing(r rowScanner) (Drawing, error) {
	var d Drawing
	var created, updated int64
	if err := r.Scan(&d.ID, &d.Name, &d.FilePath, &d.WidthPx, &d.HeightPx, &created, &updated); err != nil {
		return Drawing{}, err
	}
	d.CreatedAt = fromMillis(created)
	d.UpdatedAt = fromMillis(updated)
	return d, nil
}

// Get returns one drawing or ErrNotFound.
func (l *Library) Get(ctx context.Context, id int64) (Drawing, error) {
	row := l.db.QueryRowContext(ctx, `SELECT `+drawingCols+` FROM drawings WHERE id=?`, id)
	d, err := scanDrawing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Drawing{}, ErrNotFound
	}
	if err != nil {
		return Drawing{}, fmt.Errorf("get drawing %d: %w", id, err)
	}
	return d, nil
}

// List returns every drawing, newest first.
func (l *Library) List(ctx context.Context) ([]Drawing, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+drawingCols+` FROM drawings ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	defer rows.Close()
	var out []Drawing
	for rows.Next() {
		d, err := scanDrawing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drawing: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Reindex registers PNG files in the pictures folder that have no row yet,
// recovering name and creation time from the {millis}_{name}.png file name.
// It returns the number of rows added.
func (l *Library) Reindex(ctx context.Context) (int, error) {
	known := map[string]bool{}
	all, err := l.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, d := range all {
		known[d.FilePath] = true
	}
	entries, err := os.ReadDir(l.PicturesDir())
	if err != nil {
		return 0, fmt.Errorf("read pictures dir: %w", err)
	}
	added := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		path := filepath.Join(l.PicturesDir(), e.Name())
		if known[path] {
			continue
		}
		cfg, err := decodeConfig(path)
		if err != nil {
			l.lg.Warn("skip unreadable image", slog.String("path", path), slog.Any("err", err))
			continue
		}
		name, created := parseFileName(e.Name())
		if created.IsZero() {
			if info, err := e.Info(); err == nil {
				created = info.ModTime()
			}
		}
		if _, err := l.Insert(ctx, Drawing{Name: name, FilePath: path, WidthPx: cfg.Width, HeightPx: cfg.Height, CreatedAt: created}); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

// parseFileName splits "{millis}_{name}.png". Names that do not follow the
// pattern keep their base name and a zero time.
func parseFileName(base string) (string, time.Time) {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	prefix, rest, ok := strings.Cut(stem, "_")
	if !ok {
		return normalizeName(stem), time.Time{}
	}
	ms, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return normalizeName(stem), time.Time{}
	}
	return normalizeName(rest), fromMillis(ms)
}

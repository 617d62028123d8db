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
	"database/sql"
	"errors"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/disintegration/imaging"
)

// DefaultThumbPx is the bounding box used by the gallery list.
const DefaultThumbPx = 256

// Thumbnail returns a PNG no larger than maxPx on either side for the
// drawing. Results are cached per drawing; a request with a different size
// regenerates the cache entry.
func (l *Library) Thumbnail(ctx context.Context, id int64, maxPx int) ([]byte, error) {
	if maxPx <= 0 {
		maxPx = DefaultThumbPx
	}
	var blob []byte
	err := l.db.QueryRowContext(ctx, `SELECT png FROM thumbnails WHERE drawing_id=? AND max_px=?`, id, maxPx).Scan(&blob)
	switch {
	case err == nil:
		return blob, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("query thumbnail: %w", err)
	}

	d, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Open(d.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.FilePath, err)
	}
	thumb := src
	if b := src.Bounds(); b.Dx() > maxPx || b.Dy() > maxPx {
		thumb = imaging.Fit(src, maxPx, maxPx, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	blob = buf.Bytes()
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO thumbnails(drawing_id, max_px, png, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(drawing_id) DO UPDATE SET max_px=excluded.max_px, png=excluded.png, updated_at=excluded.updated_at`,
		id, maxPx, blob, millis(l.now())); err != nil {
		// the thumbnail is still usable without the cache
		l.lg.Warn("cache thumbnail failed", slog.Int64("id", id), slog.Any("err", err))
	}
	return blob, nil
}

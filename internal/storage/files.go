/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var unsafeNameChars = regexp.MustCompile(`[^\w\-.\s]`)

// SanitizeName replaces every character outside letters, digits, '_', '-',
// '.' and whitespace with '_'.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// writeUnique writes img as "{millis}_{stem}.png" in the pictures folder.
// Two saves within the same millisecond get a numeric suffix.
func (l *Library) writeUnique(img image.Image, stem string) (string, error) {
	prefix := strconv.FormatInt(l.now().UnixMilli(), 10) + "_" + stem
	path := filepath.Join(l.PicturesDir(), prefix+".png")
	for i := 1; ; i++ {
		err := writePNG(path, img)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) || i > 99 {
			return "", err
		}
		path = filepath.Join(l.PicturesDir(), fmt.Sprintf("%s-%d.png", prefix, i))
	}
}

// SavePNG encodes img into the pictures folder as "{millis}_{sanitized}.png"
// and returns the file path. A partially written file is removed on failure.
func (l *Library) SavePNG(img image.Image, baseName string) (string, error) {
	path, err := l.writeUnique(img, SanitizeName(normalizeName(baseName)))
	if err != nil {
		l.lg.Error("save png failed", slog.String("name", baseName), slog.Any("err", err))
		return "", err
	}
	return path, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Import copies an external image into the pictures folder as
// "{millis}_import.png", re-encoding it to PNG. The decoded image is returned
// so it can be used as a background right away.
func (l *Library) Import(src string) (string, image.Image, error) {
	img, err := DecodeImage(src)
	if err != nil {
		return "", nil, err
	}
	path, err := l.writeUnique(img, "import")
	if err != nil {
		return "", nil, err
	}
	l.lg.Info("image imported", slog.String("src", src), slog.String("path", path))
	return path, img, nil
}

// ImportReader is Import for image data that is not on disk, such as a
// download. The file is named "{millis}_{stem}.png".
func (l *Library) ImportReader(r io.Reader, stem string) (string, image.Image, error) {
	img, err := Decode(r)
	if err != nil {
		return "", nil, err
	}
	path, err := l.writeUnique(img, SanitizeName(normalizeName(stem)))
	if err != nil {
		return "", nil, err
	}
	l.lg.Info("image imported", slog.String("stem", stem), slog.String("path", path))
	return path, img, nil
}

// DecodeImage reads any supported raster format (PNG, JPEG, GIF, BMP, TIFF, WebP).
func DecodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode is DecodeImage for an already open reader.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

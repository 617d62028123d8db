/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"paintify/internal/stroke"
)

// Canvas is everything an exporter needs.
type Canvas struct {
	Strokes    []stroke.Stroke
	Width      int
	Height     int
	Background image.Image // optional; SVG ignores it
}

// Format is an output file format.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// ErrUnknownFormat is returned for unsupported extensions or format names.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat accepts a format name or a file name with extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = ext[1:]
	}
	switch Format(s) {
	case FormatPNG, FormatPDF, FormatSVG:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Write encodes c in format f.
func Write(w io.Writer, f Format, c Canvas) error {
	switch f {
	case FormatPNG:
		return PNG(w, c.Strokes, c.Width, c.Height, c.Background)
	case FormatPDF:
		return PDF(w, c.Strokes, c.Width, c.Height, c.Background)
	case FormatSVG:
		return SVG(w, c.Strokes, c.Width, c.Height)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// ToFile writes c to path, picking the format from the extension.
func ToFile(path string, c Canvas) error {
	f, err := ParseFormat(path)
	if err != nil {
		return err
	}
	return ToFileAs(path, f, c)
}

// ToFileAs writes c to path in format f regardless of the extension. The
// file is written next to its destination and renamed into place.
func ToFileAs(path string, f Format, c Canvas) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = Write(tmp, f, c); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Batch writes c once per format of the preset as <dir>/<base>.<ext> and
// returns the written paths. An explicit formats list overrides the preset.
func Batch(dir, base string, c Canvas, preset PresetName, formats ...Format) ([]string, error) {
	if len(formats) == 0 {
		formats = presetDefaultFormats(preset)
	}
	if base == "" {
		base = "drawing"
	}
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		p := filepath.Join(dir, base+"."+string(f))
		if err := ToFile(p, c); err != nil {
			return out, fmt.Errorf("%s: %w", f, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func presetDefaultFormats(p PresetName) []Format {
	switch p {
	case PresetWeb:
		return []Format{FormatPNG, FormatSVG}
	case PresetPrint:
		return []Format{FormatPDF, FormatPNG}
	default:
		return []Format{FormatPNG}
	}
}

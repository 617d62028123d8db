/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package paint defines stroke paint parameters.
package paint

import (
	"fmt"
	"image/color"
	"strings"
)

// Stroke width limits enforced by the capture layer.
const (
	MinWidth float32 = 1
	MaxWidth float32 = 128
)

// Color is straight (non-premultiplied) 8-bit RGBA.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Red         = Color{255, 0, 0, 255}
	Blue        = Color{0, 0, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// Palette is the fixed set of colors offered by the toolbar.
var Palette = []Color{Black, Red, Blue, White}

// NRGBA converts to the image/color representation.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return c.NRGBA().RGBA() }

// Hex renders #rrggbb, dropping alpha.
func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// ParseColor accepts a palette name (black, red, blue, white, eraser) or #rrggbb / #rrggbbaa.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "black":
		return Black, nil
	case "red":
		return Red, nil
	case "blue":
		return Blue, nil
	case "white", "eraser":
		return White, nil
	}
	var c Color
	c.A = 255
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return Color{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	case 9:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return Color{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	default:
		return Color{}, fmt.Errorf("parse color %q: unknown format", s)
	}
	return c, nil
}

// Params describes how a stroke is painted. IsEraser is informational; the
// rasterizer paints Color regardless.
type Params struct {
	Color    Color   `json:"color"`
	WidthPx  float32 `json:"width"`
	IsEraser bool    `json:"eraser,omitempty"`
}

// Pen returns params for the given color and width. White selects the eraser.
func Pen(c Color, width float32) Params {
	return Params{Color: c, WidthPx: width, IsEraser: c == White}
}

// ClampWidth limits w to [MinWidth, MaxWidth].
func ClampWidth(w float32) float32 {
	if w != w { // NaN
		return MinWidth
	}
	return min(max(w, MinWidth), MaxWidth)
}

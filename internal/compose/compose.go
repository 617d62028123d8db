/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compose flattens strokes onto an optional background for saving.
package compose

import (
	"image"

	"golang.org/x/image/draw"

	"paintify/internal/paint"
	"paintify/internal/raster"
	"paintify/internal/stroke"
)

// Composite produces the final width x height image. With a background the
// image is scaled to fit exactly and the strokes are layered on top; without
// one the strokes are rendered onto opaque white.
func Composite(bg image.Image, strokes []stroke.Stroke, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, raster.ErrInvalidDimensions
	}
	if bg == nil {
		return raster.Render(strokes, width, height, raster.Opaque(paint.White))
	}
	out := ScaleTo(bg, width, height)
	if len(strokes) == 0 {
		return out, nil
	}
	layer, err := raster.Render(strokes, width, height, raster.Transparent)
	if err != nil {
		return nil, err
	}
	draw.Draw(out, out.Bounds(), layer, image.Point{}, draw.Over)
	return out, nil
}

// ScaleTo resizes img to exactly width x height using nearest-neighbour
// sampling. Aspect ratio is not preserved.
func ScaleTo(img image.Image, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
		return out
	}
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

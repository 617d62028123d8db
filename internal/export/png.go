/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a canvas as PNG, PDF or SVG and packs saved
// drawings into a CBZ archive.
package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"

	"paintify/internal/compose"
	"paintify/internal/stroke"
)

// PNG composites the canvas and encodes it.
func PNG(w io.Writer, strokes []stroke.Stroke, width, height int, bg image.Image) error {
	img, err := compose.Composite(bg, strokes, width, height)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := png.Encode(bw, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return bw.Flush()
}

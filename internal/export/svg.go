/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"paintify/internal/geom"
	"paintify/internal/paint"
	"paintify/internal/raster"
	"paintify/internal/stroke"
)

// SVG writes the strokes as an SVG document on a white width x height
// canvas. The viewBox matches the canvas in pixels.
func SVG(w io.Writer, strokes []stroke.Stroke, width, height int) error {
	if width <= 0 || height <= 0 {
		return raster.ErrInvalidDimensions
	}
	bw := bufio.NewWriter(w)
	s := &svgPainter{}
	s.wf = func(format string, args ...any) {
		if s.err != nil {
			return
		}
		_, s.err = fmt.Fprintf(bw, format, args...)
	}

	s.wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	s.wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n", width, height, width, height)
	s.wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"#ffffff\"/>\n", width, height)
	stroke.Walk(strokes, s)
	s.wf("</svg>\n")
	if s.err != nil {
		return fmt.Errorf("build svg: %w", s.err)
	}
	return bw.Flush()
}

type svgPainter struct {
	wf  func(format string, args ...any)
	err error
}

// strokeAttrs renders the shared presentation attributes.
func strokeAttrs(pp paint.Params, linecap string) string {
	a := fmt.Sprintf("fill=\"none\" stroke=\"%s\" stroke-width=\"%g\" stroke-linecap=\"%s\" stroke-linejoin=\"round\"",
		pp.Color.Hex(), pp.WidthPx, linecap)
	if pp.Color.A < 255 {
		a += fmt.Sprintf(" stroke-opacity=\"%.3g\"", float64(pp.Color.A)/255)
	}
	return a
}

func (s *svgPainter) Freehand(pp paint.Params, pts []geom.Point) {
	path := dedupe(pts)
	if len(path) == 1 {
		fill := fmt.Sprintf("fill=\"%s\"", pp.Color.Hex())
		if pp.Color.A < 255 {
			fill += fmt.Sprintf(" fill-opacity=\"%.3g\"", float64(pp.Color.A)/255)
		}
		s.wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" %s/>\n", path[0].X, path[0].Y, pp.WidthPx/2, fill)
		return
	}
	var b strings.Builder
	for i, pt := range path {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%g,%g", pt.X, pt.Y)
	}
	s.wf("  <polyline points=\"%s\" %s/>\n", b.String(), strokeAttrs(pp, "round"))
}

func (s *svgPainter) Circle(pp paint.Params, c geom.Point, r float32) {
	s.wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" %s/>\n", c.X, c.Y, r, strokeAttrs(pp, "round"))
}

func (s *svgPainter) Rectangle(pp paint.Params, r geom.Rect) {
	if r.Width() == 0 || r.Height() == 0 {
		s.wf("  <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" %s/>\n", r.Left, r.Top, r.Right, r.Bottom, strokeAttrs(pp, "butt"))
		return
	}
	s.wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" %s/>\n", r.Left, r.Top, r.Width(), r.Height(), strokeAttrs(pp, "butt"))
}

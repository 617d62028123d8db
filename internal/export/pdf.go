/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"paintify/internal/compose"
	"paintify/internal/geom"
	"paintify/internal/paint"
	"paintify/internal/raster"
	"paintify/internal/stroke"
)

// PDF writes a single-page PDF whose page measures width x height points,
// one point per canvas pixel. The background (if any) is embedded as a PNG
// scaled to the page; strokes stay vector.
//
// Coordinates:
// - Page origin is top-left, same as the canvas.
func PDF(w io.Writer, strokes []stroke.Stroke, width, height int, bg image.Image) error {
	if width <= 0 || height <= 0 {
		return raster.ErrInvalidDimensions
	}
	wd, ht := float64(width), float64(height)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	pdf.SetCreator("Paintify", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: wd, Ht: ht})

	if bg != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, compose.ScaleTo(bg, width, height)); err != nil {
			return fmt.Errorf("encode background: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("background", opts, &buf)
		pdf.ImageOptions("background", 0, 0, wd, ht, false, opts, 0, "")
	} else {
		pdf.SetFillColor(255, 255, 255)
		pdf.Rect(0, 0, wd, ht, "F")
	}

	stroke.Walk(strokes, &pdfPainter{pdf: pdf})
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfPainter struct{ pdf *gofpdf.Fpdf }

func (p *pdfPainter) pen(pp paint.Params, capStyle string) {
	c := pp.Color
	p.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	p.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	p.pdf.SetAlpha(float64(c.A)/255, "Normal")
	p.pdf.SetLineWidth(float64(pp.WidthPx))
	p.pdf.SetLineCapStyle(capStyle)
	p.pdf.SetLineJoinStyle("round")
}

func (p *pdfPainter) Freehand(pp paint.Params, pts []geom.Point) {
	path := dedupe(pts)
	if len(path) == 1 {
		p.pen(pp, "round")
		p.pdf.Circle(float64(path[0].X), float64(path[0].Y), float64(pp.WidthPx)/2, "F")
		return
	}
	p.pen(pp, "round")
	p.pdf.MoveTo(float64(path[0].X), float64(path[0].Y))
	for _, pt := range path[1:] {
		p.pdf.LineTo(float64(pt.X), float64(pt.Y))
	}
	p.pdf.DrawPath("D")
}

func (p *pdfPainter) Circle(pp paint.Params, c geom.Point, r float32) {
	p.pen(pp, "round")
	p.pdf.Circle(float64(c.X), float64(c.Y), float64(r), "D")
}

func (p *pdfPainter) Rectangle(pp paint.Params, r geom.Rect) {
	p.pen(pp, "butt")
	if r.Width() == 0 || r.Height() == 0 {
		p.pdf.Line(float64(r.Left), float64(r.Top), float64(r.Right), float64(r.Bottom))
		return
	}
	p.pdf.Rect(float64(r.Left), float64(r.Top), float64(r.Width()), float64(r.Height()), "D")
}

func dedupe(pts []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(pts))
	for i, pt := range pts {
		if i > 0 && pt.Eq(out[len(out)-1]) {
			continue
		}
		out = append(out, pt)
	}
	return out
}

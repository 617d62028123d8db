/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster paints stroke lists into RGBA pixel buffers.
//
// Strokes are drawn in list order with source-over compositing, so later
// strokes cover earlier ones. Stroking uses rasterx with round caps and joins,
// which gives anti-aliased coverage at the requested pixel width.
package raster

import (
	"errors"
	"image"
	"image/draw"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"paintify/internal/geom"
	"paintify/internal/paint"
	"paintify/internal/stroke"
)

// ErrInvalidDimensions is returned when the target width or height is not positive.
var ErrInvalidDimensions = errors.New("raster: width and height must be positive")

// Background is the initial content of a render target.
type Background struct {
	opaque bool
	color  paint.Color
}

// Transparent leaves every pixel at zero alpha before strokes are drawn.
var Transparent = Background{}

// Opaque fills the target with c before strokes are drawn.
func Opaque(c paint.Color) Background { return Background{opaque: true, color: c} }

// IsTransparent reports whether b is the transparent background.
func (b Background) IsTransparent() bool { return !b.opaque }

// Render draws strokes into a new width x height buffer.
func Render(strokes []stroke.Stroke, width, height int, bg Background) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if bg.opaque {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg.color.NRGBA()), image.Point{}, draw.Src)
	}
	Draw(img, strokes)
	return img, nil
}

// Draw paints strokes over the existing content of dst. Strokes that cannot
// be drawn are skipped.
func Draw(dst draw.Image, strokes []stroke.Stroke) {
	if len(strokes) == 0 {
		return
	}
	b := dst.Bounds()
	stroke.Walk(strokes, newPainter(dst, b.Dx(), b.Dy()))
}

// painter implements stroke.Visitor on top of a rasterx dasher.
type painter struct {
	d *rasterx.Dasher
}

func newPainter(dst draw.Image, w, h int) *painter {
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	return &painter{d: rasterx.NewDasher(w, h, scanner)}
}

func (p *painter) setPaint(pp paint.Params, c rasterx.CapFunc) {
	width := fixed.Int26_6(math.Round(float64(pp.WidthPx) * 64))
	p.d.SetStroke(width, 0, c, c, rasterx.RoundGap, rasterx.Round, nil, 0)
	p.d.SetColor(pp.Color.NRGBA())
}

func (p *painter) flush() {
	p.d.Draw()
	p.d.Clear()
}

// Freehand strokes the polyline through pts. Consecutive duplicates are
// dropped; a tap that never moved becomes a round dot.
func (p *painter) Freehand(pp paint.Params, pts []geom.Point) {
	path := dedupe(pts)
	if len(path) == 1 {
		p.dot(pp, path[0])
		return
	}
	p.setPaint(pp, rasterx.RoundCap)
	p.d.Start(toFixed(path[0]))
	for _, pt := range path[1:] {
		p.d.Line(toFixed(pt))
	}
	p.d.Stop(false)
	p.flush()
}

// Circle strokes the outline only, approximated by short chords.
func (p *painter) Circle(pp paint.Params, c geom.Point, r float32) {
	n := circleSegments(r)
	p.setPaint(pp, rasterx.RoundCap)
	p.d.Start(toFixed(geom.Pt(c.X+r, c.Y)))
	for i := 1; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		p.d.Line(toFixed(geom.Pt(
			c.X+r*float32(math.Cos(a)),
			c.Y+r*float32(math.Sin(a)),
		)))
	}
	p.d.Stop(true)
	p.flush()
}

// Rectangle strokes the outline. A rectangle collapsed to one axis is drawn
// as the single edge it degenerates to.
func (p *painter) Rectangle(pp paint.Params, r geom.Rect) {
	if r.Width() == 0 || r.Height() == 0 {
		p.setPaint(pp, rasterx.ButtCap)
		p.d.Start(toFixed(geom.Pt(r.Left, r.Top)))
		p.d.Line(toFixed(geom.Pt(r.Right, r.Bottom)))
		p.d.Stop(false)
		p.flush()
		return
	}
	p.setPaint(pp, rasterx.ButtCap)
	p.d.Start(toFixed(geom.Pt(r.Left, r.Top)))
	p.d.Line(toFixed(geom.Pt(r.Right, r.Top)))
	p.d.Line(toFixed(geom.Pt(r.Right, r.Bottom)))
	p.d.Line(toFixed(geom.Pt(r.Left, r.Bottom)))
	p.d.Stop(true)
	p.flush()
}

// dot fills a disc of the pen diameter.
func (p *painter) dot(pp paint.Params, c geom.Point) {
	r := float64(pp.WidthPx) / 2
	if r <= 0 {
		return
	}
	f := &p.d.Filler
	f.SetColor(pp.Color.NRGBA())
	n := circleSegments(float32(r))
	f.Start(toFixed(geom.Pt(c.X+float32(r), c.Y)))
	for i := 1; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		f.Line(toFixed(geom.Pt(c.X+float32(r*math.Cos(a)), c.Y+float32(r*math.Sin(a)))))
	}
	f.Stop(true)
	f.Draw()
	f.Clear()
}

// circleSegments keeps chords around two pixels long.
func circleSegments(r float32) int {
	n := int(math.Ceil(math.Pi * float64(r)))
	return min(max(n, 16), 1024)
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

func toFixed(p geom.Point) fixed.Point26_6 {
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(float64(p.X) * 64)),
		Y: fixed.Int26_6(math.Round(float64(p.Y) * 64)),
	}
}

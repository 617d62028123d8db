//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"paintify/internal/capture"
	"paintify/internal/compose"
	"paintify/internal/geom"
	applog "paintify/internal/log"
)

// PaintCanvas shows the live strokes of a capture session on top of an
// optional background and forwards pointer input to the session. The drawing
// has a fixed pixel size; the widget stretches it to its own size.
type PaintCanvas struct {
	widget.BaseWidget

	session *capture.Session
	docW    int
	docH    int
	bg      image.Image
	raster  *canvas.Raster
	lg      *slog.Logger

	// OnChange fires after every stroke-affecting input.
	OnChange func()
}

var (
	_ desktop.Mouseable = (*PaintCanvas)(nil)
	_ fyne.Draggable    = (*PaintCanvas)(nil)
)

// NewPaintCanvas binds a canvas of docW x docH pixels to session.
func NewPaintCanvas(session *capture.Session, docW, docH int) *PaintCanvas {
	p := &PaintCanvas{session: session, docW: docW, docH: docH, lg: applog.WithComponent("ui.canvas")}
	p.raster = canvas.NewRaster(p.render)
	p.raster.SetMinSize(fyne.NewSize(270, 480))
	p.ExtendBaseWidget(p)
	return p
}

// CreateRenderer draws the raster only.
func (p *PaintCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.raster)
}

// DocSize is the saved image size in pixels.
func (p *PaintCanvas) DocSize() (int, int) { return p.docW, p.docH }

// Background returns the current background or nil.
func (p *PaintCanvas) Background() image.Image { return p.bg }

// SetBackground replaces the background; nil means plain white.
func (p *PaintCanvas) SetBackground(img image.Image) {
	p.bg = img
	p.Refresh()
}

// Clear drops every stroke and the background.
func (p *PaintCanvas) Clear() {
	p.session.Clear()
	p.bg = nil
	p.changed()
}

// toDoc maps a widget position to drawing pixels.
func (p *PaintCanvas) toDoc(pos fyne.Position) geom.Point {
	size := p.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return geom.Pt(pos.X, pos.Y)
	}
	return geom.Pt(pos.X*float32(p.docW)/size.Width, pos.Y*float32(p.docH)/size.Height)
}

// MouseDown starts a stroke with the primary button.
func (p *PaintCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p.session.PointerDown(p.toDoc(e.Position))
	p.changed()
}

// MouseUp ends the stroke for clicks that never dragged.
func (p *PaintCanvas) MouseUp(*desktop.MouseEvent) {
	p.session.PointerUp()
	p.changed()
}

// Dragged extends the stroke in progress.
func (p *PaintCanvas) Dragged(e *fyne.DragEvent) {
	p.session.PointerMove(p.toDoc(e.Position))
	p.changed()
}

// DragEnd finishes the stroke.
func (p *PaintCanvas) DragEnd() {
	p.session.PointerUp()
	p.changed()
}

func (p *PaintCanvas) changed() {
	p.raster.Refresh()
	if p.OnChange != nil {
		p.OnChange()
	}
}

func (p *PaintCanvas) render(_, _ int) image.Image {
	img, err := compose.Composite(p.bg, p.session.Strokes(), p.docW, p.docH)
	if err != nil {
		p.lg.Error("render failed", slog.Any("err", err))
		return image.NewUniform(color.White)
	}
	return img
}

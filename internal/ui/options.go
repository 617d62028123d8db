/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui hosts the desktop front end. The Fyne window is only compiled
// with -tags fyne; everything in this file is shared by every build.
package ui

import (
	"fmt"
	"strings"

	"paintify/internal/capture"
	"paintify/internal/config"
	"paintify/internal/document"
	"paintify/internal/paint"
	"paintify/internal/stroke"
)

// Options configures one UI run.
type Options struct {
	Config config.AppConfig
	// Token authorizes cloud mirroring; empty disables it.
	Token string
	// Document optionally reopens a stroke document, such as an autosave.
	Document string
}

// colorChoice is one toolbar color button.
type colorChoice struct {
	Label string
	Color paint.Color
}

// colorChoices mirrors paint.Palette with toolbar labels. White is offered as
// the eraser.
func colorChoices() []colorChoice {
	out := make([]colorChoice, 0, len(paint.Palette))
	for _, c := range paint.Palette {
		label := c.Hex()
		switch c {
		case paint.Black:
			label = "Black"
		case paint.Red:
			label = "Red"
		case paint.Blue:
			label = "Blue"
		case paint.White:
			label = "Eraser"
		}
		out = append(out, colorChoice{Label: label, Color: c})
	}
	return out
}

// shapeLabels returns the shape names in toolbar order.
func shapeLabels() []string {
	out := make([]string, len(stroke.Kinds))
	for i, k := range stroke.Kinds {
		out[i] = strings.ToUpper(k.String()[:1]) + k.String()[1:]
	}
	return out
}

// newSession builds the capture session for opts: seeded from the optional
// document and with the tool taken from the canvas config. Invalid tool
// settings fall back to the session defaults and are reported.
func newSession(opts Options) (*capture.Session, int, int, error) {
	cc := opts.Config.Canvas
	w, h := cc.Width, cc.Height
	var seed []stroke.Stroke
	if opts.Document != "" {
		doc, err := document.Load(opts.Document)
		if err != nil {
			return nil, 0, 0, err
		}
		seed, w, h = doc.Strokes, doc.Width, doc.Height
	}
	if w <= 0 || h <= 0 {
		return nil, 0, 0, fmt.Errorf("canvas size %dx%d is not positive", w, h)
	}
	s := capture.NewSession(seed...)
	var errs []string
	if cc.Shape != "" {
		if k, err := stroke.ParseKind(cc.Shape); err == nil {
			s.SetShape(k)
		} else {
			errs = append(errs, err.Error())
		}
	}
	if cc.Color != "" {
		if c, err := paint.ParseColor(cc.Color); err == nil {
			s.SetColor(c)
		} else {
			errs = append(errs, err.Error())
		}
	}
	if cc.PenWidth > 0 {
		s.SetWidth(cc.PenWidth)
	}
	if len(errs) > 0 {
		return s, w, h, fmt.Errorf("canvas config: %s", strings.Join(errs, "; "))
	}
	return s, w, h, nil
}

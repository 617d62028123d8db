/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package capture

import (
	"log/slog"
	"sync"

	"paintify/internal/geom"
	applog "paintify/internal/log"
	"paintify/internal/paint"
	"paintify/internal/stroke"
)

// DefaultWidth is the pen width a new session starts with.
const DefaultWidth float32 = 12

// Tool is the current pen selection applied to the next gesture.
type Tool struct {
	Shape stroke.Kind
	Color paint.Color
	Width float32
}

// Params converts the tool to stroke paint parameters.
func (t Tool) Params() paint.Params { return paint.Pen(t.Color, t.Width) }

// Session couples a Machine with the tool selection of a drawing surface.
// Tool changes affect only gestures started afterwards.
type Session struct {
	*Machine

	mu   sync.Mutex
	tool Tool
	lg   *slog.Logger
}

// NewSession starts with a black circle tool of DefaultWidth. Seed strokes
// are kept as already committed.
func NewSession(seed ...stroke.Stroke) *Session {
	return &Session{
		Machine: NewMachine(seed...),
		tool:    Tool{Shape: stroke.Circle, Color: paint.Black, Width: DefaultWidth},
		lg:      applog.WithComponent("capture"),
	}
}

func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

func (s *Session) SetShape(k stroke.Kind) {
	s.mu.Lock()
	s.tool.Shape = k
	s.mu.Unlock()
}

// SetColor selects the pen color. White acts as the eraser.
func (s *Session) SetColor(c paint.Color) {
	s.mu.Lock()
	s.tool.Color = c
	s.mu.Unlock()
}

// SetWidth selects the pen width, clamped to [paint.MinWidth, paint.MaxWidth].
func (s *Session) SetWidth(w float32) {
	cw := paint.ClampWidth(w)
	if cw != w {
		s.lg.Debug("width clamped", slog.Float64("requested", float64(w)), slog.Float64("width", float64(cw)))
	}
	s.mu.Lock()
	s.tool.Width = cw
	s.mu.Unlock()
}

// PointerDown begins a stroke with the current tool.
func (s *Session) PointerDown(pt geom.Point) {
	t := s.Tool()
	s.Begin(pt, t.Shape, t.Params())
}

func (s *Session) PointerMove(pt geom.Point) { s.Extend(pt) }
func (s *Session) PointerUp()                { s.End() }
func (s *Session) PointerCancel()            { s.End() }

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stroke

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"paintify/internal/geom"
	applog "paintify/internal/log"
	"paintify/internal/paint"
)

var (
	// ErrUnknownKind is returned by Accept for a kind outside Kinds.
	ErrUnknownKind = errors.New("stroke: unknown shape kind")
	// ErrNonFinite is returned by Accept when a point or the pen width is NaN or infinite.
	ErrNonFinite = errors.New("stroke: non-finite coordinate")
)

// Visitor receives a stroke already decoded into its shape geometry.
// Every renderer and exporter implements all methods; a new Kind means a new
// method here.
type Visitor interface {
	Freehand(p paint.Params, pts []geom.Point)
	Circle(p paint.Params, center geom.Point, radius float32)
	Rectangle(p paint.Params, r geom.Rect)
}

// Accept decodes s and calls the matching Visitor method. Strokes with too
// few points for their shape are skipped, as are circles of zero radius.
// Nothing is visited when an error is returned.
func (s Stroke) Accept(v Visitor) error {
	if !s.finite() {
		return ErrNonFinite
	}
	switch s.kind {
	case Freehand:
		if len(s.points) < 2 {
			return nil
		}
		v.Freehand(s.paint, s.Points())
	case Circle:
		c, r, ok := s.Circle()
		if !ok || r <= 0 {
			return nil
		}
		v.Circle(s.paint, c, r)
	case Rectangle:
		r, ok := s.Rect()
		if !ok || (r.Width() == 0 && r.Height() == 0) {
			return nil
		}
		v.Rectangle(s.paint, r)
	default:
		return fmt.Errorf("%w %d", ErrUnknownKind, uint8(s.kind))
	}
	return nil
}

func (s Stroke) finite() bool {
	w := float64(s.paint.WidthPx)
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return false
	}
	for _, p := range s.points {
		if !p.Finite() {
			return false
		}
	}
	return true
}

// Walk visits strokes in order. A stroke Accept rejects is logged and
// skipped; the rest are still drawn. It returns the number skipped.
func Walk(strokes []Stroke, v Visitor) (skipped int) {
	for i, s := range strokes {
		if err := s.Accept(v); err != nil {
			applog.WithComponent("stroke").Warn("stroke skipped", slog.Int("index", i), slog.Any("err", err))
			skipped++
		}
	}
	return skipped
}

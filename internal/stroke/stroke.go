/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stroke contains the immutable stroke record produced by gesture capture.
//
// A Stroke is a value: extending it with WithPoint yields a new Stroke and never
// changes the points seen by earlier holders. Renderers consume strokes through
// Visitor so every shape kind has to be handled explicitly.
package stroke

import (
	"encoding/json"
	"fmt"

	"paintify/internal/geom"
	"paintify/internal/paint"
)

// Kind selects how a stroke's points are interpreted.
type Kind uint8

const (
	Freehand Kind = iota
	Circle
	Rectangle
)

// Kinds lists every shape kind in declaration order.
var Kinds = []Kind{Freehand, Circle, Rectangle}

func (k Kind) String() string {
	switch k {
	case Freehand:
		return "freehand"
	case Circle:
		return "circle"
	case Rectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a name (as produced by String) back to a Kind.
// "line" is accepted as an alias for freehand.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "freehand", "line":
		return Freehand, nil
	case "circle":
		return Circle, nil
	case "rectangle", "rect":
		return Rectangle, nil
	}
	return 0, fmt.Errorf("unknown shape kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if k > Rectangle {
		return nil, fmt.Errorf("unknown shape kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Stroke is one captured gesture. The zero value is an empty freehand stroke.
type Stroke struct {
	kind   Kind
	paint  paint.Params
	points []geom.Point
}

// New starts a stroke at origin.
func New(kind Kind, p paint.Params, origin geom.Point) Stroke {
	return Stroke{kind: kind, paint: p, points: []geom.Point{origin}}
}

// FromPoints builds a stroke from an existing point sequence. The slice is copied.
func FromPoints(kind Kind, p paint.Params, pts []geom.Point) Stroke {
	cp := make([]geom.Point, len(pts))
	copy(cp, pts)
	return Stroke{kind: kind, paint: p, points: cp}
}

func (s Stroke) Kind() Kind          { return s.kind }
func (s Stroke) Paint() paint.Params { return s.paint }
func (s Stroke) Len() int            { return len(s.points) }

// Points returns the points in temporal order. The result must not be modified;
// its capacity is clipped so appends by the caller reallocate.
func (s Stroke) Points() []geom.Point { return s.points[:len(s.points):len(s.points)] }

// First and Last return the end points. ok is false for an empty stroke.
func (s Stroke) First() (geom.Point, bool) {
	if len(s.points) == 0 {
		return geom.Point{}, false
	}
	return s.points[0], true
}

func (s Stroke) Last() (geom.Point, bool) {
	if len(s.points) == 0 {
		return geom.Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// WithPoint returns a copy of s with p appended.
func (s Stroke) WithPoint(p geom.Point) Stroke {
	pts := make([]geom.Point, len(s.points)+1)
	copy(pts, s.points)
	pts[len(s.points)] = p
	return Stroke{kind: s.kind, paint: s.paint, points: pts}
}

// Circle returns center and radius for a circle gesture: the first point is
// the center and the last point lies on the circumference.
func (s Stroke) Circle() (center geom.Point, radius float32, ok bool) {
	if len(s.points) < 2 {
		return geom.Point{}, 0, false
	}
	c := s.points[0]
	return c, geom.Distance(c, s.points[len(s.points)-1]), true
}

// Rect returns the rectangle spanned by the first and last point.
func (s Stroke) Rect() (geom.Rect, bool) {
	if len(s.points) < 2 {
		return geom.Rect{}, false
	}
	return geom.Bounds(s.points[0], s.points[len(s.points)-1]), true
}

// Bounds is the area the stroke can touch, including half the pen width.
func (s Stroke) Bounds() (geom.Rect, bool) {
	var r geom.Rect
	switch s.kind {
	case Circle:
		c, rad, ok := s.Circle()
		if !ok {
			return geom.Rect{}, false
		}
		r = geom.Rect{Left: c.X - rad, Top: c.Y - rad, Right: c.X + rad, Bottom: c.Y + rad}
	case Rectangle:
		var ok bool
		if r, ok = s.Rect(); !ok {
			return geom.Rect{}, false
		}
	default:
		var ok bool
		if r, ok = geom.BoundsOf(s.points); !ok {
			return geom.Rect{}, false
		}
	}
	return r.Outset(s.paint.WidthPx / 2), true
}

type strokeJSON struct {
	Shape  Kind         `json:"shape"`
	Paint  paint.Params `json:"paint"`
	Points []geom.Point `json:"points"`
}

func (s Stroke) MarshalJSON() ([]byte, error) {
	pts := s.points
	if pts == nil {
		pts = []geom.Point{}
	}
	return json.Marshal(strokeJSON{Shape: s.kind, Paint: s.paint, Points: pts})
}

func (s *Stroke) UnmarshalJSON(b []byte) error {
	var v strokeJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Stroke{kind: v.Shape, paint: v.Paint, points: v.Points}
	return nil
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stroke

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"paintify/internal/geom"
	"paintify/internal/paint"
)

var pen = paint.Pen(paint.Black, 4)

func TestWithPointLeavesOriginalUntouched(t *testing.T) {
	s0 := New(Freehand, pen, geom.Pt(1, 1))
	s1 := s0.WithPoint(geom.Pt(2, 2))
	s2 := s1.WithPoint(geom.Pt(3, 3))
	if s0.Len() != 1 || s1.Len() != 2 || s2.Len() != 3 {
		t.Fatalf("lengths = %d,%d,%d", s0.Len(), s1.Len(), s2.Len())
	}
	held := s1.Points()
	_ = s1.WithPoint(geom.Pt(9, 9))
	if len(held) != 2 || held[1] != geom.Pt(2, 2) {
		t.Fatalf("held points changed: %v", held)
	}
	// appending to the returned slice must not leak into the stroke
	_ = append(held, geom.Pt(7, 7))
	if s1.Len() != 2 {
		t.Fatalf("stroke grew through Points()")
	}
	if s2.Kind() != Freehand || s2.Paint() != pen {
		t.Fatalf("kind/paint not carried over")
	}
}

func TestCircleGeometry(t *testing.T) {
	s := New(Circle, pen, geom.Pt(10, 10)).WithPoint(geom.Pt(4, 4)).WithPoint(geom.Pt(10, 0))
	c, r, ok := s.Circle()
	if !ok || c != geom.Pt(10, 10) || r != 10 {
		t.Fatalf("circle = %v r=%v ok=%v", c, r, ok)
	}
	if _, _, ok := New(Circle, pen, geom.Pt(1, 1)).Circle(); ok {
		t.Fatalf("single point circle should not resolve")
	}
}

func TestRectUsesFirstAndLastOnly(t *testing.T) {
	s := New(Rectangle, pen, geom.Pt(5, 5)).WithPoint(geom.Pt(100, -40)).WithPoint(geom.Pt(2, 2))
	r, ok := s.Rect()
	if !ok {
		t.Fatalf("rect not resolved")
	}
	if r.Left != 2 || r.Top != 2 || r.Right != 5 || r.Bottom != 5 {
		t.Fatalf("rect = %+v", r)
	}
}

func TestBoundsIncludesHalfWidth(t *testing.T) {
	s := FromPoints(Freehand, pen, []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 5}})
	b, ok := s.Bounds()
	if !ok || b != (geom.Rect{Left: -2, Top: -2, Right: 12, Bottom: 7}) {
		t.Fatalf("bounds = %+v", b)
	}
}

type recorder struct{ calls []string }

func (r *recorder) Freehand(paint.Params, []geom.Point) { r.calls = append(r.calls, "freehand") }
func (r *recorder) Circle(paint.Params, geom.Point, float32) { r.calls = append(r.calls, "circle") }
func (r *recorder) Rectangle(paint.Params, geom.Rect) { r.calls = append(r.calls, "rectangle") }

func TestWalkSkipsDegenerateStrokes(t *testing.T) {
	strokes := []Stroke{
		New(Freehand, pen, geom.Pt(0, 0)),                           // one point
		New(Freehand, pen, geom.Pt(0, 0)).WithPoint(geom.Pt(1, 1)),   // drawn
		New(Circle, pen, geom.Pt(3, 3)).WithPoint(geom.Pt(3, 3)),     // zero radius
		New(Circle, pen, geom.Pt(3, 3)).WithPoint(geom.Pt(6, 7)),     // drawn
		New(Rectangle, pen, geom.Pt(1, 1)),                          // one point
		New(Rectangle, pen, geom.Pt(1, 1)).WithPoint(geom.Pt(1, 8)), // edge only, drawn
	}
	var rec recorder
	if n := Walk(strokes, &rec); n != 0 {
		t.Fatalf("walk skipped %d", n)
	}
	want := "freehand,circle,rectangle"
	if got := strings.Join(rec.calls, ","); got != want {
		t.Fatalf("calls = %s, want %s", got, want)
	}
}

func TestUnknownKindIsReported(t *testing.T) {
	bad := Stroke{kind: Kind(42), points: []geom.Point{{}, {}}}
	if err := bad.Accept(&recorder{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("accept err = %v", err)
	}
}

func TestWalkSkipsUndrawableStrokes(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	strokes := []Stroke{
		FromPoints(Kind(9), pen, []geom.Point{{}, {X: 1, Y: 1}}),
		FromPoints(Freehand, pen, []geom.Point{{}, {X: nan, Y: 1}}),
		FromPoints(Rectangle, paint.Pen(paint.Red, nan), []geom.Point{{}, {X: 4, Y: 4}}),
		FromPoints(Circle, pen, []geom.Point{{}, {X: inf, Y: 0}}),
		FromPoints(Freehand, pen, []geom.Point{{}, {X: 2, Y: 2}}),
	}
	var rec recorder
	if n := Walk(strokes, &rec); n != 4 {
		t.Fatalf("skipped %d, want 4", n)
	}
	if got := strings.Join(rec.calls, ","); got != "freehand" {
		t.Fatalf("calls = %s", got)
	}
	if err := strokes[1].Accept(&rec); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("nan accept err = %v", err)
	}
}

func TestJSONShape(t *testing.T) {
	s := New(Rectangle, paint.Pen(paint.White, 8), geom.Pt(1, 2)).WithPoint(geom.Pt(3, 4))
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"shape":"rectangle"`) || !strings.Contains(string(b), `"eraser":true`) {
		t.Fatalf("unexpected json %s", b)
	}
	var back Stroke
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind() != Rectangle || back.Len() != 2 || back.Paint().WidthPx != 8 {
		t.Fatalf("decoded %+v", back)
	}
	if err := json.Unmarshal([]byte(`{"shape":"hexagon","points":[]}`), &back); err == nil {
		t.Fatalf("expected error for unknown shape")
	}
}

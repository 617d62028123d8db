/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"image"
	"testing"
)

func TestBoundsIsDirectionIndependent(t *testing.T) {
	cases := []struct {
		name string
		a, b Point
	}{
		{"down-right", Pt(2, 2), Pt(5, 5)},
		{"up-left", Pt(5, 5), Pt(2, 2)},
		{"up-right", Pt(2, 5), Pt(5, 2)},
		{"down-left", Pt(5, 2), Pt(2, 5)},
	}
	want := Rect{Left: 2, Top: 2, Right: 5, Bottom: 5}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Bounds(tc.a, tc.b); got != want {
				t.Fatalf("Bounds(%v,%v) = %+v, want %+v", tc.a, tc.b, got, want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(Pt(0, 0), Pt(3, 4)); d != 5 {
		t.Fatalf("distance = %v, want 5", d)
	}
	if d := Distance(Pt(7, 7), Pt(7, 7)); d != 0 {
		t.Fatalf("distance to self = %v", d)
	}
}

func TestRectHelpers(t *testing.T) {
	r := Bounds(Pt(10, 20), Pt(0, 0))
	if r.Width() != 10 || r.Height() != 20 {
		t.Fatalf("unexpected size %vx%v", r.Width(), r.Height())
	}
	if !r.Contains(Pt(10, 20)) || r.Contains(Pt(11, 0)) {
		t.Fatalf("contains mismatch for %+v", r)
	}
	if !Bounds(Pt(1, 1), Pt(1, 9)).Empty() {
		t.Fatalf("zero-width rect should be empty")
	}
	if got := r.Outset(1.5).Image(); got != image.Rect(-2, -2, 12, 22) {
		t.Fatalf("image rect = %v", got)
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Fatalf("expected !ok for empty input")
	}
	r, ok := BoundsOf([]Point{Pt(3, 9), Pt(-1, 4), Pt(6, 2)})
	if !ok || r != (Rect{Left: -1, Top: 2, Right: 6, Bottom: 9}) {
		t.Fatalf("BoundsOf = %+v, %v", r, ok)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package capture turns pointer gestures into strokes.
//
// Machine owns the stroke list for one drawing session. Input handlers call
// Begin, Extend and End; renderers read Strokes, which returns a snapshot that
// stays valid while capture continues.
package capture

import (
	"sync"

	"paintify/internal/geom"
	"paintify/internal/paint"
	"paintify/internal/stroke"
)

// State of the gesture in progress.
type State uint8

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Machine is the stroke capture state machine. The zero value is ready to use.
type Machine struct {
	mu      sync.RWMutex
	state   State
	strokes []stroke.Stroke
}

// NewMachine returns an idle machine, optionally seeded with strokes
// (for example restored from an autosave).
func NewMachine(seed ...stroke.Stroke) *Machine {
	m := &Machine{}
	if len(seed) > 0 {
		m.strokes = append([]stroke.Stroke(nil), seed...)
	}
	return m
}

// Begin appends a new stroke starting at origin. A stroke still being dragged
// stays in the list as it is; the new one becomes the active stroke.
func (m *Machine) Begin(origin geom.Point, kind stroke.Kind, p paint.Params) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strokes = append(m.strokes, stroke.New(kind, p, origin))
	m.state = Dragging
}

// Extend appends pt to the active stroke. It is a no-op when no stroke is
// being dragged.
func (m *Machine) Extend(pt geom.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Dragging || len(m.strokes) == 0 {
		return
	}
	last := len(m.strokes) - 1
	m.strokes[last] = m.strokes[last].WithPoint(pt)
}

// End finishes the active stroke. Calling it again, or while idle, does nothing.
func (m *Machine) End() {
	m.mu.Lock()
	m.state = Idle
	m.mu.Unlock()
}

// Strokes returns the strokes in creation order. The slice is a fresh copy;
// the strokes themselves are immutable values.
func (m *Machine) Strokes() []stroke.Stroke {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]stroke.Stroke, len(m.strokes))
	copy(out, m.strokes)
	return out
}

// Clear discards every stroke and returns to Idle.
func (m *Machine) Clear() {
	m.mu.Lock()
	m.strokes = nil
	m.state = Idle
	m.mu.Unlock()
}

func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Machine) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.strokes)
}

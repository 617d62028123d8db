package ui

import (
	"path/filepath"
	"testing"

	"paintify/internal/config"
	"paintify/internal/document"
	"paintify/internal/geom"
	"paintify/internal/paint"
	"paintify/internal/stroke"
)

func TestShapeLabelsAndColors(t *testing.T) {
	got := shapeLabels()
	want := []string{"Freehand", "Circle", "Rectangle"}
	if len(got) != len(want) {
		t.Fatalf("labels = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels = %v", got)
		}
	}
	cc := colorChoices()
	if len(cc) != 4 || cc[3].Label != "Eraser" || cc[3].Color != paint.White {
		t.Fatalf("colors = %+v", cc)
	}
}

func TestNewSessionFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Canvas.Shape = "rectangle"
	cfg.Canvas.Color = "red"
	cfg.Canvas.PenWidth = 500
	s, w, h, err := newSession(Options{Config: cfg})
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if w != 1080 || h != 1920 {
		t.Fatalf("size %dx%d", w, h)
	}
	tool := s.Tool()
	if tool.Shape != stroke.Rectangle || tool.Color != paint.Red || tool.Width != paint.MaxWidth {
		t.Fatalf("tool = %+v", tool)
	}
}

func TestNewSessionBadToolKeepsDefaults(t *testing.T) {
	cfg := config.Defaults()
	cfg.Canvas.Shape = "hexagon"
	s, _, _, err := newSession(Options{Config: cfg})
	if err == nil {
		t.Fatalf("expected config error")
	}
	if s == nil || s.Tool().Shape != stroke.Circle {
		t.Fatalf("session should fall back to defaults")
	}
}

func TestNewSessionReopensDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autosave.json")
	strokes := []stroke.Stroke{
		stroke.FromPoints(stroke.Freehand, paint.Pen(paint.Blue, 3), []geom.Point{geom.Pt(1, 1), geom.Pt(5, 5)}),
	}
	if err := document.Save(path, document.New(64, 48, strokes)); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, w, h, err := newSession(Options{Config: config.Defaults(), Document: path})
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if w != 64 || h != 48 || s.Len() != 1 {
		t.Fatalf("got %dx%d with %d strokes", w, h, s.Len())
	}
	if _, _, _, err := newSession(Options{Config: config.Defaults(), Document: path + ".missing"}); err == nil {
		t.Fatalf("expected error for missing document")
	}
}

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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fynestorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"paintify/internal/crash"
	"paintify/internal/document"
	"paintify/internal/drawing"
	"paintify/internal/export"
	applog "paintify/internal/log"
	"paintify/internal/storage"
	"paintify/internal/stroke"
)

// Run opens the drawing window and blocks until it is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	session, docW, docH, err := newSession(opts)
	if session == nil {
		return err
	}
	if err != nil {
		l.Warn("using default tool", slog.Any("err", err))
	}
	defer crash.Recover(filepath.Join(opts.Config.Library.Root, "crash"), func() document.Document {
		return document.New(docW, docH, session.Strokes())
	})

	ctx := context.Background()
	ws, err := drawing.Open(ctx, opts.Config, opts.Token)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ws.Close(cctx); err != nil {
			l.Warn("close library", slog.Any("err", err))
		}
	}()

	fyneApp := app.NewWithID("paintify")
	w := fyneApp.NewWindow("Paintify")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 540), 360)
	winH := max(prefs.IntWithFallback("window.height", 960), 480)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	pc := NewPaintCanvas(session, docW, docH)
	pc.OnChange = func() { status.SetText(fmt.Sprintf("%d strokes", session.Len())) }

	// Tool selection
	labels := shapeLabels()
	shapeSel := widget.NewSelect(labels, func(s string) {
		for i, lb := range labels {
			if lb == s {
				session.SetShape(stroke.Kinds[i])
			}
		}
	})
	shapeSel.SetSelected(labels[int(session.Tool().Shape)])

	colorBox := container.NewHBox()
	for _, cc := range colorChoices() {
		colorBox.Add(widget.NewButton(cc.Label, func() {
			session.SetColor(cc.Color)
			status.SetText(cc.Label)
		}))
	}

	widthLabel := widget.NewLabel("")
	widthSlider := widget.NewSlider(1, 64)
	widthSlider.Step = 1
	widthSlider.OnChanged = func(v float64) {
		session.SetWidth(float32(v))
		widthLabel.SetText(fmt.Sprintf("%.0f px", v))
	}
	widthSlider.SetValue(float64(session.Tool().Width))

	saveDrawing := func() {
		name := widget.NewEntry()
		name.SetPlaceHolder(storage.DefaultName)
		dialog.ShowForm("Save Drawing", "Save", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", name),
		}, func(ok bool) {
			if !ok {
				return
			}
			d, err := ws.Repo.Save(ctx, drawing.SaveRequest{
				Name:       name.Text,
				Strokes:    session.Strokes(),
				Background: pc.Background(),
				Width:      docW,
				Height:     docH,
			})
			if errors.Is(err, drawing.ErrEmptyDrawing) {
				dialog.ShowInformation("Save Drawing", "Draw something first.", w)
				return
			}
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Saved " + filepath.Base(d.FilePath))
		}, w)
	}

	importBackground := func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			_ = rc.Close()
			_, img, err := ws.Library.Import(rc.URI().Path())
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			pc.SetBackground(img)
			status.SetText("Background " + rc.URI().Name())
		}, w)
		fd.SetFilter(fynestorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}))
		fd.Show()
	}

	exportDrawing := func() {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if wc == nil {
				return
			}
			_ = wc.Close()
			c := export.Canvas{Strokes: session.Strokes(), Width: docW, Height: docH, Background: pc.Background()}
			if err := export.ToFile(wc.URI().Path(), c); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + wc.URI().Name())
		}, w)
		fd.SetFileName("drawing.png")
		fd.SetFilter(fynestorage.NewExtensionFileFilter([]string{".png", ".pdf", ".svg"}))
		fd.Show()
	}

	clearCanvas := func() {
		if session.Len() == 0 && pc.Background() == nil {
			return
		}
		dialog.ShowConfirm("Clear", "Discard the current drawing?", func(ok bool) {
			if ok {
				pc.Clear()
			}
		}, w)
	}

	toolbar := container.NewVBox(
		container.NewHBox(
			widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), saveDrawing),
			widget.NewButtonWithIcon("Background", theme.FileImageIcon(), importBackground),
			widget.NewButtonWithIcon("Gallery", theme.GridIcon(), func() { showGallery(ctx, ws, w) }),
			widget.NewButtonWithIcon("Export", theme.UploadIcon(), exportDrawing),
			widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), clearCanvas),
		),
		container.NewHBox(shapeSel, colorBox),
		container.NewBorder(nil, nil, widget.NewLabel("Width"), widthLabel, widthSlider),
	)
	if ws.Client != nil {
		toolbar.Add(widget.NewButtonWithIcon("Shared with me", theme.MailComposeIcon(), func() { showShared(ctx, ws, pc, status, w) }))
	}

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, pc))

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		saveDrawing()
	})
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

// showGallery lists saved drawings with a preview and rename/delete actions.
func showGallery(ctx context.Context, ws *drawing.Workspace, w fyne.Window) {
	drawings, err := ws.Repo.List(ctx)
	if err != nil {
		dialog.ShowError(err, w)
		return
	}
	if len(drawings) == 0 {
		dialog.ShowInformation("Gallery", "No drawings saved yet.", w)
		return
	}

	preview := canvas.NewImageFromResource(nil)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(160, 280))
	selected := -1

	list := widget.NewList(
		func() int { return len(drawings) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			d := drawings[id]
			o.(*widget.Label).SetText(fmt.Sprintf("%s  (%s)", d.Name, d.CreatedAt.Local().Format("2006-01-02 15:04")))
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		selected = id
		thumb, err := ws.Repo.Thumbnail(ctx, drawings[id].ID, 320)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		preview.Resource = fyne.NewStaticResource(fmt.Sprintf("thumb-%d.png", drawings[id].ID), thumb)
		preview.Refresh()
	}

	rename := widget.NewButton("Rename", func() {
		if selected < 0 {
			return
		}
		entry := widget.NewEntry()
		entry.SetText(drawings[selected].Name)
		dialog.ShowForm("Rename", "Rename", "Cancel", []*widget.FormItem{widget.NewFormItem("Name", entry)}, func(ok bool) {
			if !ok {
				return
			}
			d, err := ws.Repo.Rename(ctx, drawings[selected].ID, entry.Text)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			drawings[selected] = d
			list.RefreshItem(selected)
		}, w)
	})
	remove := widget.NewButton("Delete", func() {
		if selected < 0 {
			return
		}
		dialog.ShowConfirm("Delete", "Delete "+drawings[selected].Name+" and its file?", func(ok bool) {
			if !ok {
				return
			}
			if err := ws.Repo.Delete(ctx, drawings[selected].ID, true); err != nil {
				dialog.ShowError(err, w)
				return
			}
			drawings = append(drawings[:selected], drawings[selected+1:]...)
			selected = -1
			list.UnselectAll()
			preview.Resource = nil
			preview.Refresh()
			list.Refresh()
		}, w)
	})

	content := container.NewBorder(nil, container.NewHBox(rename, remove), nil, preview, list)
	d := dialog.NewCustom("Gallery", "Close", content, w)
	d.Resize(fyne.NewSize(640, 480))
	d.Show()
}

// showShared lists drawings other users shared with the signed-in account.
// Edit downloads the selected one into the library and draws over it.
func showShared(ctx context.Context, ws *drawing.Workspace, pc *PaintCanvas, status *widget.Label, w fyne.Window) {
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	shares, err := ws.Client.SharedWith(cctx, "")
	if err != nil {
		dialog.ShowError(err, w)
		return
	}
	if len(shares) == 0 {
		dialog.ShowInformation("Shared with me", "Nothing shared with you yet.", w)
		return
	}
	selected := -1
	list := widget.NewList(
		func() int { return len(shares) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			s := shares[id]
			o.(*widget.Label).SetText(fmt.Sprintf("%s from %s", s.Title, s.SenderID))
		},
	)
	var d dialog.Dialog
	edit := widget.NewButtonWithIcon("Edit in canvas", theme.DocumentCreateIcon(), func() {
		if selected < 0 {
			return
		}
		s := shares[selected]
		fctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		_, img, err := ws.ImportShared(fctx, s.ImageURL, s.Title)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		pc.SetBackground(img)
		status.SetText("Editing " + s.Title)
		d.Hide()
	})
	edit.Disable()
	list.OnSelected = func(id widget.ListItemID) {
		selected = id
		edit.Enable()
	}
	d = dialog.NewCustom("Shared with me", "Close", container.NewBorder(nil, edit, nil, nil, list), w)
	d.Resize(fyne.NewSize(480, 360))
	d.Show()
}

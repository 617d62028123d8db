/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"paintify/internal/document"
	"paintify/internal/drawing"
	"paintify/internal/export"
	"paintify/internal/storage"
	"paintify/internal/ui"
)

// loadCanvas reads a stroke document and its background. An explicit
// background path wins over the one recorded in the document.
func loadCanvas(docPath, bgPath string) (export.Canvas, error) {
	doc, err := document.Load(docPath)
	if err != nil {
		return export.Canvas{}, err
	}
	if bgPath == "" {
		bgPath = doc.Background
	}
	var bg image.Image
	if bgPath != "" {
		if bg, err = storage.DecodeImage(bgPath); err != nil {
			return export.Canvas{}, fmt.Errorf("background: %w", err)
		}
	}
	return export.Canvas{Strokes: doc.Strokes, Width: doc.Width, Height: doc.Height, Background: bg}, nil
}

func optArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func exportAs(e *env, args []string, f export.Format, what string, withBackground bool) error {
	hi := 2
	if withBackground {
		hi = 3
	}
	if err := need(args, 2, hi, what); err != nil {
		return err
	}
	c, err := loadCanvas(args[0], optArg(args, 2))
	if err != nil {
		return err
	}
	out, _ := filepath.Abs(args[1])
	if err := export.ToFileAs(out, f, c); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(e.out, "Wrote", out)
	return nil
}

func cmdRender(e *env, args []string) error {
	return exportAs(e, args, export.FormatPNG, "<doc.json> <out.png> [background]", true)
}

func cmdExportPDF(e *env, args []string) error {
	return exportAs(e, args, export.FormatPDF, "<doc.json> <out.pdf> [background]", true)
}

func cmdExportSVG(e *env, args []string) error {
	return exportAs(e, args, export.FormatSVG, "<doc.json> <out.svg>", false)
}

func cmdBatch(e *env, args []string) error {
	if err := need(args, 2, 3, "<doc.json> <dir> [web|print]"); err != nil {
		return err
	}
	c, err := loadCanvas(args[0], "")
	if err != nil {
		return err
	}
	preset := export.PresetName(strings.ToLower(optArg(args, 2)))
	if preset == "" {
		preset = export.PresetWeb
	}
	base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	paths, err := export.Batch(args[1], base, c, preset)
	for _, p := range paths {
		_, _ = fmt.Fprintln(e.out, "Wrote", p)
	}
	return err
}

// openLibrary opens the workspace rooted at root with the user's cloud settings.
func openLibrary(e *env, root string) (*drawing.Workspace, func(), error) {
	cfg := e.cfg
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	cfg.Library.Root = abs
	ws, err := drawing.Open(context.Background(), cfg, e.token)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Cloud.Timeout())
		defer cancel()
		_ = ws.Close(ctx)
	}
	return ws, closeFn, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errUsage, s)
	}
	return id, nil
}

func cmdSave(e *env, args []string) error {
	if err := need(args, 3, 4, "<library> <doc.json> <name> [background]"); err != nil {
		return err
	}
	c, err := loadCanvas(args[1], optArg(args, 3))
	if err != nil {
		return err
	}
	ws, done, err := openLibrary(e, args[0])
	if err != nil {
		return err
	}
	defer done()
	d, err := ws.Repo.Save(context.Background(), drawing.SaveRequest{
		Name:       args[2],
		Strokes:    c.Strokes,
		Background: c.Background,
		Width:      c.Width,
		Height:     c.Height,
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Saved drawing %d (%s) to %s\n", d.ID, d.Name, d.FilePath)
	return nil
}

func cmdList(e *env, args []string) error {
	if err := need(args, 1, 1, "<library>"); err != nil {
		return err
	}
	ws, done, err := openLibrary(e, args[0])
	if err != nil {
		return err
	}
	defer done()
	list, err := ws.Repo.List(context.Background())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSIZE\tCREATED\tFILE")
	for _, d := range list {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%dx%d\t%s\t%s\n", d.ID, d.Name, d.WidthPx, d.HeightPx,
			d.CreatedAt.Local().Format(time.DateTime), filepath.Base(d.FilePath))
	}
	return tw.Flush()
}

func cmdRename(e *env, args []string) error {
	if err := need(args, 3, 3, "<library> <id> <name>"); err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	ws, done, err := openLibrary(e, args[0])
	if err != nil {
		return err
	}
	defer done()
	d, err := ws.Repo.Rename(context.Background(), id, args[2])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Renamed drawing %d to %s\n", d.ID, d.Name)
	return nil
}

func cmdDelete(e *env, args []string) error {
	if err := need(args, 2, 3, "<library> <id> [--files]"); err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	withFiles := false
	if f := optArg(args, 2); f != "" {
		if f != "--files" {
			return fmt.Errorf("%w: unknown flag %q", errUsage, f)
		}
		withFiles = true
	}
	ws, done, err := openLibrary(e, args[0])
	if err != nil {
		return err
	}
	defer done()
	if err := ws.Repo.Delete(context.Background(), id, withFiles); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Deleted drawing %d\n", id)
	return nil
}

func cmdThumb(e *env, args []string) error {
	if err := need(args, 3, 4, "<library> <id> <out.png> [max-px]"); err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	maxPx := 256
	if s := optArg(args, 3); s != "" {
		if maxPx, err = strconv.Atoi(s); err != nil || maxPx <= 0 {
			return fmt.Errorf("%w: invalid max-px %q", errUsage, s)
		}
	}
	ws, done, err := openLibrary(e, args[0])
	if err != nil {
		return err
	}
	defer done()
	data, err := ws.Repo.Thumbnail(context.Background(), id, maxPx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[2], data, 0o644); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(e.out, "Wrote", args[2])
	return nil
}

func cmdReindex(e *env, args []string) error {
	if err := need(args, 1, 1, "<library>"); err != nil {
		return err
	}
	ws, done, err := openLibrary(e, args[0])
	if err != nil {
		return err
	}
	defer done()
	n, err := ws.Library.Reindex(context.Background())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Indexed %d new drawings\n", n)
	return nil
}

func cmdGallery(e *env, args []string) error {
	if err := need(args, 2, 3, "<library> <out.cbz> [title]"); err != nil {
		return err
	}
	ws, done, err := openLibrary(e, args[0])
	if err != nil {
		return err
	}
	defer done()
	list, err := ws.Repo.List(context.Background())
	if err != nil {
		return err
	}
	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := export.Gallery(f, optArg(args, 2), list); err != nil {
		_ = f.Close()
		_ = os.Remove(args[1])
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(e.out, "Wrote %s (%d pages)\n", args[1], len(list))
	return nil
}

func cmdUI(e *env, args []string) error {
	if err := need(args, 0, 1, "[<library>|<autosave.json>]"); err != nil {
		return err
	}
	opts := ui.Options{Config: e.cfg, Token: e.token}
	if p := optArg(args, 0); p != "" {
		abs, _ := filepath.Abs(p)
		if strings.EqualFold(filepath.Ext(abs), ".json") {
			opts.Document = abs
		} else {
			opts.Config.Library.Root = abs
		}
	}
	return ui.Run(opts)
}

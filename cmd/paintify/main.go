/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"paintify/internal/config"
	"paintify/internal/crash"
	applog "paintify/internal/log"
	"paintify/internal/version"
)

// errUsage makes run print the usage text and exit with code 2.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Paintify: touch drawing canvas")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  paintify version|-v|--version                          Show version")
	_, _ = fmt.Fprintln(w, "  paintify render <doc.json> <out.png> [background]      Rasterize a stroke document")
	_, _ = fmt.Fprintln(w, "  paintify export-pdf <doc.json> <out.pdf> [background]  Export a stroke document as PDF")
	_, _ = fmt.Fprintln(w, "  paintify export-svg <doc.json> <out.svg>               Export a stroke document as SVG")
	_, _ = fmt.Fprintln(w, "  paintify batch <doc.json> <dir> [web|print]            Export with a preset")
	_, _ = fmt.Fprintln(w, "  paintify save <library> <doc.json> <name> [background] Save a document into the library")
	_, _ = fmt.Fprintln(w, "  paintify list <library>                                List saved drawings")
	_, _ = fmt.Fprintln(w, "  paintify rename <library> <id> <name>                  Rename a drawing")
	_, _ = fmt.Fprintln(w, "  paintify delete <library> <id> [--files]               Delete a drawing (and its file)")
	_, _ = fmt.Fprintln(w, "  paintify thumb <library> <id> <out.png> [max-px]       Write a thumbnail")
	_, _ = fmt.Fprintln(w, "  paintify reindex <library>                             Rebuild metadata from the pictures folder")
	_, _ = fmt.Fprintln(w, "  paintify gallery <library> <out.cbz> [title]           Pack all drawings into a CBZ")
	_, _ = fmt.Fprintln(w, "  paintify serve                                         Run the cloud API (needs PAINTIFY_PG_DSN)")
	_, _ = fmt.Fprintln(w, "  paintify login <user-id> <email>                       Request and store a cloud token")
	_, _ = fmt.Fprintln(w, "  paintify cloud-list                                    List your uploaded drawings")
	_, _ = fmt.Fprintln(w, "  paintify share <image-url> <email> [title]             Share an uploaded drawing")
	_, _ = fmt.Fprintln(w, "  paintify shared [email]                                List drawings shared with you")
	_, _ = fmt.Fprintln(w, "  paintify unshare <image-url>                           Withdraw your shares of an image")
	_, _ = fmt.Fprintln(w, "  paintify ui [<library>|<autosave.json>]                Launch desktop UI (build with -tags fyne)")
}

// env is what every command gets: loaded config, stored token and output.
type env struct {
	cfg   config.AppConfig
	token string
	out   io.Writer
	lg    *slog.Logger
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"render":     cmdRender,
	"export-pdf": cmdExportPDF,
	"export-svg": cmdExportSVG,
	"batch":      cmdBatch,
	"save":       cmdSave,
	"list":       cmdList,
	"rename":     cmdRename,
	"delete":     cmdDelete,
	"thumb":      cmdThumb,
	"reindex":    cmdReindex,
	"gallery":    cmdGallery,
	"serve":      cmdServe,
	"login":      cmdLogin,
	"cloud-list": cmdCloudList,
	"share":      cmdShare,
	"shared":     cmdShared,
	"unshare":    cmdUnshare,
	"ui":         cmdUI,
}

func main() {
	cfg, token, err := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if err != nil {
		l.Warn("config not loaded; using defaults", slog.Any("err", err))
	}
	defer crash.Recover(filepath.Join(cfg.Library.Root, "crash"), nil)

	l.Debug("start", slog.Int("args", len(os.Args)))
	os.Exit(run(&env{cfg: cfg, token: token, out: os.Stdout, lg: l}, os.Args[1:]))
}

// run dispatches one command and returns the process exit code.
func run(e *env, args []string) int {
	if len(args) == 0 {
		usage(e.out)
		return 2
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(e.out, "Paintify")
		_, _ = fmt.Fprintln(e.out, version.String())
		return 0
	case "help", "--help", "-h":
		usage(e.out)
		return 0
	}
	cmd, ok := commands[args[0]]
	if !ok {
		_, _ = fmt.Fprintf(e.out, "unknown command %q\n", args[0])
		usage(e.out)
		return 2
	}
	if err := cmd(e, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			_, _ = fmt.Fprintln(e.out, err)
			usage(e.out)
			return 2
		}
		e.lg.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(e.out, "Error:", err)
		return 1
	}
	return 0
}

// need checks the positional argument count.
func need(args []string, lo, hi int, what string) error {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return fmt.Errorf("%w: expected %s", errUsage, what)
	}
	return nil
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drawing

import (
	"context"
	"log/slog"

	"paintify/internal/cloud"
	"paintify/internal/config"
	applog "paintify/internal/log"
	"paintify/internal/storage"
)

// Workspace is an opened library with its repository and, when cloud sync
// is enabled, the upload mirror and API client.
type Workspace struct {
	Library *storage.Library
	Repo    *Repository
	Mirror  *cloud.Mirror // nil when cloud sync is off
	Client  *cloud.Client // nil when cloud sync is off
}

// Open checks and opens the library configured in cfg. The mirror is started
// only when cloud sync is enabled and a token is present.
func Open(ctx context.Context, cfg config.AppConfig, token string) (*Workspace, error) {
	lg := applog.WithComponent("drawing")
	lib, rebuilt, err := storage.CheckAndRepair(ctx, cfg.Library.Root)
	if err != nil {
		return nil, err
	}
	if rebuilt {
		lg.Warn("library index rebuilt", slog.String("root", lib.Root()))
	}
	ws := &Workspace{Library: lib}
	var mirror Mirror
	if cfg.Cloud.Enabled {
		if token == "" {
			lg.Warn("cloud sync enabled but no token stored; uploads disabled")
		} else {
			ws.Client = cloud.NewClient(cfg.Cloud.BaseURL, token, cfg.Cloud.Timeout())
			ws.Mirror = cloud.NewMirror(ws.Client, cfg.Cloud.QueueSize, cfg.Cloud.Timeout())
			mirror = ws.Mirror
		}
	}
	ws.Repo = NewRepository(lib, mirror, cfg.Cloud.UserID)
	return ws, nil
}

// Close drains pending uploads until ctx ends, then closes everything.
func (ws *Workspace) Close(ctx context.Context) error {
	if ws.Mirror != nil {
		if err := ws.Mirror.Flush(ctx); err != nil {
			applog.WithComponent("drawing").Warn("uploads still pending at exit", slog.Int("pending", ws.Mirror.Pending()))
		}
		ws.Mirror.Close()
	}
	return ws.Library.Close()
}

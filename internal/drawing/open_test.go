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
	"testing"
	"time"

	"paintify/internal/config"
)

func TestOpenWorkspace(t *testing.T) {
	cfg := config.Defaults()
	cfg.Library.Root = t.TempDir()
	ctx := context.Background()

	ws, err := Open(ctx, cfg, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if ws.Mirror != nil || ws.Client != nil {
		t.Fatalf("cloud should be off by default")
	}
	if err := ws.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.Cloud.Enabled = true
	ws, err = Open(ctx, cfg, "")
	if err != nil {
		t.Fatalf("open without token: %v", err)
	}
	if ws.Mirror != nil {
		t.Fatalf("mirror started without a token")
	}
	_ = ws.Close(ctx)

	ws, err = Open(ctx, cfg, "tok")
	if err != nil {
		t.Fatalf("open with token: %v", err)
	}
	if ws.Mirror == nil || ws.Client == nil {
		t.Fatalf("expected mirror and client")
	}
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := ws.Close(cctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestEnvOverridesCloudURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvCloudURL, "https://example.test:8443/")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Cloud.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Cloud.BaseURL = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("cloud.base_url"); !ok || name != EnvCloudURL {
		t.Fatalf("EnvOverrideFor = %q, %v", name, ok)
	}
}

func TestEnvOverridesCloudEnabled(t *testing.T) {
	isolate(t)
	t.Setenv(EnvCloudEnabled, "yes")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Cloud.Enabled {
		t.Fatalf("Cloud.Enabled expected true from env override")
	}
}

func TestMergeIncludesCanvas(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Canvas: CanvasConfig{Width: 640, PenWidth: 4, Shape: " Freehand "}}
	mergeInto(&dst, &src)
	if dst.Canvas.Width != 640 || dst.Canvas.Height != Defaults().Canvas.Height {
		t.Fatalf("canvas size not merged: %#v", dst.Canvas)
	}
	if dst.Canvas.PenWidth != 4 || dst.Canvas.Shape != "freehand" || dst.Canvas.Color != "black" {
		t.Fatalf("canvas tool not merged: %#v", dst.Canvas)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/paintify.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/paintify.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/paintify.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/paintify.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveAndLoadRoundTripWithToken(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.Library.Root = "/data/drawings"
	cfg.Cloud.UserID = "u-1"
	if err := Save(cfg, "tok-123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Library.Root != "/data/drawings" || got.Cloud.UserID != "u-1" {
		t.Fatalf("loaded %#v", got)
	}
	if tok != "tok-123" {
		t.Fatalf("token = %q", tok)
	}
}

func TestServerSecretPrefersEnv(t *testing.T) {
	isolate(t)
	if err := SetServerSecret("from-keyring"); err != nil {
		t.Fatalf("SetServerSecret: %v", err)
	}
	if s := ServerSecret(); s != "from-keyring" {
		t.Fatalf("secret = %q", s)
	}
	t.Setenv(EnvCloudSecret, "from-env")
	if s := ServerSecret(); s != "from-env" {
		t.Fatalf("secret = %q", s)
	}
}

func TestCloudTimeoutDefault(t *testing.T) {
	if d := (CloudConfig{}).Timeout(); d != 15*time.Second {
		t.Fatalf("timeout = %v", d)
	}
	if d := (CloudConfig{TimeoutMs: 250}).Timeout(); d != 250*time.Millisecond {
		t.Fatalf("timeout = %v", d)
	}
}

func TestSetTokenAndRemove(t *testing.T) {
	isolate(t)
	if err := SetToken("abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, tok, _ := Load(); tok != "abc" {
		t.Fatalf("token = %q", tok)
	}
	if err := SetToken(""); err != nil {
		t.Fatalf("remove token: %v", err)
	}
	if _, tok, _ := Load(); tok != "" {
		t.Fatalf("token after remove = %q", tok)
	}
}

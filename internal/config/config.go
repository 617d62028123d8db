/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user paintify settings. The drawing core takes
// no configuration; these values feed the library, the cloud mirror, the UI
// defaults and logging.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type CanvasConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	PenWidth float32 `yaml:"pen_width"`
	Shape    string  `yaml:"shape"` // freehand | circle | rectangle
	Color    string  `yaml:"color"` // palette name or #rrggbb
}

type LibraryConfig struct {
	Root string `yaml:"root"`
}

type CloudConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DSN           string `yaml:"dsn"`
	Addr          string `yaml:"addr"`
	PublicBaseURL string `yaml:"public_base_url"`
	BaseURL       string `yaml:"base_url"`
	UserID        string `yaml:"user_id"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	QueueSize     int    `yaml:"queue_size"`
	// The bearer token and the server signing secret live in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Library       LibraryConfig `yaml:"library"`
	Cloud         CloudConfig   `yaml:"cloud"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Canvas:        CanvasConfig{Width: 1080, Height: 1920, PenWidth: 12, Shape: "circle", Color: "black"},
		Library:       LibraryConfig{Root: defaultLibraryRoot()},
		Cloud: CloudConfig{
			Addr:          ":8080",
			PublicBaseURL: "http://localhost:8080",
			BaseURL:       "http://localhost:8080",
			TimeoutMs:     15000,
			QueueSize:     32,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "PAINTIFY_CONFIG"
	EnvLibraryRoot   = "PAINTIFY_LIBRARY"
	EnvCloudEnabled  = "PAINTIFY_CLOUD_ENABLED"
	EnvCloudDSN      = "PAINTIFY_PG_DSN"
	EnvCloudAddr     = "PAINTIFY_CLOUD_ADDR"
	EnvCloudURL      = "PAINTIFY_CLOUD_URL"
	EnvCloudUser     = "PAINTIFY_CLOUD_USER"
	EnvCloudTimeout  = "PAINTIFY_CLOUD_TIMEOUT_MS"
	EnvCloudSecret   = "PAINTIFY_AUTH_SECRET"
	EnvCanvasWidth   = "PAINTIFY_CANVAS_WIDTH"
	EnvCanvasHeight  = "PAINTIFY_CANVAS_HEIGHT"
	EnvLogLevel      = "PAINTIFY_LOG_LEVEL"
	EnvLogFormat     = "PAINTIFY_LOG_FORMAT"
	EnvLogSource     = "PAINTIFY_LOG_SOURCE"
	EnvLogFile       = "PAINTIFY_LOG_FILE"
	defaultDirName   = "paintify"
	configFileName   = "config.yaml"
	keyringService   = "Paintify"
	keyringToken     = "cloud_token"
	keyringSecretKey = "auth_secret"
)

// tokenStore abstracts the keyring so tests can stub it.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetTokenStore replaces the keyring backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// osKeyring implements TokenStore with the OS keychain (see keyring.go).
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) { return keyringGet(service, key) }
func (k *osKeyring) Set(service, key, value string) error    { return keyringSet(service, key, value) }
func (k *osKeyring) Delete(service, key string) error        { return keyringDelete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configFileName), nil
}

func userDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Paintify")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Paintify")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, defaultDirName)
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", defaultDirName)
		}
	}
	if base == "" || base == defaultDirName {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

func defaultLibraryRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "paintify")
	}
	return filepath.Join(home, "Pictures", "Paintify")
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. The cloud bearer token is read from the keychain and
// returned separately so it never ends up in the YAML.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the keychain (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// SetToken stores the cloud bearer token in the keychain; empty removes it.
func SetToken(token string) error {
	if token == "" {
		return tokenStore.Delete(keyringService, keyringToken)
	}
	return tokenStore.Set(keyringService, keyringToken, token)
}

// ServerSecret returns the HMAC secret used by the cloud API to sign bearer
// tokens. The environment wins over the keychain.
func ServerSecret() string {
	if v := strings.TrimSpace(os.Getenv(EnvCloudSecret)); v != "" {
		return v
	}
	v, _ := tokenStore.Get(keyringService, keyringSecretKey)
	return v
}

// SetServerSecret stores the signing secret in the keychain.
func SetServerSecret(secret string) error {
	if secret == "" {
		return tokenStore.Delete(keyringService, keyringSecretKey)
	}
	return tokenStore.Set(keyringService, keyringSecretKey, secret)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// canvas
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if src.Canvas.PenWidth > 0 {
		dst.Canvas.PenWidth = src.Canvas.PenWidth
	}
	if s := strings.ToLower(strings.TrimSpace(src.Canvas.Shape)); s != "" {
		dst.Canvas.Shape = s
	}
	if s := strings.TrimSpace(src.Canvas.Color); s != "" {
		dst.Canvas.Color = s
	}
	if s := strings.TrimSpace(src.Library.Root); s != "" {
		dst.Library.Root = s
	}
	// cloud; booleans copy straight from the file so user preferences persist
	dst.Cloud.Enabled = src.Cloud.Enabled
	if src.Cloud.DSN != "" {
		dst.Cloud.DSN = src.Cloud.DSN
	}
	if src.Cloud.Addr != "" {
		dst.Cloud.Addr = src.Cloud.Addr
	}
	if src.Cloud.PublicBaseURL != "" {
		dst.Cloud.PublicBaseURL = strings.TrimRight(src.Cloud.PublicBaseURL, "/")
	}
	if src.Cloud.BaseURL != "" {
		dst.Cloud.BaseURL = strings.TrimRight(src.Cloud.BaseURL, "/")
	}
	if src.Cloud.UserID != "" {
		dst.Cloud.UserID = src.Cloud.UserID
	}
	if src.Cloud.TimeoutMs != 0 {
		dst.Cloud.TimeoutMs = src.Cloud.TimeoutMs
	}
	if src.Cloud.QueueSize > 0 {
		dst.Cloud.QueueSize = src.Cloud.QueueSize
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvLibraryRoot)); v != "" {
		cfg.Library.Root = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvasWidth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Canvas.Width = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCanvasHeight)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Canvas.Height = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudEnabled)); v != "" {
		cfg.Cloud.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudDSN)); v != "" {
		cfg.Cloud.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudAddr)); v != "" {
		cfg.Cloud.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudURL)); v != "" {
		cfg.Cloud.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudUser)); v != "" {
		cfg.Cloud.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCloudTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cloud.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"library.root":     EnvLibraryRoot,
	"canvas.width":     EnvCanvasWidth,
	"canvas.height":    EnvCanvasHeight,
	"cloud.enabled":    EnvCloudEnabled,
	"cloud.dsn":        EnvCloudDSN,
	"cloud.addr":       EnvCloudAddr,
	"cloud.base_url":   EnvCloudURL,
	"cloud.user_id":    EnvCloudUser,
	"cloud.timeout_ms": EnvCloudTimeout,
	"logging.level":    EnvLogLevel,
	"logging.format":   EnvLogFormat,
	"logging.source":   EnvLogSource,
	"logging.file":     EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the cloud request timeout, falling back to the default.
func (c CloudConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return time.Duration(Defaults().Cloud.TimeoutMs) * time.Millisecond
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

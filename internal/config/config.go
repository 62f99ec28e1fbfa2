/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user YAML configuration and the generation
// service credential. Environment variables override file values at runtime
// and are never written back.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is written as config_version; bump it on incompatible changes.
const CurrentVersion = 1

type UIConfig struct {
	Theme        string `yaml:"theme"` // "system" | "light" | "dark"
	LastProject  string `yaml:"last_project"`
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
}

type ExportConfig struct {
	OutDir   string  `yaml:"out_dir"`
	Scale    float64 `yaml:"scale"`
	SettleMs int     `yaml:"settle_ms"`
	Preset   string  `yaml:"preset"`
}

type GenerateConfig struct {
	Provider       string `yaml:"provider"` // "gemini" | "anthropic"
	Model          string `yaml:"model"`
	Language       string `yaml:"language"` // "en" | "ar"
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	// The API key is not stored on disk; it lives in the OS keychain.
}

type RenderConfig struct {
	FontPath            string `yaml:"font_path"`
	BoldFontPath        string `yaml:"bold_font_path"`
	ImageTimeoutSeconds int    `yaml:"image_timeout_seconds"`
}

type StorageConfig struct {
	HistoryEnabled bool   `yaml:"history_enabled"`
	HistoryKeep    int    `yaml:"history_keep"`
	PostgresDSN    string `yaml:"postgres_dsn"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	UI            UIConfig        `yaml:"ui"`
	Export        ExportConfig    `yaml:"export"`
	Generate      GenerateConfig  `yaml:"generate"`
	Render        RenderConfig    `yaml:"render"`
	Storage       StorageConfig   `yaml:"storage"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: CurrentVersion,
		UI:            UIConfig{Theme: "system", WindowWidth: 1280, WindowHeight: 900},
		Export:        ExportConfig{OutDir: "", Scale: 2.5, SettleMs: 600, Preset: "hires"},
		Generate: GenerateConfig{
			Provider:       "gemini",
			Model:          "gemini-3-flash-preview",
			Language:       "en",
			TimeoutSeconds: 60,
			MaxRetries:     2,
		},
		Render:    RenderConfig{ImageTimeoutSeconds: 10},
		Storage:   StorageConfig{HistoryEnabled: true, HistoryKeep: 50},
		Telemetry: TelemetryConfig{Enabled: false},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir       = "IFS_CONFIG_DIR"
	EnvExportDir       = "IFS_EXPORT_DIR"
	EnvExportScale     = "IFS_EXPORT_SCALE"
	EnvExportSettleMs  = "IFS_EXPORT_SETTLE_MS"
	EnvGenProvider     = "IFS_GENERATE_PROVIDER"
	EnvGenModel        = "IFS_GENERATE_MODEL"
	EnvGenLanguage     = "IFS_GENERATE_LANGUAGE"
	EnvGenEndpoint     = "IFS_GENERATE_ENDPOINT"
	EnvFontPath        = "IFS_FONT_PATH"
	EnvPostgresDSN     = "IFS_PG_DSN"
	EnvHistoryEnabled  = "IFS_HISTORY"
	EnvTelemetryOptIn  = "IFS_TELEMETRY_OPT_IN"
	EnvTelemetryTarget = "IFS_TELEMETRY_ENDPOINT"
	EnvLogLevel        = "IFS_LOG_LEVEL"
	EnvLogFormat       = "IFS_LOG_FORMAT"
	EnvLogSource       = "IFS_LOG_SOURCE"
	EnvLogFile         = "IFS_LOG_FILE"

	// Credential variables, checked in this order.
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvAPIKey       = "API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// overrides maps dotted config keys to the env var that overrides them.
var overrides = map[string]string{
	"export.out_dir":          EnvExportDir,
	"export.scale":            EnvExportScale,
	"export.settle_ms":        EnvExportSettleMs,
	"generate.provider":       EnvGenProvider,
	"generate.model":          EnvGenModel,
	"generate.language":       EnvGenLanguage,
	"generate.endpoint":       EnvGenEndpoint,
	"render.font_path":        EnvFontPath,
	"storage.postgres_dsn":    EnvPostgresDSN,
	"storage.history_enabled": EnvHistoryEnabled,
	"telemetry.enabled":       EnvTelemetryOptIn,
	"telemetry.endpoint":      EnvTelemetryTarget,
	"logging.level":           EnvLogLevel,
	"logging.format":          EnvLogFormat,
	"logging.source":          EnvLogSource,
	"logging.file":            EnvLogFile,
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "InfoStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "InfoStudio")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "infostudio")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "infostudio")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file if present, applies env overrides and resolves
// the generation credential. A malformed file is reported but the defaults
// (plus env) are still returned so the caller can keep running.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var fileErr error
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			cfg = Defaults()
			fileErr = fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		fileErr = fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, Credential(cfg.Generate.Provider), fileErr
}

// Save writes the YAML file. A non-empty key is stored in the OS keyring.
func Save(cfg AppConfig, key string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ConfigVersion = CurrentVersion
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if key != "" {
		if err := SetCredential(key); err != nil {
			return err
		}
	}
	return nil
}

func normalize(cfg *AppConfig) {
	d := Defaults()
	cfg.Generate.Provider = strings.ToLower(strings.TrimSpace(cfg.Generate.Provider))
	if cfg.Generate.Provider != "gemini" && cfg.Generate.Provider != "anthropic" {
		cfg.Generate.Provider = d.Generate.Provider
	}
	cfg.Generate.Language = strings.ToLower(strings.TrimSpace(cfg.Generate.Language))
	if cfg.Generate.Language == "" {
		cfg.Generate.Language = d.Generate.Language
	}
	if cfg.Generate.TimeoutSeconds <= 0 {
		cfg.Generate.TimeoutSeconds = d.Generate.TimeoutSeconds
	}
	if cfg.Generate.MaxRetries < 0 {
		cfg.Generate.MaxRetries = 0
	}
	if cfg.Export.Scale <= 0 || cfg.Export.Scale > 8 {
		cfg.Export.Scale = d.Export.Scale
	}
	if cfg.Export.SettleMs < 0 {
		cfg.Export.SettleMs = d.Export.SettleMs
	}
	if cfg.Render.ImageTimeoutSeconds <= 0 {
		cfg.Render.ImageTimeoutSeconds = d.Render.ImageTimeoutSeconds
	}
	if cfg.Storage.HistoryKeep <= 0 {
		cfg.Storage.HistoryKeep = d.Storage.HistoryKeep
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	str := func(env string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
	boolean := func(env string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = truthy(v)
		}
	}
	str(EnvExportDir, &cfg.Export.OutDir)
	if v := strings.TrimSpace(os.Getenv(EnvExportScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Export.Scale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportSettleMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Export.SettleMs = n
		}
	}
	str(EnvGenProvider, &cfg.Generate.Provider)
	str(EnvGenModel, &cfg.Generate.Model)
	str(EnvGenLanguage, &cfg.Generate.Language)
	str(EnvGenEndpoint, &cfg.Generate.Endpoint)
	str(EnvFontPath, &cfg.Render.FontPath)
	str(EnvPostgresDSN, &cfg.Storage.PostgresDSN)
	boolean(EnvHistoryEnabled, &cfg.Storage.HistoryEnabled)
	boolean(EnvTelemetryOptIn, &cfg.Telemetry.Enabled)
	str(EnvTelemetryTarget, &cfg.Telemetry.Endpoint)
	str(EnvLogLevel, &cfg.Logging.Level)
	str(EnvLogFormat, &cfg.Logging.Format)
	boolean(EnvLogSource, &cfg.Logging.Source)
	str(EnvLogFile, &cfg.Logging.File)
}

// EnvOverrideFor returns the env var name if the dotted key is currently
// overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := overrides[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// GenerateTimeout returns the per-request timeout of the generation client.
func (g GenerateConfig) GenerateTimeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return time.Duration(Defaults().Generate.TimeoutSeconds) * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// SettleDelay returns the export settle delay.
func (e ExportConfig) SettleDelay() time.Duration {
	return time.Duration(e.SettleMs) * time.Millisecond
}

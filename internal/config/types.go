package config

import (
	"strings"
	"time"
)

// Config is the spreader application config. Strategy field values are not
// part of it; they come from the prompter or the values file named in Input.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Input    InputConfig    `mapstructure:"input"`
	Store    StoreConfig    `mapstructure:"store"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Output   OutputConfig   `mapstructure:"output"`
	// EnvFile holds connector credentials in dotenv format.
	EnvFile string `mapstructure:"env_file"`
}

type AppConfig struct {
	Env           string `mapstructure:"env"`
	LogLevel      string `mapstructure:"log_level"`
	LogPath       string `mapstructure:"log_path"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	// TranscriptPath receives every prompt/answer exchange when set.
	TranscriptPath string `mapstructure:"transcript_path"`
}

// StrategyConfig carries the binding parameters that are not strategy fields.
type StrategyConfig struct {
	Variant              string        `mapstructure:"variant"`
	StatusReportInterval time.Duration `mapstructure:"status_report_interval"`
	DuplicateRoles       string        `mapstructure:"duplicate_roles"`
	Notify               bool          `mapstructure:"notify"`
	LoggingOptions       []string      `mapstructure:"logging_options"`
	WalletTokens         []string      `mapstructure:"wallet_tokens"`
}

type CatalogConfig struct {
	// Path to the market catalog; empty uses the built-in catalog.
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

const (
	InputInteractive = "interactive"
	InputBatch       = "batch"
)

type InputConfig struct {
	Mode string `mapstructure:"mode"`
	File string `mapstructure:"file"`
	// Replay names a stored pass id to replay instead of reading input.
	Replay string `mapstructure:"replay"`
}

type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type OutputConfig struct {
	RecordPath   string `mapstructure:"record_path"`
	RecordFormat string `mapstructure:"record_format"`
}

// keySet tracks the config paths set explicitly in the loaded files.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

// markSettings marks every leaf of a nested settings map. Lists count as
// leaves.
func (k keySet) markSettings(prefix string, settings map[string]any) {
	for name, val := range settings {
		path := strings.ToLower(strings.TrimSpace(name))
		if path == "" {
			continue
		}
		if prefix != "" {
			path = prefix + "." + path
		}
		if sub, ok := val.(map[string]any); ok {
			k.markSettings(path, sub)
			continue
		}
		k.mark(path)
	}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault fills one field when its key was not set explicitly and need
// reports the current value as empty.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

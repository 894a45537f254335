package config

import (
	"fmt"
	"strings"
	"time"

	"spreader/internal/binding"
	"spreader/internal/spreader"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Strategy.validate(); err != nil {
		return err
	}
	if err := c.Catalog.validate(); err != nil {
		return err
	}
	if err := c.Input.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if err := c.Output.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Input.Replay) != "" && !c.Store.Enabled {
		return fmt.Errorf("input.replay requires store.enabled")
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error (got %q)", a.LogLevel)
	}
	if a.LogMaxSizeMB < 0 {
		return fmt.Errorf("app.log_max_size_mb must be >= 0")
	}
	if a.LogMaxBackups < 0 {
		return fmt.Errorf("app.log_max_backups must be >= 0")
	}
	return nil
}

func (s *StrategyConfig) validate() error {
	if _, err := spreader.ParseVariant(s.Variant); err != nil {
		return fmt.Errorf("strategy.variant must be two_market or three_market: %w", err)
	}
	if s.StatusReportInterval < time.Second {
		return fmt.Errorf("strategy.status_report_interval must be at least 1s (got %s)", s.StatusReportInterval)
	}
	if _, err := binding.ParseDuplicatePolicy(s.DuplicateRoles); err != nil {
		return fmt.Errorf("strategy.duplicate_roles must be reject or allow: %w", err)
	}
	if _, err := binding.ParseLoggingFlags(s.LoggingOptions); err != nil {
		return fmt.Errorf("strategy.logging_options: %w", err)
	}
	return nil
}

func (c *CatalogConfig) validate() error {
	if c.Watch && strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("catalog.watch requires catalog.path")
	}
	return nil
}

func (i *InputConfig) validate() error {
	switch i.Mode {
	case InputInteractive:
	case InputBatch:
		if strings.TrimSpace(i.File) == "" && strings.TrimSpace(i.Replay) == "" {
			return fmt.Errorf("input.file is required when input.mode is batch")
		}
	default:
		return fmt.Errorf("input.mode must be interactive or batch (got %q)", i.Mode)
	}
	return nil
}

func (s *StoreConfig) validate() error {
	if s.Enabled && strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("store.path cannot be empty when store.enabled is true")
	}
	return nil
}

func (o *OutputConfig) validate() error {
	if _, err := binding.ParseFormat(o.RecordFormat); err != nil {
		return fmt.Errorf("output.record_format must be json, yaml or msgpack: %w", err)
	}
	return nil
}

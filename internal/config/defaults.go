package config

import (
	"strings"
	"time"
)

const (
	defaultAppEnv               = "dev"
	defaultAppLogLevel          = "info"
	defaultAppLogMaxSizeMB      = 50
	defaultAppLogMaxBackups     = 3
	defaultStrategyVariant      = "two_market"
	defaultStatusReportInterval = 900 * time.Second
	defaultDuplicateRoles       = "reject"
	defaultStrategyNotify       = true
	defaultInputMode            = InputInteractive
	defaultStorePath            = "data/spreader.db"
	defaultRecordFormat         = "json"
	defaultEnvFile              = ".env"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Strategy.applyDefaults(keys)
	c.Input.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Output.applyDefaults(keys)
	applyFieldDefaults(keys, stringFieldDefault("env_file", &c.EnvFile, defaultEnvFile))
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		fieldDefault{
			key:   "app.log_max_size_mb",
			need:  func() bool { return a.LogMaxSizeMB <= 0 },
			apply: func() { a.LogMaxSizeMB = defaultAppLogMaxSizeMB },
		},
		fieldDefault{
			key:   "app.log_max_backups",
			need:  func() bool { return a.LogMaxBackups <= 0 },
			apply: func() { a.LogMaxBackups = defaultAppLogMaxBackups },
		},
	)
}

func (s *StrategyConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("strategy.variant", &s.Variant, defaultStrategyVariant),
		stringFieldDefault("strategy.duplicate_roles", &s.DuplicateRoles, defaultDuplicateRoles),
		fieldDefault{
			key:   "strategy.status_report_interval",
			need:  func() bool { return s.StatusReportInterval <= 0 },
			apply: func() { s.StatusReportInterval = defaultStatusReportInterval },
		},
		boolFieldDefault("strategy.notify", &s.Notify, defaultStrategyNotify),
	)
	s.LoggingOptions = normalizeList(s.LoggingOptions, strings.ToUpper)
	s.WalletTokens = normalizeList(s.WalletTokens, strings.ToUpper)
}

func (i *InputConfig) applyDefaults(keys keySet) {
	if i == nil {
		return
	}
	applyFieldDefaults(keys, stringFieldDefault("input.mode", &i.Mode, defaultInputMode))
	i.Mode = strings.ToLower(strings.TrimSpace(i.Mode))
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys, stringFieldDefault("store.path", &s.Path, defaultStorePath))
}

func (o *OutputConfig) applyDefaults(keys keySet) {
	if o == nil {
		return
	}
	applyFieldDefaults(keys, stringFieldDefault("output.record_format", &o.RecordFormat, defaultRecordFormat))
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func normalizeList(in []string, fn func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, item := range in {
		item = fn(strings.TrimSpace(item))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

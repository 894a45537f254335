package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// EnvPath names the environment variable holding the config path.
	EnvPath     = "SPREADER_CONFIG"
	DefaultPath = "configs/config.yaml"
)

// pathKeys hold filesystem paths. A relative value is resolved against the
// directory of the file that sets it, so an included file can name its
// neighbours.
var pathKeys = []string{
	"app.log_path",
	"app.transcript_path",
	"catalog.path",
	"input.file",
	"store.path",
	"metrics.textfile",
	"output.record_path",
	"env_file",
}

// PathFromEnv returns the config path from SPREADER_CONFIG, or DefaultPath.
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv(EnvPath)); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads path and every file it includes, decodes the merged settings
// and fills defaults for keys that were not set explicitly. Included files
// are merged first; the including file wins.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &includeWalker{done: make(map[string]bool), active: make(map[string]bool)}
	if err := w.visit(abs); err != nil {
		return nil, err
	}

	v := viper.New()
	setKeys := make(keySet)
	for _, src := range w.sources {
		if err := v.MergeConfigMap(src.settings); err != nil {
			return nil, fmt.Errorf("merging config file failed (%s): %w", src.path, err)
		}
		setKeys.markSettings("", src.settings)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// sourceFile is one config file with its include list removed and its path
// settings made absolute.
type sourceFile struct {
	path     string
	settings map[string]any
}

// includeWalker orders config files depth first: a file follows everything it
// includes. A file reached twice is merged once.
type includeWalker struct {
	done    map[string]bool
	active  map[string]bool
	sources []sourceFile
}

func (w *includeWalker) visit(path string) error {
	path = filepath.Clean(path)
	if w.active[path] {
		return fmt.Errorf("include cycle detected: %s", path)
	}
	if w.done[path] {
		return nil
	}
	w.active[path] = true

	settings, err := readSettings(path)
	if err != nil {
		return fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	includes, err := includeList(settings["include"])
	if err != nil {
		return fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	delete(settings, "include")

	dir := filepath.Dir(path)
	for _, inc := range includes {
		if err := w.visit(relativeTo(dir, inc)); err != nil {
			return err
		}
	}
	rebasePaths(settings, dir)

	delete(w.active, path)
	w.done[path] = true
	w.sources = append(w.sources, sourceFile{path: path, settings: settings})
	return nil
}

func readSettings(path string) (map[string]any, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}

// includeList accepts a single path or a list of paths.
func includeList(raw any) ([]string, error) {
	var items []any
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		items = []any{val}
	case []string:
		for _, s := range val {
			items = append(items, s)
		}
	case []any:
		items = val
	default:
		return nil, fmt.Errorf("include must be a path or a list of paths")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("include only supports strings")
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func rebasePaths(settings map[string]any, dir string) {
	for _, key := range pathKeys {
		parts := strings.Split(key, ".")
		node := settings
		for _, p := range parts[:len(parts)-1] {
			next, ok := node[p].(map[string]any)
			if !ok {
				node = nil
				break
			}
			node = next
		}
		if node == nil {
			continue
		}
		leaf := parts[len(parts)-1]
		if s, ok := node[leaf].(string); ok && strings.TrimSpace(s) != "" {
			node[leaf] = relativeTo(dir, strings.TrimSpace(s))
		}
	}
}

func relativeTo(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// Package catalog holds the set of supported market connectors, the trading
// pairs each one lists and their minimum order sizes.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"spreader/internal/logger"
	"spreader/internal/pkg/symbol"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Connector describes one market connector as written in the catalog file.
type Connector struct {
	Name            string                     `yaml:"name"`
	Kind            string                     `yaml:"kind"`
	PairFormat      symbol.Format              `yaml:"pair_format"`
	ExamplePair     string                     `yaml:"example_pair"`
	Pairs           []string                   `yaml:"pairs"`
	MinOrderAmount  decimal.Decimal            `yaml:"min_order_amount"`
	MinOrderAmounts map[string]decimal.Decimal `yaml:"min_order_amounts"`
	Credentials     []string                   `yaml:"credentials"`

	pairSet map[string]struct{}
}

// FileConfig maps the markets section of a catalog file.
type FileConfig struct {
	Markets map[string]Connector `yaml:"markets"`
}

// ListsPairs reports whether the connector publishes a pair listing. Without
// one every pair is accepted.
func (c Connector) ListsPairs() bool { return len(c.pairSet) > 0 }

// ActivePair reports whether pair (BASE-QUOTE, any case) is tradable.
func (c Connector) ActivePair(pair string) bool {
	if !c.ListsPairs() {
		return true
	}
	_, ok := c.pairSet[strings.ToUpper(strings.TrimSpace(pair))]
	return ok
}

// MinimumOrderAmount returns the per-pair minimum, falling back to the
// connector default.
func (c Connector) MinimumOrderAmount(pair string) decimal.Decimal {
	if m, ok := c.MinOrderAmounts[strings.ToUpper(strings.TrimSpace(pair))]; ok {
		return m
	}
	return c.MinOrderAmount
}

// Snapshot is an immutable view of the catalog. One resolution pass reads
// one snapshot.
type Snapshot struct {
	Version    int64
	LoadedAt   time.Time
	Connectors map[string]Connector
}

func (s Snapshot) Connector(name string) (Connector, bool) {
	c, ok := s.Connectors[normalizeName(name)]
	return c, ok
}

func (s Snapshot) Supported(name string) bool {
	_, ok := s.Connector(name)
	return ok
}

// Names returns connector names sorted.
func (s Snapshot) Names() []string {
	out := make([]string, 0, len(s.Connectors))
	for name := range s.Connectors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s Snapshot) ActivePair(market, pair string) bool {
	c, ok := s.Connector(market)
	if !ok {
		return false
	}
	return c.ActivePair(pair)
}

func (s Snapshot) MinimumOrderAmount(market, pair string) (decimal.Decimal, bool) {
	c, ok := s.Connector(market)
	if !ok {
		return decimal.Zero, false
	}
	return c.MinimumOrderAmount(pair), true
}

// ExamplePair returns the connector's example pair, or its first listed pair.
func (s Snapshot) ExamplePair(market string) string {
	c, ok := s.Connector(market)
	if !ok {
		return ""
	}
	if c.ExamplePair != "" {
		return c.ExamplePair
	}
	if len(c.Pairs) > 0 {
		return c.Pairs[0]
	}
	return ""
}

// ChangeListener fires after a successful reload.
type ChangeListener func(Snapshot)

// Catalog owns the current snapshot and optionally follows its file.
type Catalog struct {
	path string

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
}

// Load reads a catalog file. An empty path loads the embedded default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read market catalog failed: %w", err)
	}
	c := &Catalog{path: path}
	if err := c.reloadBytes(raw); err != nil {
		return nil, err
	}
	logger.Infof("Market catalog loaded %d connectors from %s", len(c.snapshot.Connectors), filepath.Base(path))
	return c, nil
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return FromBytes(defaultCatalog)
}

func FromBytes(raw []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := c.reloadBytes(raw); err != nil {
		return nil, err
	}
	return c, nil
}

// Watch reloads the catalog whenever its file changes, until Close. A failed
// reload keeps the previous snapshot.
func (c *Catalog) Watch() error {
	if c.path == "" {
		return fmt.Errorf("market catalog has no file to watch")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch market catalog failed: %w", err)
	}
	// Editors often replace the file on save, so follow the directory.
	if err := w.Add(filepath.Dir(c.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch market catalog failed: %w", err)
	}
	c.watcher = w
	c.watchDone = make(chan struct{})
	go c.watchLoop(w, c.watchDone)
	return nil
}

func (c *Catalog) watchLoop(w *fsnotify.Watcher, done chan<- struct{}) {
	defer close(done)
	target := filepath.Clean(c.path)
	for {
		select {
		case evt, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target || evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := c.reload(); err != nil {
				logger.Errorf("market catalog reload failed: %v", err)
				continue
			}
			c.notifyListeners()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warnf("market catalog watcher: %v", err)
		}
	}
}

// Close stops watching the catalog file. The last snapshot stays readable.
func (c *Catalog) Close() error {
	c.mu.Lock()
	w, done := c.watcher, c.watchDone
	c.watcher, c.watchDone = nil, nil
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

func (c *Catalog) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSnapshot(c.snapshot)
}

func (c *Catalog) Connector(name string) (Connector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Connector(name)
}

func (c *Catalog) reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read market catalog failed: %w", err)
	}
	if err := c.reloadBytes(raw); err != nil {
		return err
	}
	logger.Infof("Market catalog reloaded from %s (version %d)", filepath.Base(c.path), c.Snapshot().Version)
	return nil
}

func (c *Catalog) reloadBytes(raw []byte) error {
	cfg, err := parseCatalog(raw)
	if err != nil {
		return err
	}
	connectors := make(map[string]Connector, len(cfg.Markets))
	for name, conn := range cfg.Markets {
		norm := normalizeConnector(name, conn)
		connectors[norm.Name] = norm
	}
	c.mu.Lock()
	c.snapshot = Snapshot{
		Version:    c.snapshot.Version + 1,
		LoadedAt:   time.Now(),
		Connectors: connectors,
	}
	c.mu.Unlock()
	return nil
}

func (c *Catalog) notifyListeners() {
	c.mu.RLock()
	snap := cloneSnapshot(c.snapshot)
	listeners := append([]ChangeListener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("market catalog listener")
			cb(snap)
		}(fn)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// normalizeConnector converts exchange-native pair listings to BASE-QUOTE.
func normalizeConnector(name string, c Connector) Connector {
	c.Name = normalizeName(c.Name)
	if c.Name == "" {
		c.Name = normalizeName(name)
	}
	if c.Kind == "" {
		c.Kind = "spot"
	}
	conv := symbol.ConverterFor(c.PairFormat)
	pairs := make([]string, 0, len(c.Pairs))
	c.pairSet = make(map[string]struct{}, len(c.Pairs))
	for _, raw := range c.Pairs {
		p := conv.FromExchange(raw)
		if p == "" {
			logger.Warnf("market catalog %s: skip unparsable pair %q", c.Name, raw)
			continue
		}
		if _, dup := c.pairSet[p]; dup {
			continue
		}
		c.pairSet[p] = struct{}{}
		pairs = append(pairs, p)
	}
	c.Pairs = pairs
	if c.ExamplePair != "" {
		c.ExamplePair = conv.FromExchange(c.ExamplePair)
	}
	if len(c.MinOrderAmounts) > 0 {
		mins := make(map[string]decimal.Decimal, len(c.MinOrderAmounts))
		for raw, amount := range c.MinOrderAmounts {
			if p := conv.FromExchange(raw); p != "" {
				mins[p] = amount
			}
		}
		c.MinOrderAmounts = mins
	}
	return c
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:    src.Version,
		LoadedAt:   src.LoadedAt,
		Connectors: make(map[string]Connector, len(src.Connectors)),
	}
	for name, c := range src.Connectors {
		dst.Connectors[name] = c
	}
	return dst
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func catalogSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("catalog.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("catalog.json")
	})
	return schemaCompiled, schemaErr
}

func parseCatalog(raw []byte) (FileConfig, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return FileConfig{}, fmt.Errorf("parse market catalog failed: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return FileConfig{}, err
	}
	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse market catalog failed: %w", err)
	}
	return cfg, nil
}

// validateSchema round-trips through JSON so the validator sees float64 and
// map[string]any only.
func validateSchema(doc any) error {
	schema, err := catalogSchema()
	if err != nil {
		return fmt.Errorf("compile market catalog schema failed: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("market catalog is not JSON compatible: %w", err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("market catalog schema: %w", err)
	}
	return nil
}

package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"spreader/internal/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Handle is an opaque reference to an instantiated market connector. Handles
// of the same connector opened through the same factory compare equal.
type Handle struct {
	name string
	id   string
}

func (h Handle) Name() string { return h.name }
func (h Handle) ID() string   { return h.id }
func (h Handle) IsZero() bool { return h.id == "" }

func (h Handle) String() string {
	if h.IsZero() {
		return "<none>"
	}
	id := h.id
	if len(id) > 8 {
		id = id[:8]
	}
	return h.name + "#" + id
}

// NewHandle builds a handle with a fixed id, for replaying stored bindings.
func NewHandle(name, id string) Handle {
	return Handle{name: normalizeName(name), id: id}
}

// Factory instantiates market connectors.
type Factory interface {
	Open(name string) (Handle, error)
}

// Source is the part of the catalog a factory needs.
type Source interface {
	Connector(name string) (Connector, bool)
}

// ErrMissingCredentials is returned when a connector's credential variables
// are unset.
var ErrMissingCredentials = errors.New("missing connector credentials")

// EnvFactory opens connectors listed in the catalog once their credential
// environment variables are present.
type EnvFactory struct {
	src    Source
	lookup func(string) (string, bool)

	mu      sync.Mutex
	handles map[string]Handle
}

type EnvOption func(*EnvFactory)

// WithLookup replaces os.LookupEnv.
func WithLookup(fn func(string) (string, bool)) EnvOption {
	return func(f *EnvFactory) {
		if fn != nil {
			f.lookup = fn
		}
	}
}

func NewEnvFactory(src Source, opts ...EnvOption) *EnvFactory {
	f := &EnvFactory{
		src:     src,
		lookup:  os.LookupEnv,
		handles: make(map[string]Handle),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadEnvFile loads dotenv credentials without overriding variables already
// set. A missing file is not an error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debugf("env file %s not found, skipping", path)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (f *EnvFactory) Open(name string) (Handle, error) {
	key := normalizeName(name)
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.handles[key]; ok {
		return h, nil
	}
	conn, ok := f.src.Connector(key)
	if !ok {
		return Handle{}, fmt.Errorf("connector %s is not in the market catalog", key)
	}
	var missing []string
	for _, env := range conn.Credentials {
		if v, ok := f.lookup(env); !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return Handle{}, fmt.Errorf("%w for %s: %s", ErrMissingCredentials, key, strings.Join(missing, ", "))
	}
	h := Handle{name: key, id: uuid.NewString()}
	f.handles[key] = h
	logger.Debugf("market connector %s opened as %s", key, h)
	return h, nil
}

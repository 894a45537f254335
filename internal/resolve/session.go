// Package resolve runs one configuration pass over a field registry: it
// renders prompts, validates raw input in dependency order and threads the
// required-exchange accumulator through the on-validated hooks.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"spreader/internal/cfgerr"
	"spreader/internal/field"
	"spreader/internal/logger"

	"github.com/google/uuid"
)

// Session holds the state of one resolution pass. It is not safe for
// concurrent use.
type Session struct {
	id       string
	reg      *field.Registry
	values   *field.ResolvedSet
	states   map[field.Key]State
	acc      *field.Accumulator
	observer Observer
}

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithID fixes the pass id, used when replaying a stored pass.
func WithID(id string) Option {
	return func(s *Session) {
		if strings.TrimSpace(id) != "" {
			s.id = strings.TrimSpace(id)
		}
	}
}

func NewSession(reg *field.Registry, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		reg:      reg,
		values:   field.NewResolvedSet(),
		states:   make(map[field.Key]State, reg.Len()),
		acc:      field.NewAccumulator(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string                      { return s.id }
func (s *Session) Registry() *field.Registry       { return s.reg }
func (s *Session) Accumulator() *field.Accumulator { return s.acc }

// State returns the lifecycle state of key; unknown keys read as Unset.
func (s *Session) State(key field.Key) State {
	return s.states[key]
}

// Get returns the resolved value of key.
func (s *Session) Get(key field.Key) (field.Value, error) {
	if !s.reg.Has(key) {
		return field.Value{}, cfgerr.Errorf(cfgerr.KindUnknownField, string(key), "unknown config field: %s", key)
	}
	v, ok := s.values.Lookup(key)
	if !ok {
		return field.Value{}, cfgerr.Errorf(cfgerr.KindUnresolvedField, string(key), "%s has not been set", key)
	}
	return v, nil
}

// PromptFor renders the prompt of key. Every upstream key must already be
// resolved.
func (s *Session) PromptFor(key field.Key) (string, error) {
	f, err := s.reg.Lookup(key)
	if err != nil {
		return "", err
	}
	if err := s.checkUpstream(f); err != nil {
		return "", err
	}
	if st := s.states[key]; st == Unset || st == Rejected {
		s.states[key] = PromptIssued
	}
	return f.Prompt.Render(field.Restrict(s.values, f.Requires)), nil
}

// Validate parses and checks raw for key. On success the value is stored,
// the field becomes Resolved and its hook runs once. On rejection the field
// is left Rejected and re-promptable; earlier values are untouched.
func (s *Session) Validate(key field.Key, raw string) (field.Value, error) {
	f, err := s.reg.Lookup(key)
	if err != nil {
		return field.Value{}, err
	}
	if s.states[key] == Resolved {
		return field.Value{}, cfgerr.Errorf(cfgerr.KindInvalidValue, string(key),
			"%s is already set; reset it before entering a new value", key)
	}
	if err := s.checkUpstream(f); err != nil {
		return field.Value{}, err
	}

	s.states[key] = Validating
	v, err := s.check(f, raw)
	if err != nil {
		s.states[key] = Rejected
		s.observer.FieldRejected(key, cfgerr.KindOf(err))
		logger.Debugf("pass %s: %s rejected: %v", s.id, key, err)
		return field.Value{}, err
	}

	s.values.Put(key, v)
	s.states[key] = Resolved
	if f.OnValidated != nil {
		f.OnValidated(v, s.acc)
	}
	s.observer.FieldResolved(key)
	logger.Debugf("pass %s: %s = %s", s.id, key, v.String())
	return v, nil
}

func (s *Session) check(f field.Field, raw string) (field.Value, error) {
	input := strings.TrimSpace(raw)
	if input == "" && f.HasDefault() {
		input = f.Default
	}
	if f.Normalize != nil {
		input = f.Normalize(input)
	}
	v, err := f.Type.Parse(input)
	if err != nil {
		if f.Malformed != nil {
			return field.Value{}, withKey(f.Malformed(input), f.Key)
		}
		return field.Value{}, cfgerr.Wrap(cfgerr.KindInvalidValue, string(f.Key), err,
			fmt.Sprintf("%s is not in %s format.", input, f.Type))
	}
	if f.Validate != nil {
		if err := f.Validate(v, field.Restrict(s.values, f.Requires)); err != nil {
			return field.Value{}, withKey(err, f.Key)
		}
	}
	return v, nil
}

// Reset returns key and every field depending on it to Unset. The
// accumulator keeps what it has collected.
func (s *Session) Reset(key field.Key) error {
	if !s.reg.Has(key) {
		return cfgerr.Errorf(cfgerr.KindUnknownField, string(key), "unknown config field: %s", key)
	}
	for _, k := range append([]field.Key{key}, s.reg.Dependents(key)...) {
		s.values.Delete(k)
		delete(s.states, k)
	}
	return nil
}

// Values returns a copy of the resolved set.
func (s *Session) Values() *field.ResolvedSet {
	return s.values.Clone()
}

// Missing lists required keys that are not resolved, in declaration order.
func (s *Session) Missing() []field.Key {
	var out []field.Key
	for _, k := range s.reg.Required() {
		if s.states[k] != Resolved {
			out = append(out, k)
		}
	}
	return out
}

func (s *Session) Complete() bool { return len(s.Missing()) == 0 }

// Result is what a resolution pass hands to the binding stage.
type Result struct {
	PassID    string
	Values    *field.ResolvedSet
	Exchanges []string
}

func (s *Session) Result() Result {
	return Result{
		PassID:    s.id,
		Values:    s.values.Clone(),
		Exchanges: s.acc.Exchanges(),
	}
}

func (s *Session) checkUpstream(f field.Field) error {
	var missing []string
	for _, dep := range f.Requires {
		if s.states[dep] != Resolved {
			missing = append(missing, string(dep))
		}
	}
	if len(missing) > 0 {
		return cfgerr.Errorf(cfgerr.KindUnresolvedDependency, string(f.Key),
			"%s requires %s to be set first", f.Key, strings.Join(missing, ", "))
	}
	return nil
}

// withKey stamps the field key on errors produced by validators, which do not
// know which field they guard.
func withKey(err error, key field.Key) error {
	if err == nil {
		return cfgerr.Errorf(cfgerr.KindInvalidValue, string(key), "invalid value for %s", key)
	}
	var ce *cfgerr.Error
	if errors.As(err, &ce) {
		if ce.Key != "" {
			return err
		}
		cp := *ce
		cp.Key = string(key)
		return &cp
	}
	return cfgerr.Wrap(cfgerr.KindInvalidValue, string(key), err, err.Error())
}

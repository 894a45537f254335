package field

import (
	"strings"

	"spreader/internal/cfgerr"
)

// Registry keeps field definitions in declaration order.
type Registry struct {
	order  []Key
	fields map[Key]Field
}

func NewRegistry(fields ...Field) (*Registry, error) {
	r := &Registry{fields: make(map[Key]Field, len(fields))}
	for _, f := range fields {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends f. Every key in f.Requires must already be registered, so
// declaration order is a valid resolution order.
func (r *Registry) Register(f Field) error {
	key := Key(strings.TrimSpace(string(f.Key)))
	if key == "" {
		return cfgerr.New(cfgerr.KindUnknownField, "", "field key cannot be empty")
	}
	if _, ok := r.fields[key]; ok {
		return cfgerr.Errorf(cfgerr.KindDuplicateField, string(key), "field %s already registered", key)
	}
	for _, dep := range f.Requires {
		if dep == key {
			return cfgerr.Errorf(cfgerr.KindUnresolvedDependency, string(key), "field %s cannot depend on itself", key)
		}
		if _, ok := r.fields[dep]; !ok {
			return cfgerr.Errorf(cfgerr.KindUnresolvedDependency, string(key),
				"field %s requires %s, which must be registered first", key, dep)
		}
	}
	f.Key = key
	f.Requires = append([]Key(nil), f.Requires...)
	if r.fields == nil {
		r.fields = make(map[Key]Field)
	}
	r.fields[key] = f
	r.order = append(r.order, key)
	return nil
}

// Lookup returns the definition for key or an UnknownField error.
func (r *Registry) Lookup(key Key) (Field, error) {
	f, ok := r.fields[key]
	if !ok {
		return Field{}, cfgerr.Errorf(cfgerr.KindUnknownField, string(key), "unknown config field: %s", key)
	}
	return f, nil
}

func (r *Registry) Has(key Key) bool {
	_, ok := r.fields[key]
	return ok
}

func (r *Registry) Keys() []Key {
	return append([]Key(nil), r.order...)
}

func (r *Registry) Fields() []Field {
	out := make([]Field, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.fields[k])
	}
	return out
}

func (r *Registry) Len() int { return len(r.order) }

// Required returns the keys marked Required, in declaration order.
func (r *Registry) Required() []Key {
	var out []Key
	for _, k := range r.order {
		if r.fields[k].Required {
			out = append(out, k)
		}
	}
	return out
}

// Dependents returns every field that transitively requires key, in
// declaration order.
func (r *Registry) Dependents(key Key) []Key {
	affected := map[Key]bool{key: true}
	var out []Key
	for _, k := range r.order {
		f := r.fields[k]
		for dep := range affected {
			if f.dependsOn(dep) {
				affected[k] = true
				out = append(out, k)
				break
			}
		}
	}
	return out
}

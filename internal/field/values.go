package field

// Values is a read-only view of resolved field values.
type Values interface {
	Lookup(key Key) (Value, bool)
}

// Map is a plain Values implementation.
type Map map[Key]Value

func (m Map) Lookup(key Key) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// ResolvedSet is built incrementally in registry order during a pass.
type ResolvedSet struct {
	order  []Key
	values map[Key]Value
}

func NewResolvedSet() *ResolvedSet {
	return &ResolvedSet{values: make(map[Key]Value)}
}

func (s *ResolvedSet) Lookup(key Key) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.values[key]
	return v, ok
}

func (s *ResolvedSet) Put(key Key, v Value) {
	if s.values == nil {
		s.values = make(map[Key]Value)
	}
	if _, ok := s.values[key]; !ok {
		s.order = append(s.order, key)
	}
	s.values[key] = v
}

func (s *ResolvedSet) Delete(key Key) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *ResolvedSet) Keys() []Key {
	if s == nil {
		return nil
	}
	return append([]Key(nil), s.order...)
}

func (s *ResolvedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

func (s *ResolvedSet) Clone() *ResolvedSet {
	out := NewResolvedSet()
	if s == nil {
		return out
	}
	for _, k := range s.order {
		out.Put(k, s.values[k])
	}
	return out
}

// Raw returns key -> textual value.
func (s *ResolvedSet) Raw() map[string]string {
	out := make(map[string]string, s.Len())
	if s == nil {
		return out
	}
	for _, k := range s.order {
		out[string(k)] = s.values[k].String()
	}
	return out
}

// restricted exposes only the listed keys of an underlying view.
type restricted struct {
	base Values
	keys []Key
}

// Restrict limits base to keys. Validators receive their declared upstream
// keys only, so an undeclared dependency reads as missing.
func Restrict(base Values, keys []Key) Values {
	return restricted{base: base, keys: keys}
}

func (r restricted) Lookup(key Key) (Value, bool) {
	for _, k := range r.keys {
		if k == key {
			return r.base.Lookup(key)
		}
	}
	return Value{}, false
}

// Accumulator collects the exchanges that must be instantiated before the
// strategy starts. It only grows; adding a name twice is a no-op.
type Accumulator struct {
	exchanges []string
	seen      map[string]struct{}
}

func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]struct{})}
}

// RequireExchange adds name and reports whether it was new.
func (a *Accumulator) RequireExchange(name string) bool {
	if name == "" {
		return false
	}
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	if _, ok := a.seen[name]; ok {
		return false
	}
	a.seen[name] = struct{}{}
	a.exchanges = append(a.exchanges, name)
	return true
}

func (a *Accumulator) Contains(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.seen[name]
	return ok
}

// Exchanges returns the required exchanges in first-validated order.
func (a *Accumulator) Exchanges() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.exchanges...)
}

func (a *Accumulator) Len() int {
	if a == nil {
		return 0
	}
	return len(a.exchanges)
}

// Package field holds the ordered registry of strategy configuration fields
// and the value types a resolution pass produces from them.
package field

// Key names a configuration field.
type Key string

func (k Key) String() string { return string(k) }

// ValidateFunc checks a parsed value against upstream values. upstream only
// exposes keys listed in the field's Requires.
type ValidateFunc func(v Value, upstream Values) error

// HookFunc runs once per successful validation.
type HookFunc func(v Value, acc *Accumulator)

// Field describes one configuration input.
type Field struct {
	Key    Key
	Prompt Prompt
	// Default is used when the supplied raw value is empty. Empty means no
	// default.
	Default string
	Type    Type
	// Requires lists the upstream keys the prompt and validator read.
	Requires  []Key
	Normalize func(string) string
	// Malformed builds the rejection for input that does not parse as Type.
	// nil yields a generic InvalidValue error.
	Malformed   func(raw string) error
	Validate    ValidateFunc
	OnValidated HookFunc
	PromptOnNew bool
	Required    bool
}

func (f Field) HasDefault() bool { return f.Default != "" }

func (f Field) dependsOn(key Key) bool {
	for _, k := range f.Requires {
		if k == key {
			return true
		}
	}
	return false
}

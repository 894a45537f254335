package app

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"spreader/internal/cfgerr"
	"spreader/internal/field"
	"spreader/internal/resolve"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

//go:embed values_schema.json
var valuesSchemaJSON string

var (
	valuesSchemaOnce sync.Once
	valuesSchema     *jsonschema.Schema
	valuesSchemaErr  error
)

// LoadInputs reads a strategy values file. JSON files (by extension) and
// YAML files are both flat key/value objects; key order is kept as written.
func LoadInputs(path string) ([]resolve.Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file failed: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSONInputs(raw)
	}
	return ParseYAMLInputs(raw)
}

// ParseJSONInputs walks the top-level object in document order.
func ParseJSONInputs(raw []byte) ([]resolve.Input, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("values file is not valid JSON")
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("values file root must be an object")
	}
	if err := validateValues(parsed.Value()); err != nil {
		return nil, err
	}
	var (
		inputs []resolve.Input
		dupErr error
	)
	seen := make(map[string]bool)
	parsed.ForEach(func(key, value gjson.Result) bool {
		k := strings.TrimSpace(key.String())
		if seen[k] {
			dupErr = duplicateKey(k)
			return false
		}
		seen[k] = true
		v := value.String()
		if value.Type == gjson.Number {
			v = value.Raw
		}
		inputs = append(inputs, resolve.Input{Key: field.Key(k), Raw: v})
		return true
	})
	if dupErr != nil {
		return nil, dupErr
	}
	return inputs, nil
}

// ParseYAMLInputs reads a flat YAML mapping through yaml.Node so the order
// and any repeated keys stay visible.
func ParseYAMLInputs(raw []byte) ([]resolve.Input, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse values file failed: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("values file root must be a mapping")
	}
	root := doc.Content[0]

	inputs := make([]resolve.Input, 0, len(root.Content)/2)
	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k := strings.TrimSpace(root.Content[i].Value)
		if seen[k] {
			return nil, duplicateKey(k)
		}
		seen[k] = true
		inputs = append(inputs, resolve.Input{Key: field.Key(k), Raw: root.Content[i+1].Value})
	}

	var generic any
	if err := root.Decode(&generic); err != nil {
		return nil, fmt.Errorf("parse values file failed: %w", err)
	}
	if err := validateValues(generic); err != nil {
		return nil, err
	}
	return inputs, nil
}

func duplicateKey(k string) error {
	return cfgerr.Errorf(cfgerr.KindDuplicateField, k, "duplicate config field: %s", k)
}

func validateValues(doc any) error {
	valuesSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("values.json", strings.NewReader(valuesSchemaJSON)); err != nil {
			valuesSchemaErr = err
			return
		}
		valuesSchema, valuesSchemaErr = compiler.Compile("values.json")
	})
	if valuesSchemaErr != nil {
		return fmt.Errorf("compile values schema failed: %w", valuesSchemaErr)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("values file is not JSON compatible: %w", err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	if err := valuesSchema.Validate(generic); err != nil {
		return fmt.Errorf("values file failed schema validation: %w", err)
	}
	return nil
}

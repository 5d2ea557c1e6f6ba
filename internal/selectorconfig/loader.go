package selectorconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigMissing is returned when the config file does not exist
	ErrConfigMissing = errors.New("selector config not found")

	// ErrNoSelectors is returned when the document defines no selector
	ErrNoSelectors = errors.New("no selectors defined")

	// ErrSelectorsNotArray is returned when the "selectors" key is not an array
	ErrSelectorsNotArray = errors.New(`"selectors" must be an array`)
)

// Load reads a selector config file (JSON, or YAML for .yaml/.yml)
// and normalizes it into an ordered list of specs.
// Selector types are not checked here.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("read selector config: %w", err)
	}

	raw, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse selector config %s: %w", path, err)
	}

	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	doc.Path = path

	return doc, nil
}

// Parse normalizes an already decoded document
func Parse(raw interface{}) (*Document, error) {
	shape, entries, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrNoSelectors
	}

	doc := &Document{
		Shape: shape,
		Specs: make([]Spec, 0, len(entries)),
	}
	for i, entry := range entries {
		doc.Specs = append(doc.Specs, toSpec(i, entry))
	}

	return doc, nil
}

// Hash generates SHA256 hash of the normalized specs (canonical JSON)
func Hash(doc *Document) (string, error) {
	// encoding/json sorts map keys, so equal specs hash equally
	jsonBytes, err := json.Marshal(doc.Specs)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

func decode(path string, data []byte) (interface{}, error) {
	var raw interface{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
			return nil, err
		}
		return normalizeYAML(raw), nil
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
}

// normalize detects the document shape and returns its selector entries
func normalize(raw interface{}) (Shape, []interface{}, error) {
	switch v := raw.(type) {
	case []interface{}:
		return ShapeList, v, nil
	case map[string]interface{}:
		selectors, ok := v["selectors"]
		if !ok {
			return ShapeSingle, []interface{}{v}, nil
		}
		list, ok := selectors.([]interface{})
		if !ok {
			return ShapeWrapped, nil, ErrSelectorsNotArray
		}
		return ShapeWrapped, list, nil
	default:
		// Any other value is treated as a single entry; it will fail at build time
		return ShapeSingle, []interface{}{v}, nil
	}
}

func toSpec(index int, entry interface{}) Spec {
	spec := Spec{
		Index:      index,
		Parameters: map[string]interface{}{},
		Active:     true,
	}

	obj, ok := entry.(map[string]interface{})
	if !ok {
		return spec
	}

	if v, ok := lookup(obj, typeKeys); ok {
		spec.Type, _ = v.(string)
	}

	if v, ok := obj["alias"]; ok {
		spec.Alias, _ = v.(string)
	}
	if spec.Alias == "" {
		spec.Alias = spec.Type
	}

	if v, ok := lookup(obj, paramKeys); ok {
		if params, ok := v.(map[string]interface{}); ok {
			spec.Parameters = params
		}
	}

	// Only a literal false deactivates a spec
	if v, ok := lookup(obj, activeKeys); ok {
		if b, ok := v.(bool); ok && !b {
			spec.Active = false
		}
	}

	return spec
}

func lookup(obj map[string]interface{}, keys []string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// normalizeYAML converts map[interface{}]interface{} nodes to string keyed maps
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

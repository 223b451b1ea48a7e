package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Filename is the well-known name of the application manifest.
const Filename = "package.json"

// overridesKey is the manifest field holding per-platform override blocks.
const overridesKey = "platformOverrides"

var (
	// errNameRequired is returned when the manifest lacks the mandatory name field.
	errNameRequired = errors.New("application manifest has no name field")
	// errMalformedOverrides is returned when platformOverrides is not an object of objects.
	errMalformedOverrides = errors.New("platformOverrides must map platform names to objects")
)

// Manifest is a parsed application manifest (package.json).
// It keeps the full document so platform-specific variants can be rendered
// without losing fields the packager does not know about.
type Manifest struct {
	// Name is the application name.
	Name string
	// Version is the application version, empty when not declared.
	Version string
	// Copyright is an optional copyright line consumed by bundle finishing.
	Copyright string

	// fields is the complete decoded document.
	fields map[string]any
	// overrides is the decoded platformOverrides block, keyed by platform name.
	overrides map[string]any
}

// Parse decodes an application manifest from raw JSON.
func Parse(data []byte) (*Manifest, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse application manifest: %w", err)
	}

	m := &Manifest{fields: fields}
	m.Name, _ = fields["name"].(string)
	m.Version, _ = fields["version"].(string)
	m.Copyright, _ = fields["copyright"].(string)

	if m.Name == "" {
		return nil, errNameRequired
	}

	if raw, ok := fields[overridesKey]; ok {
		overrides, ok := raw.(map[string]any)
		if !ok {
			return nil, errMalformedOverrides
		}

		for name, value := range overrides {
			if _, ok := value.(map[string]any); !ok {
				return nil, fmt.Errorf("%w: %q", errMalformedOverrides, name)
			}
		}

		m.overrides = overrides
	}

	return m, nil
}

// Load reads and parses the application manifest at the given path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read application manifest: %w", err)
	}

	return Parse(data)
}

// HasOverrides reports whether the manifest declares any platform override block.
func (m *Manifest) HasOverrides() bool {
	return len(m.overrides) > 0
}

// MergedJSON renders the platform-specific manifest for the named platform.
// The override block is merged onto the base document and the
// platformOverrides field itself is dropped from the output. The second
// return value is false when the platform has no override entry or the
// entry is an empty object, so such platforms keep the base manifest as-is.
//
// Merging follows JSON merge patch semantics: objects merge recursively,
// a null value deletes the key, and any other value replaces the base one.
func (m *Manifest) MergedJSON(platformName string) ([]byte, bool, error) {
	raw, ok := m.overrides[platformName]
	if !ok {
		return nil, false, nil
	}

	//nolint:errcheck // Parse guarantees override values are objects.
	override := raw.(map[string]any)
	if len(override) == 0 {
		return nil, false, nil
	}

	base := make(map[string]any, len(m.fields))
	for k, v := range m.fields {
		if k == overridesKey {
			continue
		}

		base[k] = v
	}

	merged := merge(base, override)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, false, fmt.Errorf("render manifest for platform %q: %w", platformName, err)
	}

	return data, true, nil
}

// merge applies override onto base without mutating either map.
func merge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}

	for k, v := range override {
		if v == nil {
			delete(out, k)
			continue
		}

		if sub, ok := v.(map[string]any); ok {
			if baseSub, ok := out[k].(map[string]any); ok {
				out[k] = merge(baseSub, sub)
				continue
			}
		}

		out[k] = v
	}

	return out
}

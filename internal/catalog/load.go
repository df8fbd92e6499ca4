package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file mirrors the on-disk catalog document. JSON documents decode through
// the same path since JSON is valid YAML.
type file struct {
	Version     string    `yaml:"version"`
	GameVersion string    `yaml:"game_version"`
	Source      string    `yaml:"source"`
	Upgrades    []Upgrade `yaml:"upgrades"`
}

// numericLevelFields are the per-level keys that must never arrive as strings.
var numericLevelFields = []string{"cost", "cumulative_effect", "effect_delta"}

// Load reads and parses the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML or JSON catalog document.
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if result := CheckRaw(raw); !result.OK() {
		return nil, fmt.Errorf("%w:\n%s", ErrInvalidCatalog, result.Summary())
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Version, f.GameVersion, f.Source, f.Upgrades)
}

// CheckRaw inspects an untyped document for shape problems that a typed
// decode would either reject with a poor message or silently coerce, such as
// a cost written as "1.2M".
func CheckRaw(raw any) *ValidationResult {
	result := &ValidationResult{}

	doc, ok := raw.(map[string]any)
	if !ok {
		result.addError("", 0, "document_shape", "top-level document must be a mapping", "")
		return result
	}

	upgrades, ok := doc["upgrades"].([]any)
	if !ok {
		result.addError("", 0, "document_shape", "'upgrades' must be a list", "")
		return result
	}

	for i, item := range upgrades {
		u, ok := item.(map[string]any)
		if !ok {
			result.addError("", 0, "document_shape", fmt.Sprintf("upgrades[%d] must be a mapping", i), "")
			continue
		}

		name := fmt.Sprintf("upgrades[%d]", i)
		if id, ok := u["id"].(string); ok && id != "" {
			name = id
		}

		levels, ok := u["levels"].([]any)
		if !ok {
			result.addError(name, 0, "document_shape", "'levels' must be a list", "")
			continue
		}

		for j, item := range levels {
			lv, ok := item.(map[string]any)
			if !ok {
				result.addError(name, 0, "document_shape", fmt.Sprintf("levels[%d] must be a mapping", j), "")
				continue
			}
			for _, field := range numericLevelFields {
				if s, isString := lv[field].(string); isString {
					result.addError(name, j+1, "numeric_field",
						fmt.Sprintf("levels[%d].%s: string value %q, expected a number", j, field, s),
						"Expand suffixed values such as 1.2M to plain numbers in the source data")
				}
			}
		}
	}
	return result
}

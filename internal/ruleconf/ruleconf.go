// Package ruleconf overlays user-supplied threshold overrides onto the
// built-in diagnostic rules. Overrides change bounds and enablement only;
// evaluators always stay the built-in ones.
package ruleconf

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

// Override adjusts one rule. Nil fields keep the built-in value.
type Override struct {
	Warning  *float64 `yaml:"warning"`
	Critical *float64 `yaml:"critical"`
	Disabled *bool    `yaml:"disabled"`
}

// File is the overrides document: a map from rule name to override.
type File struct {
	Rules map[string]Override `yaml:"rules"`
}

// Load parses an overrides document.
func Load(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rule overrides: %w", err)
	}
	return &f, nil
}

// Apply returns a new rule slice with the overrides applied. An override
// naming an unknown rule is an error, so typos fail loudly instead of
// silently keeping defaults.
func (f *File) Apply(rules []model.Rule) ([]model.Rule, error) {
	known := make(map[string]bool, len(rules))
	out := make([]model.Rule, len(rules))
	copy(out, rules)

	for i := range out {
		known[out[i].Name] = true
		ov, ok := f.Rules[out[i].Name]
		if !ok {
			continue
		}
		if ov.Warning != nil {
			out[i].Warning = *ov.Warning
		}
		if ov.Critical != nil {
			out[i].Critical = *ov.Critical
		}
		if ov.Disabled != nil {
			out[i].Disabled = *ov.Disabled
		}
		if err := validateBounds(out[i]); err != nil {
			return nil, err
		}
	}

	for name := range f.Rules {
		if !known[name] {
			return nil, fmt.Errorf("rule override %q does not match any rule", name)
		}
	}
	return out, nil
}

func validateBounds(r model.Rule) error {
	if r.Below {
		if r.Critical > r.Warning {
			return fmt.Errorf("rule %q: critical bound %.2f must not exceed warning bound %.2f", r.Name, r.Critical, r.Warning)
		}
		return nil
	}
	if r.Critical < r.Warning {
		return fmt.Errorf("rule %q: critical bound %.2f must not be below warning bound %.2f", r.Name, r.Critical, r.Warning)
	}
	return nil
}

package ruleconf

import (
	"strings"
	"testing"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

func TestApplyOverrides(t *testing.T) {
	f, err := Load([]byte(`
rules:
  buffer_cache_hit_ratio:
    warning: 95
    critical: 92
  gc_block_latency:
    disabled: true
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rules, err := f.Apply(model.DefaultRules())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, r := range rules {
		switch r.Name {
		case "buffer_cache_hit_ratio":
			if r.Warning != 95 || r.Critical != 92 {
				t.Errorf("bounds = %.0f/%.0f, want 95/92", r.Warning, r.Critical)
			}
			if r.Evaluator == nil {
				t.Error("override lost the evaluator")
			}
		case "gc_block_latency":
			if !r.Disabled {
				t.Error("disabled override not applied")
			}
		case "soft_parse_ratio":
			if r.Warning != 80 || r.Critical != 60 {
				t.Error("untouched rule changed")
			}
		}
	}

	// the built-in set must stay pristine
	for _, r := range model.DefaultRules() {
		if r.Name == "buffer_cache_hit_ratio" && r.Warning != 90 {
			t.Error("Apply mutated the input slice")
		}
	}
}

func TestUnknownRuleRejected(t *testing.T) {
	f, err := Load([]byte("rules:\n  bufer_cache_hit_ratio:\n    warning: 95\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := f.Apply(model.DefaultRules()); err == nil || !strings.Contains(err.Error(), "bufer_cache_hit_ratio") {
		t.Errorf("err = %v, want unknown-rule error naming the typo", err)
	}
}

func TestInvertedBoundsRejected(t *testing.T) {
	f, err := Load([]byte("rules:\n  buffer_cache_hit_ratio:\n    critical: 99\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := f.Apply(model.DefaultRules()); err == nil {
		t.Error("critical above warning accepted for a below-threshold rule")
	}
}

package gui

import (
	"testing"

	"jordanella.com/tower-bot-go/pkg/templates"
)

func TestIsTemplateRegion(t *testing.T) {
	for _, name := range []string{"defence_region", "claim_region", "new_perk_region"} {
		if !isTemplateRegion(name) {
			t.Errorf("%s should accept a template", name)
		}
	}
	for _, name := range []string{"wave_region", "perk1_region", "float_gem_coord"} {
		if isTemplateRegion(name) {
			t.Errorf("%s should be OCR only", name)
		}
	}
}

func TestDescribeRegistry(t *testing.T) {
	stats := templates.CacheStats{Hits: 4, Misses: 1, Loads: 2}

	got := describeRegistry("templates", []string{"claim_region", "defence_region"}, stats)
	want := "templates: claim_region, defence_region (cache 4 hits, 1 misses, 2 loads)"
	if got != want {
		t.Errorf("describeRegistry() = %q, want %q", got, want)
	}

	if got := describeRegistry("templates", nil, templates.CacheStats{}); got != "templates: none (cache 0 hits, 0 misses, 0 loads)" {
		t.Errorf("empty registry = %q", got)
	}
}

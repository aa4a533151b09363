package launcher

import (
	"testing"

	"jordanella.com/tower-bot-go/internal/bot"
)

func TestTemplateNamesAreTemplateRegions(t *testing.T) {
	want := []string{"defence_region", "claim_region", "new_perk_region"}

	names := TemplateNames()
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	regions := make(map[string]bool, len(bot.AllRegions))
	for _, key := range bot.AllRegions {
		regions[string(key)] = true
	}
	for i, name := range names {
		if name != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, name, want[i])
		}
		if !regions[name] {
			t.Errorf("template %q has no region to crop", name)
		}
	}
}

func TestOpenDeviceRejectsUnknownBackend(t *testing.T) {
	_, err := OpenDevice(bot.DeviceConfig{Backend: "telnet"})
	if err == nil {
		t.Fatal("Expected error for unknown backend")
	}
}

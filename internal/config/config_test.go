package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/cv"
)

func TestLoadFromINIMissingFileGivesDefaults(t *testing.T) {
	settings, err := LoadFromINI(filepath.Join(t.TempDir(), "Settings.ini"))
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}
	if !settings.Retry || settings.Perk {
		t.Errorf("Unexpected default toggles: %+v", settings.Toggles)
	}
	if settings.Cooldown(bot.TaskPerk) != 3*time.Second {
		t.Errorf("Expected perk cooldown 3s, got %v", settings.Cooldown(bot.TaskPerk))
	}
}

func TestINIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")

	want := bot.NewDefaultSettings()
	want.Perk = true
	want.Debug = true
	want.HealthStop = 150
	want.Intervals[bot.TaskRetry] = 1500 * time.Millisecond
	want.Cooldowns[bot.TaskGems] = 4 * time.Second
	want.TickDelay = 250 * time.Millisecond
	want.Device.Backend = bot.BackendDesktop
	want.Device.Serial = "127.0.0.1:5555"
	want.Paths.Database = "history.db"
	want.LogLevel = "DEBUG"

	if err := SaveToINI(want, path); err != nil {
		t.Fatalf("SaveToINI failed: %v", err)
	}

	got, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}

	if got.Toggles != want.Toggles {
		t.Errorf("Toggles = %+v, want %+v", got.Toggles, want.Toggles)
	}
	if got.Thresholds != want.Thresholds {
		t.Errorf("Thresholds = %+v, want %+v", got.Thresholds, want.Thresholds)
	}
	if got.Interval(bot.TaskRetry) != 1500*time.Millisecond {
		t.Errorf("retry interval = %v", got.Interval(bot.TaskRetry))
	}
	if got.Cooldown(bot.TaskGems) != 4*time.Second {
		t.Errorf("gems cooldown = %v", got.Cooldown(bot.TaskGems))
	}
	if got.TickDelay != 250*time.Millisecond {
		t.Errorf("tick delay = %v", got.TickDelay)
	}
	if got.Device != want.Device {
		t.Errorf("Device = %+v, want %+v", got.Device, want.Device)
	}
	if got.Paths != want.Paths || got.LogLevel != "DEBUG" {
		t.Errorf("Paths/LogLevel not preserved: %+v %s", got.Paths, got.LogLevel)
	}
}

func TestINIUnknownBackendFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte("[Device]\nbackend = telepathy\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	settings, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}
	if settings.Device.Backend != bot.BackendADB {
		t.Errorf("Expected adb fallback, got %s", settings.Device.Backend)
	}
}

func TestLoadRegionsWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.json")

	regions, points, err := LoadRegions(path)
	if err != nil {
		t.Fatalf("LoadRegions failed: %v", err)
	}
	if regions[bot.RegionWave] != bot.DefaultRegions()[bot.RegionWave] {
		t.Errorf("Expected default wave region, got %v", regions[bot.RegionWave])
	}
	if points[bot.PointDefTab] != (cv.Point{X: 530, Y: 2420}) {
		t.Errorf("Expected default def tab point, got %v", points[bot.PointDefTab])
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults should be written on first run: %v", err)
	}
}

func TestRegionsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.json")

	regions := bot.DefaultRegions()
	regions[bot.RegionClaim] = cv.NewRegion(1, 2, 3, 4)
	points := bot.DefaultPoints()
	points[bot.PointFloatGem] = cv.Point{X: 7, Y: 8}

	if err := SaveRegions(path, regions, points); err != nil {
		t.Fatalf("SaveRegions failed: %v", err)
	}
	gotRegions, gotPoints, err := LoadRegions(path)
	if err != nil {
		t.Fatalf("LoadRegions failed: %v", err)
	}
	if gotRegions[bot.RegionClaim] != cv.NewRegion(1, 2, 3, 4) {
		t.Errorf("claim region = %v", gotRegions[bot.RegionClaim])
	}
	if gotPoints[bot.PointFloatGem] != (cv.Point{X: 7, Y: 8}) {
		t.Errorf("float gem = %v", gotPoints[bot.PointFloatGem])
	}
}

func TestLoadRegionsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown key ignored", `{"mystery_region": [1, 2, 3, 4], "wave_region": [5, 6, 7, 8]}`, nil},
		{"region with two values", `{"claim_region": [1, 2]}`, ErrBadArity},
		{"point with four values", `{"float_gem_coord": [1, 2, 3, 4]}`, ErrBadArity},
		{"zero width", `{"health_region": [1, 2, 0, 4]}`, ErrInvalidRegion},
		{"negative height", `{"health_region": [1, 2, 3, -4]}`, ErrInvalidRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "regions.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}

			regions, _, err := LoadRegions(path)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if regions[bot.RegionWave] != cv.NewRegion(5, 6, 7, 8) {
					t.Errorf("known key should still load, got %v", regions[bot.RegionWave])
				}
				if _, ok := regions[bot.RegionKey("mystery_region")]; ok {
					t.Error("unknown key must not be stored")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadRegionsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadRegions(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestPerksRoundTripLowercases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perks.yaml")
	if err := os.WriteFile(path, []byte("perks:\n  - \"  Max Health \"\n  - \"\"\n  - Damage\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	perks, err := LoadPerks(path)
	if err != nil {
		t.Fatalf("LoadPerks failed: %v", err)
	}
	if len(perks) != 2 || perks[0] != "max health" || perks[1] != "damage" {
		t.Errorf("Unexpected perks %q", perks)
	}
}

func TestLoadPerksWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perks.yaml")
	perks, err := LoadPerks(path)
	if err != nil {
		t.Fatalf("LoadPerks failed: %v", err)
	}
	if len(perks) != len(bot.DefaultPerkPriority()) {
		t.Errorf("Expected %d default perks, got %d", len(bot.DefaultPerkPriority()), len(perks))
	}

	again, err := LoadPerks(path)
	if err != nil || len(again) != len(perks) {
		t.Errorf("written defaults should load back, got %d perks, err %v", len(again), err)
	}
}

func TestLoadResolvesSideFiles(t *testing.T) {
	dir := t.TempDir()
	iniPath := filepath.Join(dir, "Settings.ini")

	settings, err := Load(iniPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Paths.Regions != filepath.Join(dir, "regions.json") {
		t.Errorf("regions path not resolved: %s", settings.Paths.Regions)
	}
	for _, name := range []string{"regions.json", "perks.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should be created: %v", name, err)
		}
	}
}

func TestSaveThenLoadKeepsSideFilesBesideINI(t *testing.T) {
	chdir(t, t.TempDir())
	iniPath := filepath.Join("conf", "Settings.ini")

	first, err := Load(iniPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	wantRegions := filepath.Join("conf", "regions.json")
	if first.Paths.Regions != wantRegions {
		t.Fatalf("regions path = %s, want %s", first.Paths.Regions, wantRegions)
	}

	claim := cv.NewRegion(11, 22, 33, 44)
	first.Regions[bot.RegionClaim] = claim
	first.PerkPriority = []string{"orbs", "damage"}

	if err := SaveToINI(first, iniPath); err != nil {
		t.Fatalf("SaveToINI failed: %v", err)
	}
	if err := SaveRegions(first.Paths.Regions, first.Regions, first.Points); err != nil {
		t.Fatalf("SaveRegions failed: %v", err)
	}
	if err := SavePerks(first.Paths.Perks, first.PerkPriority); err != nil {
		t.Fatalf("SavePerks failed: %v", err)
	}

	raw, err := LoadFromINI(iniPath)
	if err != nil {
		t.Fatalf("LoadFromINI failed: %v", err)
	}
	if raw.Paths.Regions != "regions.json" || raw.Paths.Database != "towerbot.db" {
		t.Errorf("ini entries should stay relative to the ini, got %+v", raw.Paths)
	}

	// Loading and saving twice must not move the side files
	for i := 0; i < 2; i++ {
		again, err := Load(iniPath)
		if err != nil {
			t.Fatalf("Load #%d failed: %v", i+2, err)
		}
		if again.Paths.Regions != wantRegions {
			t.Errorf("Load #%d regions path = %s, want %s", i+2, again.Paths.Regions, wantRegions)
		}
		if again.Region(bot.RegionClaim) != claim {
			t.Errorf("Load #%d claim region = %v, want %v", i+2, again.Region(bot.RegionClaim), claim)
		}
		if len(again.PerkPriority) != 2 || again.PerkPriority[0] != "orbs" {
			t.Errorf("Load #%d perks = %v", i+2, again.PerkPriority)
		}
		if err := SaveToINI(again, iniPath); err != nil {
			t.Fatalf("SaveToINI #%d failed: %v", i+2, err)
		}
	}

	if _, err := os.Stat(filepath.Join("conf", "conf")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("side files leaked into a nested directory: %v", err)
	}
}

func TestRelativeTo(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(filepath.Dir(base), "elsewhere", "regions.json")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"inside", filepath.Join(base, "regions.json"), "regions.json"},
		{"nested", filepath.Join(base, "templates", "claim.png"), filepath.Join("templates", "claim.png")},
		{"outside stays absolute", outside, outside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTo(base, tt.path); got != tt.want {
				t.Errorf("relativeTo() = %q, want %q", got, tt.want)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/logging"
)

var log = logging.NewLogger("Config")

// Load reads Settings.ini and the side files it points at. Relative side
// file paths are resolved against the directory holding the ini file.
// Missing files are created with defaults.
func Load(iniPath string) (*bot.Settings, error) {
	settings, err := LoadFromINI(iniPath)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(iniPath)
	settings.Paths.Regions = resolve(base, settings.Paths.Regions)
	settings.Paths.Perks = resolve(base, settings.Paths.Perks)
	settings.Paths.Templates = resolve(base, settings.Paths.Templates)
	settings.Paths.Database = resolve(base, settings.Paths.Database)
	settings.Paths.Resolved = true

	regions, points, err := LoadRegions(settings.Paths.Regions)
	if err != nil {
		return nil, err
	}
	settings.Regions = regions
	settings.Points = points

	perks, err := LoadPerks(settings.Paths.Perks)
	if err != nil {
		return nil, err
	}
	settings.PerkPriority = perks

	settings.Normalize()
	return settings, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// relativeTo turns a resolved path back into an ini entry for an ini file
// in base. Paths outside base stay absolute.
func relativeTo(base, path string) string {
	if path == "" {
		return path
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return absPath
	}
	return rel
}

// LoadFromINI loads settings from a Settings.ini file. A missing file
// yields the defaults.
func LoadFromINI(path string) (*bot.Settings, error) {
	settings := bot.NewDefaultSettings()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.InfoWithContext("Settings file not found, using defaults", map[string]interface{}{"path": path})
		return settings, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Features
	features := cfg.Section("Features")
	settings.Retry = features.Key("retry").MustBool(settings.Retry)
	settings.Health = features.Key("health").MustBool(settings.Health)
	settings.AbsDef = features.Key("abs_def").MustBool(settings.AbsDef)
	settings.Gems = features.Key("gems").MustBool(settings.Gems)
	settings.Float = features.Key("float").MustBool(settings.Float)
	settings.Perk = features.Key("perk").MustBool(settings.Perk)
	settings.Debug = features.Key("debug").MustBool(settings.Debug)

	// Stop thresholds
	thresholds := cfg.Section("Thresholds")
	settings.HealthStop = thresholds.Key("health_stop").MustInt(settings.HealthStop)
	settings.AbsDefStop = thresholds.Key("abs_def_stop").MustInt(settings.AbsDefStop)
	settings.PerkStop = thresholds.Key("perk_stop").MustInt(settings.PerkStop)

	// Schedule, in seconds
	intervals := cfg.Section("Intervals")
	for _, task := range bot.AllTasks {
		if intervals.HasKey(string(task)) {
			settings.Intervals[task] = seconds(intervals.Key(string(task)).MustFloat64(0))
		}
	}
	settings.TickDelay = seconds(intervals.Key("tick").MustFloat64(settings.TickDelay.Seconds()))
	settings.LivenessInterval = seconds(intervals.Key("liveness").MustFloat64(settings.LivenessInterval.Seconds()))

	cooldowns := cfg.Section("Cooldowns")
	for _, task := range bot.AllTasks {
		if cooldowns.HasKey(string(task)) {
			settings.Cooldowns[task] = seconds(cooldowns.Key(string(task)).MustFloat64(0))
		}
	}

	// Device
	device := cfg.Section("Device")
	backend := bot.Backend(device.Key("backend").In(string(settings.Device.Backend),
		[]string{string(bot.BackendADB), string(bot.BackendDesktop)}))
	settings.Device.Backend = backend
	settings.Device.ADBPath = device.Key("adb_path").MustString(settings.Device.ADBPath)
	settings.Device.Serial = device.Key("serial").MustString(settings.Device.Serial)
	settings.Device.Package = device.Key("package").MustString(settings.Device.Package)
	settings.Device.ProcessMatch = device.Key("process_match").MustString(settings.Device.ProcessMatch)
	settings.Device.Display = device.Key("display").MustInt(settings.Device.Display)

	// Side files
	paths := cfg.Section("Paths")
	settings.Paths.Regions = paths.Key("regions").MustString(settings.Paths.Regions)
	settings.Paths.Perks = paths.Key("perks").MustString(settings.Paths.Perks)
	settings.Paths.Templates = paths.Key("templates").MustString(settings.Paths.Templates)
	settings.Paths.Database = paths.Key("database").MustString(settings.Paths.Database)

	settings.LogLevel = cfg.Section("Logging").Key("level").MustString(settings.LogLevel)

	settings.Normalize()
	return settings, nil
}

// SaveToINI saves settings to an INI file. Regions and perks live in
// their own files.
func SaveToINI(settings *bot.Settings, path string) error {
	cfg := ini.Empty()

	// Features
	features := cfg.Section("Features")
	features.Key("retry").SetValue(strconv.FormatBool(settings.Retry))
	features.Key("health").SetValue(strconv.FormatBool(settings.Health))
	features.Key("abs_def").SetValue(strconv.FormatBool(settings.AbsDef))
	features.Key("gems").SetValue(strconv.FormatBool(settings.Gems))
	features.Key("float").SetValue(strconv.FormatBool(settings.Float))
	features.Key("perk").SetValue(strconv.FormatBool(settings.Perk))
	features.Key("debug").SetValue(strconv.FormatBool(settings.Debug))

	// Stop thresholds
	thresholds := cfg.Section("Thresholds")
	thresholds.Key("health_stop").SetValue(strconv.Itoa(settings.HealthStop))
	thresholds.Key("abs_def_stop").SetValue(strconv.Itoa(settings.AbsDefStop))
	thresholds.Key("perk_stop").SetValue(strconv.Itoa(settings.PerkStop))

	// Schedule, in seconds
	intervals := cfg.Section("Intervals")
	cooldowns := cfg.Section("Cooldowns")
	for _, task := range bot.AllTasks {
		if d, ok := settings.Intervals[task]; ok {
			intervals.Key(string(task)).SetValue(formatSeconds(d))
		}
		if d, ok := settings.Cooldowns[task]; ok {
			cooldowns.Key(string(task)).SetValue(formatSeconds(d))
		}
	}
	intervals.Key("tick").SetValue(formatSeconds(settings.TickDelay))
	intervals.Key("liveness").SetValue(formatSeconds(settings.LivenessInterval))

	// Device
	device := cfg.Section("Device")
	device.Key("backend").SetValue(string(settings.Device.Backend))
	device.Key("adb_path").SetValue(settings.Device.ADBPath)
	device.Key("serial").SetValue(settings.Device.Serial)
	device.Key("package").SetValue(settings.Device.Package)
	device.Key("process_match").SetValue(settings.Device.ProcessMatch)
	device.Key("display").SetValue(strconv.Itoa(settings.Device.Display))

	// Side files
	entry := func(p string) string { return p }
	if settings.Paths.Resolved {
		base := filepath.Dir(path)
		entry = func(p string) string { return filepath.ToSlash(relativeTo(base, p)) }
	}
	paths := cfg.Section("Paths")
	paths.Key("regions").SetValue(entry(settings.Paths.Regions))
	paths.Key("perks").SetValue(entry(settings.Paths.Perks))
	paths.Key("templates").SetValue(entry(settings.Paths.Templates))
	paths.Key("database").SetValue(entry(settings.Paths.Database))

	cfg.Section("Logging").Key("level").SetValue(settings.LogLevel)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

package bot

import (
	"strings"
	"time"

	"jordanella.com/tower-bot-go/internal/cv"
)

// TaskKey names one independently scheduled and debounced task
type TaskKey string

const (
	TaskRetry   TaskKey = "retry"
	TaskDefence TaskKey = "def"
	TaskUpgrade TaskKey = "upg"
	TaskGems    TaskKey = "gems"
	TaskFloat   TaskKey = "float"
	TaskPerk    TaskKey = "perk"
	TaskWave    TaskKey = "wave"
)

// AllTasks lists task keys in tick order
var AllTasks = []TaskKey{TaskWave, TaskRetry, TaskDefence, TaskUpgrade, TaskFloat, TaskGems, TaskPerk}

// RegionKey names a persisted screen region. The string is the key used
// in regions.json and the template file name.
type RegionKey string

const (
	RegionNewPerk RegionKey = "new_perk_region"
	RegionPerk1   RegionKey = "perk1_region"
	RegionPerk2   RegionKey = "perk2_region"
	RegionPerk3   RegionKey = "perk3_region"
	RegionPerk4   RegionKey = "perk4_region"
	RegionRetry1  RegionKey = "retry1_region"
	RegionRetry2  RegionKey = "retry2_region"
	RegionDefence RegionKey = "defence_region"
	RegionHealth  RegionKey = "health_region"
	RegionAbsDef  RegionKey = "abs_def_region"
	RegionClaim   RegionKey = "claim_region"
	RegionWave    RegionKey = "wave_region"
)

// AllRegions lists every region key in persistence order
var AllRegions = []RegionKey{
	RegionNewPerk, RegionPerk1, RegionPerk2, RegionPerk3, RegionPerk4,
	RegionRetry1, RegionRetry2, RegionDefence, RegionHealth, RegionAbsDef,
	RegionClaim, RegionWave,
}

// PerkRegions are scanned in this order during perk selection
var PerkRegions = []RegionKey{RegionPerk1, RegionPerk2, RegionPerk3, RegionPerk4}

// PointKey names a persisted direct-tap coordinate
type PointKey string

const (
	PointFloatGem PointKey = "float_gem_coord"
	PointDefTab   PointKey = "def_tab_tap_coord"
)

// AllPoints lists every point key in persistence order
var AllPoints = []PointKey{PointFloatGem, PointDefTab}

// Backend selects the device implementation
type Backend string

const (
	BackendADB     Backend = "adb"
	BackendDesktop Backend = "desktop"
)

// Toggles are the per-feature on/off switches
type Toggles struct {
	Retry  bool
	Health bool
	AbsDef bool
	Gems   bool
	Float  bool
	Perk   bool
	Debug  bool
}

// Thresholds stop a task once the wave number reaches the limit
type Thresholds struct {
	HealthStop int
	AbsDefStop int
	PerkStop   int
}

// NoStop is the default threshold; no real run reaches it
const NoStop = 999999

// DeviceConfig selects and configures the device backend
type DeviceConfig struct {
	Backend      Backend
	ADBPath      string // empty means search PATH and common locations
	Serial       string // adb -s target, e.g. "127.0.0.1:5555"
	Package      string // Android package probed by the ADB liveness check
	ProcessMatch string // substring probed by the desktop liveness check
	Display      int    // desktop capture display index
}

// PathsConfig locates the persisted side files. Resolved is set once
// relative entries have been joined onto the ini file's directory.
type PathsConfig struct {
	Regions   string
	Perks     string
	Templates string
	Database  string
	Resolved  bool
}

// Settings is everything the controller may edit. The scheduler reads a
// snapshot once per tick and never mutates it.
type Settings struct {
	Toggles
	Thresholds

	// Schedule spacing per task
	Intervals map[TaskKey]time.Duration
	// Debounce window per task; normalized to cover every task
	Cooldowns map[TaskKey]time.Duration

	Regions map[RegionKey]cv.Region
	Points  map[PointKey]cv.Point

	// Lowercase phrases, highest priority first
	PerkPriority []string

	TickDelay        time.Duration
	LivenessInterval time.Duration

	Device   DeviceConfig
	Paths    PathsConfig
	LogLevel string
}

// DefaultIntervals returns the per-task schedule spacing
func DefaultIntervals() map[TaskKey]time.Duration {
	return map[TaskKey]time.Duration{
		TaskRetry:   2 * time.Second,
		TaskDefence: 1 * time.Second,
		TaskUpgrade: 1 * time.Second,
		TaskGems:    1 * time.Second,
		TaskWave:    1 * time.Second,
		TaskFloat:   2 * time.Second,
		TaskPerk:    2 * time.Second,
	}
}

// DefaultCooldowns returns the per-task debounce windows
func DefaultCooldowns() map[TaskKey]time.Duration {
	return map[TaskKey]time.Duration{
		TaskRetry:   2 * time.Second,
		TaskDefence: 1 * time.Second,
		TaskUpgrade: 1 * time.Second,
		TaskGems:    1 * time.Second,
		TaskFloat:   2 * time.Second,
		TaskPerk:    3 * time.Second,
	}
}

// DefaultRegions returns the compiled-in region layout
func DefaultRegions() map[RegionKey]cv.Region {
	return map[RegionKey]cv.Region{
		RegionNewPerk: cv.NewRegion(483, 194, 505, 73),
		RegionPerk1:   cv.NewRegion(159, 553, 1124, 243),
		RegionPerk2:   cv.NewRegion(159, 818, 1124, 213),
		RegionPerk3:   cv.NewRegion(159, 1072, 1124, 224),
		RegionPerk4:   cv.NewRegion(159, 1336, 1124, 224),
		RegionRetry1:  cv.NewRegion(250, 1850, 280, 80),
		RegionRetry2:  cv.NewRegion(256, 1920, 284, 80),
		RegionDefence: cv.NewRegion(10, 1490, 820, 90),
		RegionHealth:  cv.NewRegion(400, 1785, 270, 45),
		RegionAbsDef:  cv.NewRegion(1088, 2065, 276, 38),
		RegionClaim:   cv.NewRegion(86, 1023, 216, 68),
		RegionWave:    cv.NewRegion(743, 1315, 377, 65),
	}
}

// DefaultPoints returns the compiled-in direct-tap coordinates
func DefaultPoints() map[PointKey]cv.Point {
	return map[PointKey]cv.Point{
		PointFloatGem: {X: 960, Y: 748},
		PointDefTab:   {X: 530, Y: 2420},
	}
}

// DefaultPerkPriority returns the built-in perk ranking
func DefaultPerkPriority() []string {
	return []string{
		"increase max game speed",
		"perk wave requirement",
		"all coins bonuses",
		"cash bonus",
		"golden tower bonus",
		"black hole duration",
		"free upgrade chance",
		"defense percent",
		"max health",
		"unlock a random ultimate weapon",
		"enemies have",
		"damage",
		"defense absolute",
		"land mine damage",
		"orbs",
		"bounce shot",
		"chain lightning damage",
		"boss health but boss speed",
		"swamp radius",
		"extra set of inner mines",
		"death wave",
		"spotlight damage bonus",
		"chrono field duration",
		"more smart missiles",
		"interest",
		"health regen",
		"tower damage but bosses",
		"enemies damage tower damage",
		"enemies speed but enemies damage",
		"ranged enemies attack distance",
		"cash per wave",
		"lifesteal but knockback",
		"coins per wave tower health",
		"tower health regen but tower",
		"coins but tower max",
	}
}

// NewDefaultSettings returns settings matching a fresh install
func NewDefaultSettings() *Settings {
	s := &Settings{
		Toggles: Toggles{
			Retry:  true,
			Health: true,
			AbsDef: true,
			Gems:   true,
		},
		Thresholds: Thresholds{
			HealthStop: NoStop,
			AbsDefStop: NoStop,
			PerkStop:   NoStop,
		},
		Intervals:        DefaultIntervals(),
		Cooldowns:        DefaultCooldowns(),
		Regions:          DefaultRegions(),
		Points:           DefaultPoints(),
		PerkPriority:     DefaultPerkPriority(),
		TickDelay:        100 * time.Millisecond,
		LivenessInterval: 5 * time.Second,
		Device: DeviceConfig{
			Backend:      BackendADB,
			Package:      "com.TechTreeGames.TheTower",
			ProcessMatch: "tower",
		},
		Paths: PathsConfig{
			Regions:   "regions.json",
			Perks:     "perks.yaml",
			Templates: "templates",
			Database:  "towerbot.db",
		},
		LogLevel: "INFO",
	}
	s.Normalize()
	return s
}

// Normalize fills gaps so every reader sees complete tables. A task with
// no cooldown entry inherits its schedule interval.
func (s *Settings) Normalize() {
	if s.Intervals == nil {
		s.Intervals = DefaultIntervals()
	}
	if s.Cooldowns == nil {
		s.Cooldowns = make(map[TaskKey]time.Duration)
	}
	for key, interval := range s.Intervals {
		if _, ok := s.Cooldowns[key]; !ok {
			s.Cooldowns[key] = interval
		}
	}

	if s.Regions == nil {
		s.Regions = DefaultRegions()
	}
	if s.Points == nil {
		s.Points = DefaultPoints()
	}

	priority := make([]string, 0, len(s.PerkPriority))
	for _, phrase := range s.PerkPriority {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			priority = append(priority, phrase)
		}
	}
	s.PerkPriority = priority

	if s.TickDelay <= 0 {
		s.TickDelay = 100 * time.Millisecond
	}
	if s.LivenessInterval <= 0 {
		s.LivenessInterval = 5 * time.Second
	}
}

// Clone returns a deep copy safe to mutate
func (s *Settings) Clone() *Settings {
	c := *s

	c.Intervals = make(map[TaskKey]time.Duration, len(s.Intervals))
	for k, v := range s.Intervals {
		c.Intervals[k] = v
	}
	c.Cooldowns = make(map[TaskKey]time.Duration, len(s.Cooldowns))
	for k, v := range s.Cooldowns {
		c.Cooldowns[k] = v
	}
	c.Regions = make(map[RegionKey]cv.Region, len(s.Regions))
	for k, v := range s.Regions {
		c.Regions[k] = v
	}
	c.Points = make(map[PointKey]cv.Point, len(s.Points))
	for k, v := range s.Points {
		c.Points[k] = v
	}
	c.PerkPriority = append([]string(nil), s.PerkPriority...)

	return &c
}

// Interval returns the schedule spacing for a task, zero if unset
func (s *Settings) Interval(key TaskKey) time.Duration {
	return s.Intervals[key]
}

// Cooldown returns the debounce window for a task, zero if unset
func (s *Settings) Cooldown(key TaskKey) time.Duration {
	return s.Cooldowns[key]
}

// Region returns the configured region for key
func (s *Settings) Region(key RegionKey) cv.Region {
	return s.Regions[key]
}

// Point returns the configured tap point for key
func (s *Settings) Point(key PointKey) cv.Point {
	return s.Points[key]
}

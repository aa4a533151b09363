// Package launcher wires a Settings.ini into a runnable scheduler: device
// backend, OCR reader, templates, event bus, action history and watchdog.
// Both the headless runner and the GUI start the bot through it.
package launcher

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jordanella.com/tower-bot-go/internal/adb"
	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/config"
	"jordanella.com/tower-bot-go/internal/database"
	"jordanella.com/tower-bot-go/internal/desktop"
	"jordanella.com/tower-bot-go/internal/detect"
	"jordanella.com/tower-bot-go/internal/events"
	"jordanella.com/tower-bot-go/internal/logging"
	"jordanella.com/tower-bot-go/internal/monitor"
	"jordanella.com/tower-bot-go/internal/ocr"
	"jordanella.com/tower-bot-go/internal/ocr/tesseract"
	"jordanella.com/tower-bot-go/pkg/templates"
)

const eventBufferSize = 256

var log = logging.NewLogger("Launcher")

// Launcher owns every collaborator of one bot instance
type Launcher struct {
	iniPath string

	device    bot.Device
	reader    ocr.Reader
	templates *templates.TemplateRegistry
	bus       *events.DefaultEventBus
	db        *database.DB
	recorder  *database.Recorder

	// mu serializes lifecycle calls; current is read without it
	mu      sync.Mutex
	current atomic.Pointer[bot.Bot]
	health  *monitor.HealthChecker

	closers []func() error
}

// Open loads iniPath and builds a stopped bot. Optional collaborators
// degrade instead of failing: no tesseract means OCR reads nothing, a
// database error disables the action history.
func Open(iniPath string) (*Launcher, error) {
	settings, err := config.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	l := &Launcher{
		iniPath: iniPath,
		bus:     events.NewEventBus(eventBufferSize),
	}

	device, err := OpenDevice(settings.Device)
	if err != nil {
		l.bus.Stop()
		return nil, err
	}
	l.device = device
	if ctrl, ok := device.(*adb.Controller); ok {
		l.closers = append(l.closers, ctrl.Disconnect)
	}

	reader, err := tesseract.New("eng")
	if err != nil {
		log.Error("OCR unavailable, text checks will read nothing", err)
		l.reader = ocr.Null{}
	} else {
		l.reader = reader
		l.closers = append(l.closers, reader.Close)
	}

	l.templates = templates.NewTemplateRegistry(settings.Paths.Templates)
	if err := l.templates.LoadDirectory(TemplateNames()...); err != nil {
		log.Error("Failed to load templates", err)
	}

	if db, err := database.OpenAndMigrate(settings.Paths.Database); err != nil {
		log.Error("Action history disabled", err)
	} else {
		l.db = db
		if n, err := db.AbortRunningSessions(time.Now()); err != nil {
			log.Error("Failed to close stale sessions", err)
		} else if n > 0 {
			log.WarnWithContext("Marked interrupted sessions as aborted", map[string]interface{}{"count": n})
		}
		l.recorder = database.NewRecorder(db, l.bus)
		l.recorder.Attach()
	}

	b, err := l.buildBot(settings)
	if err != nil {
		l.Close()
		return nil, err
	}
	l.current.Store(b)

	log.InfoWithContext("Bot ready", map[string]interface{}{
		"device":    device.Name(),
		"templates": l.templates.Count(),
		"history":   l.db != nil,
	})
	return l, nil
}

// OpenDevice creates the backend selected in cfg
func OpenDevice(cfg bot.DeviceConfig) (bot.Device, error) {
	switch cfg.Backend {
	case bot.BackendDesktop:
		d, err := desktop.New(cfg.Display, cfg.ProcessMatch)
		if err != nil {
			return nil, fmt.Errorf("failed to open desktop display: %w", err)
		}
		return d, nil
	case bot.BackendADB, "":
		ctrl, err := adb.ConnectADB(cfg.ADBPath, cfg.Serial, cfg.Package)
		if err != nil {
			return nil, fmt.Errorf("failed to connect ADB: %w", err)
		}
		return ctrl, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// TemplateNames lists the template names the detector looks for. Only
// these are loaded from the templates directory.
func TemplateNames() []string {
	return detect.TemplateNames()
}

func (l *Launcher) buildBot(settings *bot.Settings) (*bot.Bot, error) {
	detector := detect.New(l.reader, l.templates, TemplateNames()...)
	return bot.New(settings, bot.Options{
		Device:   l.device,
		Detector: detector,
		Events:   l.bus,
	})
}

// Bot returns the current scheduler. Rebuild replaces it.
func (l *Launcher) Bot() *bot.Bot {
	return l.current.Load()
}

// Events exposes the bus for subscribers such as the GUI
func (l *Launcher) Events() *events.DefaultEventBus {
	return l.bus
}

// Templates exposes the template registry
func (l *Launcher) Templates() *templates.TemplateRegistry {
	return l.templates
}

// DB returns the action history, nil when disabled
func (l *Launcher) DB() *database.DB {
	return l.db
}

// IniPath returns the settings file the launcher was opened with
func (l *Launcher) IniPath() string {
	return l.iniPath
}

// Start launches the scheduler and its watchdog
func (l *Launcher) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.current.Load()
	if b.IsRunning() {
		return
	}

	l.health = monitor.NewHealthChecker(b).
		WithCheckInterval(b.Settings().LivenessInterval).
		WithUnhealthyCallback(func(reason string, err error) {
			log.ErrorWithContext("Scheduler unhealthy", err, map[string]interface{}{"reason": reason})
			l.bus.TryPublish(events.NewErrorEvent("watchdog", reason, err, nil))
		})
	b.Start()
	l.health.Start()
}

// Stop halts the watchdog and the scheduler
func (l *Launcher) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.health != nil {
		l.health.Stop()
		l.health = nil
	}
	l.current.Load().Stop()
}

// Rebuild re-reads templates and replaces the stopped scheduler so new
// template files take effect. Settings carry over.
func (l *Launcher) Rebuild() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.current.Load()
	if current.IsRunning() {
		return errors.New("stop the bot before reloading templates")
	}

	if err := l.templates.Refresh(TemplateNames()...); err != nil {
		return err
	}

	b, err := l.buildBot(current.Settings())
	if err != nil {
		return err
	}
	l.current.Store(b)
	return nil
}

// SaveSettings persists the current snapshot to Settings.ini and its side files
func (l *Launcher) SaveSettings() error {
	s := l.Bot().Settings()
	if err := config.SaveToINI(s, l.iniPath); err != nil {
		return err
	}
	if err := config.SaveRegions(s.Paths.Regions, s.Regions, s.Points); err != nil {
		return err
	}
	return config.SavePerks(s.Paths.Perks, s.PerkPriority)
}

// LastSession returns the newest recorded session with its aggregates
func (l *Launcher) LastSession() (*database.SessionSummary, error) {
	if l.db == nil {
		return nil, errors.New("action history disabled")
	}
	sessions, err := l.db.RecentSessions(1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, errors.New("no sessions recorded")
	}
	return l.db.GetSessionSummary(sessions[0].ID)
}

// Close stops the bot, drains pending events and releases every resource
func (l *Launcher) Close() error {
	if l.current.Load() != nil {
		l.Stop()
	}
	l.bus.Stop()
	if n := l.bus.Dropped(); n > 0 {
		log.WarnWithContext("Events dropped during run", map[string]interface{}{"count": n})
	}

	if l.recorder != nil {
		l.recorder.Detach()
	}

	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if l.db != nil {
		if err := l.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"jordanella.com/tower-bot-go/internal/cv"
	"jordanella.com/tower-bot-go/internal/detect"
	"jordanella.com/tower-bot-go/internal/events"
	"jordanella.com/tower-bot-go/internal/logging"
)

// Tapper injects a tap at frame pixel coordinates
type Tapper interface {
	Tap(x, y int) error
}

// AppChecker probes whether the game is running
type AppChecker interface {
	IsAppRunning() (bool, error)
}

// Device is everything the scheduler needs from a backend
type Device interface {
	cv.Capturer
	Tapper
	AppChecker
	Name() string
}

// Publisher is the subset of the event bus the scheduler uses
type Publisher interface {
	TryPublish(event events.Event) bool
}

// Options wires the scheduler's collaborators
type Options struct {
	Device   Device
	Detector *detect.Detector
	Events   Publisher        // optional
	Now      func() time.Time // optional, defaults to time.Now
}

// Bot runs the scheduler loop on one worker goroutine. Settings are
// replaced copy-on-write by the controller; runtime fields are written
// only by the worker and published through atomics.
type Bot struct {
	device   Device
	frames   *cv.Service
	detector *detect.Detector
	events   Publisher
	now      func() time.Time
	logger   *logging.Logger

	settingsMu sync.Mutex
	settings   atomic.Pointer[Settings]

	cooldowns *Cooldowns
	schedule  *Schedule

	wave  atomic.Int64
	state atomic.Int32
	ticks atomic.Int64

	lastLiveness time.Time

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped bot
func New(settings *Settings, opts Options) (*Bot, error) {
	if opts.Device == nil {
		return nil, fmt.Errorf("device is required")
	}
	if opts.Detector == nil {
		opts.Detector = detect.New(nil, nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if settings == nil {
		settings = NewDefaultSettings()
	}

	snapshot := settings.Clone()
	snapshot.Normalize()

	b := &Bot{
		device:    opts.Device,
		frames:    cv.NewService(opts.Device),
		detector:  opts.Detector,
		events:    opts.Events,
		now:       opts.Now,
		logger:    logging.NewLogger("Scheduler"),
		cooldowns: NewCooldowns(opts.Now),
		schedule:  NewSchedule(opts.Now()),
	}
	b.settings.Store(snapshot)
	b.applyDebugLevel(snapshot)
	return b, nil
}

// Settings returns the current snapshot. Callers must not mutate it.
func (b *Bot) Settings() *Settings {
	return b.settings.Load()
}

// UpdateSettings applies fn to a copy of the settings and publishes the
// copy. The worker sees the change on its next tick.
func (b *Bot) UpdateSettings(fn func(s *Settings)) {
	b.settingsMu.Lock()
	defer b.settingsMu.Unlock()

	next := b.settings.Load().Clone()
	fn(next)
	next.Normalize()
	b.settings.Store(next)
	b.applyDebugLevel(next)
}

// Wave returns the last parsed wave number
func (b *Bot) Wave() int {
	return int(b.wave.Load())
}

// State returns the current state machine state
func (b *Bot) State() BotState {
	return BotState(b.state.Load())
}

// Ticks returns the number of completed ticks
func (b *Bot) Ticks() int64 {
	return b.ticks.Load()
}

// Cooldowns exposes the debounce ledger
func (b *Bot) Cooldowns() *Cooldowns {
	return b.cooldowns
}

// Frames exposes the capture service shared with the GUI
func (b *Bot) Frames() *cv.Service {
	return b.frames
}

// IsRunning reports whether the worker is active
func (b *Bot) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Start launches the worker. Starting a running bot is a no-op.
func (b *Bot) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return
	}

	// A new run starts with every task due and an empty ledger
	b.cooldowns.Reset()
	b.schedule = NewSchedule(b.now())

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	b.running = true

	b.logger.InfoWithContext("Bot started", map[string]interface{}{"device": b.device.Name()})
	b.publish(events.NewBotStartedEvent(b.device.Name()))

	go b.run(ctx, b.done)
}

// Stop signals the worker and waits for it to finish its current tick.
// Stopping a stopped bot is a no-op.
func (b *Bot) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	cancel, done := b.cancel, b.done
	b.running = false
	b.mu.Unlock()

	cancel()
	<-done

	b.logger.InfoWithContext("Bot stopped", map[string]interface{}{
		"ticks": b.Ticks(),
		"wave":  b.Wave(),
	})
	b.publish(events.NewBotStoppedEvent(b.Ticks(), b.Wave()))
}

func (b *Bot) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	b.checkLiveness(true)

	for {
		if ctx.Err() != nil {
			return
		}

		b.Tick()

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.Settings().TickDelay):
		}
	}
}

// Tick runs one scheduler iteration against a freshly captured frame
func (b *Bot) Tick() {
	defer b.ticks.Add(1)

	s := b.Settings()
	b.checkLiveness(false)

	frame, err := b.frames.Frame()
	if err != nil {
		b.debug(s, "Capture failed, using placeholder frame", map[string]interface{}{"error": err.Error()})
	}

	if b.State() == StatePerkSelecting {
		b.debug(s, "PERK_SELECTING, running perk handler", nil)
		b.guard("perk_select", func() { b.handlePerkSelection(s, frame) })
		b.setState(StateIdle)
		return
	}

	now := b.now()
	b.guard("wave", func() { b.stepWave(s, frame, now) })
	b.guard("retry", func() { b.stepRetry(s, frame, now) })
	b.guard("defence", func() { b.stepDefenceTab(s, frame, now) })
	b.guard("upgrades", func() { b.stepUpgrades(s, frame, now) })
	b.guard("float", func() { b.stepFloatGem(s, now) })
	b.guard("gems", func() { b.stepClaimGems(s, frame, now) })
	b.guard("perk", func() { b.stepNewPerk(s, frame, now) })
}

// guard isolates one task so a panic degrades only that task
func (b *Bot) guard(task string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in %s task: %v", task, r)
			b.logger.ErrorWithContext("Task failed", err, map[string]interface{}{
				"task":  task,
				"stack": string(debug.Stack()),
			})
			b.publish(events.NewErrorEvent("scheduler", task, err, nil))
		}
	}()
	fn()
}

// checkLiveness probes the app at most once per LivenessInterval
func (b *Bot) checkLiveness(force bool) {
	s := b.Settings()
	now := b.now()
	if !force && now.Sub(b.lastLiveness) < s.LivenessInterval {
		return
	}
	b.lastLiveness = now

	running, err := b.device.IsAppRunning()
	if err != nil {
		b.logger.Warn(fmt.Sprintf("Liveness check failed: %v", err))
		b.publish(events.NewAppMissingEvent(b.device.Name(), err))
		return
	}
	if !running {
		b.logger.Warn("'The Tower' process not found")
		b.publish(events.NewAppMissingEvent(b.device.Name(), nil))
	}
}

// tap issues one best-effort tap; task names the action in events
func (b *Bot) tap(s *Settings, task, label string, p cv.Point) {
	b.debug(s, label+" → tapping", map[string]interface{}{"x": p.X, "y": p.Y})
	if err := b.device.Tap(p.X, p.Y); err != nil {
		b.logger.WarnWithContext("Tap failed", map[string]interface{}{
			"task":  task,
			"error": err.Error(),
		})
		return
	}
	b.publish(events.NewTapEvent(task, p.X, p.Y, b.Wave()))
}

func (b *Bot) setState(next BotState) {
	prev := BotState(b.state.Swap(int32(next)))
	if prev != next {
		b.publish(events.NewStateChangedEvent(prev.String(), next.String()))
	}
}

func (b *Bot) setWave(wave int) {
	prev := int(b.wave.Swap(int64(wave)))
	if prev != wave {
		b.publish(events.NewWaveChangedEvent(prev, wave))
	}
}

func (b *Bot) publish(event events.Event) {
	if b.events != nil {
		b.events.TryPublish(event)
	}
}

// debug logs only when the Debug toggle is on
func (b *Bot) debug(s *Settings, msg string, context map[string]interface{}) {
	if !s.Debug {
		return
	}
	b.logger.DebugWithContext(msg, context)
}

// applyDebugLevel lets the Debug toggle surface debug entries whatever
// the root level is
func (b *Bot) applyDebugLevel(s *Settings) {
	if s.Debug {
		b.logger.SetMinLevel(logging.LogLevelDebug)
	} else {
		b.logger.SetMinLevel("")
	}
}

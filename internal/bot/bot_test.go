package bot

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"jordanella.com/tower-bot-go/internal/cv"
	"jordanella.com/tower-bot-go/internal/detect"
	"jordanella.com/tower-bot-go/internal/ocr"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeDevice struct {
	mu         sync.Mutex
	frame      *image.RGBA
	captureErr error
	taps       []cv.Point
	running    bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		frame:   image.NewRGBA(image.Rect(0, 0, 1440, 2560)),
		running: true,
	}
}

func (d *fakeDevice) CaptureFrame() (*image.RGBA, error) {
	if d.captureErr != nil {
		return nil, d.captureErr
	}
	return d.frame, nil
}

func (d *fakeDevice) GetDimensions() (int, int) { return 1440, 2560 }

func (d *fakeDevice) Tap(x, y int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.taps = append(d.taps, cv.Point{X: x, Y: y})
	return nil
}

func (d *fakeDevice) IsAppRunning() (bool, error) { return d.running, nil }

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Taps() []cv.Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]cv.Point(nil), d.taps...)
}

func (d *fakeDevice) ResetTaps() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.taps = nil
}

// fakeReader answers OCR by region
type fakeReader struct {
	mu      sync.Mutex
	texts   map[cv.Region]string
	panicOn map[cv.Region]bool
	reads   map[cv.Region]int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		texts:   make(map[cv.Region]string),
		panicOn: make(map[cv.Region]bool),
		reads:   make(map[cv.Region]int),
	}
}

func (r *fakeReader) Set(region cv.Region, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts[region] = text
}

func (r *fakeReader) ReadText(_ *image.RGBA, region cv.Region, _ string) (ocr.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn[region] {
		panic("reader exploded")
	}
	r.reads[region]++
	return ocr.Result{Text: r.texts[region]}, nil
}

func (r *fakeReader) Reads(region cv.Region) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads[region]
}

type harness struct {
	bot    *Bot
	device *fakeDevice
	reader *fakeReader
	clock  *fakeClock
}

// newHarness builds a bot with every toggle off so tests opt in
func newHarness(t *testing.T, configure func(s *Settings)) *harness {
	t.Helper()

	settings := NewDefaultSettings()
	settings.Toggles = Toggles{}
	if configure != nil {
		configure(settings)
	}

	h := &harness{
		device: newFakeDevice(),
		reader: newFakeReader(),
		clock:  newFakeClock(),
	}

	b, err := New(settings, Options{
		Device:   h.device,
		Detector: detect.New(h.reader, nil),
		Now:      h.clock.Now,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.bot = b

	// keep the defence tab quiet unless a test says otherwise
	h.reader.Set(h.region(RegionDefence), "defence upgrade")
	return h
}

func (h *harness) region(key RegionKey) cv.Region {
	return h.bot.Settings().Region(key)
}

func (h *harness) paintWhite(key RegionKey) {
	r := h.region(key)
	h.device.frame.SetRGBA(r.X+1, r.Y+1, color.RGBA{255, 255, 255, 255})
}

func TestCooldownAtMostOncePerWindow(t *testing.T) {
	clock := newFakeClock()
	c := NewCooldowns(clock.Now)

	if !c.CanAct(TaskRetry, 2*time.Second) {
		t.Fatal("first check should be eligible")
	}
	first := c.NextEligible(TaskRetry)
	if want := clock.Now().Add(2 * time.Second); !first.Equal(want) {
		t.Fatalf("ledger = %v, want %v", first, want)
	}

	clock.Advance(1999 * time.Millisecond)
	if c.CanAct(TaskRetry, 2*time.Second) {
		t.Error("second check inside the window should be refused")
	}
	if !c.NextEligible(TaskRetry).Equal(first) {
		t.Error("refused check must not mutate the ledger")
	}

	clock.Advance(time.Millisecond)
	if !c.CanAct(TaskRetry, 2*time.Second) {
		t.Error("check at the window boundary should be eligible")
	}
	second := c.NextEligible(TaskRetry)
	if !second.Equal(first.Add(2 * time.Second)) {
		t.Errorf("ledger advanced to %v, want %v", second, first.Add(2*time.Second))
	}
	if second.Before(first) {
		t.Error("ledger must be monotone")
	}

	if !c.CanAct(TaskGems, 0) || !c.CanAct(TaskGems, 0) {
		t.Error("zero cooldown should always be eligible")
	}
}

func TestNormalizeFillsCooldownsFromIntervals(t *testing.T) {
	s := &Settings{
		Intervals: map[TaskKey]time.Duration{TaskWave: 3 * time.Second, TaskRetry: 5 * time.Second},
		Cooldowns: map[TaskKey]time.Duration{TaskRetry: time.Second},
	}
	s.Normalize()

	if got := s.Cooldown(TaskWave); got != 3*time.Second {
		t.Errorf("wave cooldown = %v, want interval 3s", got)
	}
	if got := s.Cooldown(TaskRetry); got != time.Second {
		t.Errorf("explicit retry cooldown overwritten: %v", got)
	}
	if got := s.Cooldown(TaskKey("unknown")); got != 0 {
		t.Errorf("unknown task cooldown = %v, want 0", got)
	}
}

func TestSelectPerkPriorityBeatsRegionOrder(t *testing.T) {
	choice, ok := SelectPerk([]string{"contains b", "contains a", "", ""}, []string{"a", "b"})
	if !ok {
		t.Fatal("Expected a match")
	}
	if choice.Phrase != "a" || choice.Index != 1 {
		t.Errorf("got %+v, want phrase a in region 2", choice)
	}

	if _, ok := SelectPerk([]string{"x", "y", "", ""}, []string{"zzz"}); ok {
		t.Error("Expected no match")
	}
}

func TestPerkSelectionTapsChosenRegion(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.PerkPriority = []string{"a", "b"}
	})
	h.reader.Set(h.region(RegionPerk1), "contains b")
	h.reader.Set(h.region(RegionPerk2), "contains a")

	h.bot.setState(StatePerkSelecting)
	h.bot.Tick()

	taps := h.device.Taps()
	if len(taps) != 1 || taps[0] != h.region(RegionPerk2).Center() {
		t.Fatalf("taps = %v, want one tap at perk2 center %v", taps, h.region(RegionPerk2).Center())
	}
	if h.bot.State() != StateIdle {
		t.Errorf("state = %s, want IDLE", h.bot.State())
	}
}

func TestPerkSelectionNoMatch(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.PerkPriority = []string{"zzz"}
	})
	h.reader.Set(h.region(RegionPerk1), "damage")

	h.bot.setState(StatePerkSelecting)
	h.bot.Tick()

	if taps := h.device.Taps(); len(taps) != 0 {
		t.Errorf("Expected no taps, got %v", taps)
	}
	if h.bot.State() != StateIdle {
		t.Errorf("state = %s, want IDLE", h.bot.State())
	}
}

func TestPerkSelectingTickRunsNothingElse(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.Toggles = Toggles{Retry: true, Health: true, AbsDef: true, Gems: true, Float: true, Perk: true}
	})
	h.reader.Set(h.region(RegionNewPerk), "new perk")
	h.reader.Set(h.region(RegionRetry1), "retry")
	h.reader.Set(h.region(RegionClaim), "claim")
	h.reader.Set(h.region(RegionWave), "12")
	h.paintWhite(RegionHealth)
	h.paintWhite(RegionAbsDef)

	h.bot.Tick()
	if h.bot.State() != StatePerkSelecting {
		t.Fatalf("new perk should switch to PERK_SELECTING, state = %s", h.bot.State())
	}

	// everything is due again on the next tick
	h.clock.Advance(time.Minute)
	h.reader.Set(h.region(RegionWave), "99")
	h.device.ResetTaps()

	ledger := map[TaskKey]time.Time{}
	for _, key := range AllTasks {
		ledger[key] = h.bot.Cooldowns().NextEligible(key)
	}
	retryReads := h.reader.Reads(h.region(RegionRetry1))

	h.bot.Tick()

	if taps := h.device.Taps(); len(taps) != 0 {
		t.Errorf("perk tick with no matching perk should not tap, got %v", taps)
	}
	for _, key := range AllTasks {
		if got := h.bot.Cooldowns().NextEligible(key); !got.Equal(ledger[key]) {
			t.Errorf("cooldown for %s changed during PERK_SELECTING", key)
		}
	}
	if h.reader.Reads(h.region(RegionRetry1)) != retryReads {
		t.Error("retry detector ran during PERK_SELECTING")
	}
	if h.bot.Wave() != 12 {
		t.Errorf("wave refreshed during PERK_SELECTING: %d", h.bot.Wave())
	}
	if h.bot.State() != StateIdle {
		t.Errorf("state = %s, want IDLE", h.bot.State())
	}
}

func TestDefenceTabIdempotence(t *testing.T) {
	h := newHarness(t, nil)
	defTap := h.bot.Settings().Point(PointDefTab)

	h.reader.Set(h.region(RegionDefence), "defence upgrade")
	h.bot.Tick()
	if taps := h.device.Taps(); len(taps) != 0 {
		t.Fatalf("active tab must not be tapped, got %v", taps)
	}
	if !h.bot.Cooldowns().NextEligible(TaskDefence).IsZero() {
		t.Error("active tab must not consume the cooldown")
	}

	h.clock.Advance(time.Second)
	h.reader.Set(h.region(RegionDefence), "attack")
	h.bot.Tick()
	taps := h.device.Taps()
	if len(taps) != 1 || taps[0] != defTap {
		t.Fatalf("taps = %v, want exactly one at %v", taps, defTap)
	}

	// not yet due again
	h.bot.Tick()
	if got := len(h.device.Taps()); got != 1 {
		t.Errorf("defence tab re-tapped before its interval, %d taps", got)
	}
}

func TestWaveParsing(t *testing.T) {
	if n, ok := ParseWave("wave 42 "); !ok || n != 42 {
		t.Errorf("ParseWave = %d, %v; want 42", n, ok)
	}
	if _, ok := ParseWave("no digits"); ok {
		t.Error("Expected parse failure")
	}

	h := newHarness(t, nil)
	h.reader.Set(h.region(RegionWave), "wave 42 ")
	h.bot.Tick()
	if h.bot.Wave() != 42 {
		t.Fatalf("wave = %d, want 42", h.bot.Wave())
	}

	h.clock.Advance(time.Second)
	h.reader.Set(h.region(RegionWave), "???")
	h.bot.Tick()
	if h.bot.Wave() != 42 {
		t.Errorf("failed parse changed wave to %d", h.bot.Wave())
	}
}

func TestHealthStopThreshold(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.Health = true
		s.HealthStop = 50
	})
	h.paintWhite(RegionHealth)
	h.reader.Set(h.region(RegionWave), "50")
	h.bot.Tick()
	if taps := h.device.Taps(); len(taps) != 0 {
		t.Fatalf("health tapped at wave >= stop: %v", taps)
	}

	h.clock.Advance(time.Second)
	h.reader.Set(h.region(RegionWave), "49")
	h.bot.Tick()
	taps := h.device.Taps()
	if len(taps) != 1 || taps[0] != h.region(RegionHealth).Center() {
		t.Errorf("taps = %v, want health center", taps)
	}
}

func TestPerkStopThreshold(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.Perk = true
		s.PerkStop = 50
	})
	h.reader.Set(h.region(RegionNewPerk), "new perk")
	h.reader.Set(h.region(RegionWave), "50")
	h.bot.Tick()
	if taps := h.device.Taps(); len(taps) != 0 {
		t.Fatalf("new perk tapped at wave >= stop: %v", taps)
	}
	if h.bot.State() != StateIdle {
		t.Fatalf("state = %v, want IDLE", h.bot.State())
	}

	h.clock.Advance(time.Second)
	h.reader.Set(h.region(RegionWave), "49")
	h.bot.Tick()
	taps := h.device.Taps()
	if len(taps) != 1 || taps[0] != h.region(RegionNewPerk).Center() {
		t.Errorf("taps = %v, want new perk center", taps)
	}
	if h.bot.State() != StatePerkSelecting {
		t.Errorf("state = %v, want PERK_SELECTING", h.bot.State())
	}
}

func TestUpgradesShareOneSlot(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.Health = true
		s.AbsDef = true
	})
	h.paintWhite(RegionHealth)
	h.paintWhite(RegionAbsDef)

	h.bot.Tick()
	if got := len(h.device.Taps()); got != 2 {
		t.Fatalf("Expected health and abs-def taps in one tick, got %d", got)
	}

	h.clock.Advance(500 * time.Millisecond)
	h.bot.Tick()
	if got := len(h.device.Taps()); got != 2 {
		t.Errorf("shared slot should block both upgrades, got %d taps", got)
	}
}

func TestRetryTapsFirstMatchingRegion(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.Retry = true })
	h.reader.Set(h.region(RegionRetry1), "continue")
	h.reader.Set(h.region(RegionRetry2), "retry")

	h.bot.Tick()
	taps := h.device.Taps()
	if len(taps) != 1 || taps[0] != h.region(RegionRetry2).Center() {
		t.Errorf("taps = %v, want retry2 center", taps)
	}
}

func TestTaskPanicIsIsolated(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.Retry = true
		s.Float = true
	})
	h.reader.panicOn[h.region(RegionRetry1)] = true

	h.bot.Tick()

	taps := h.device.Taps()
	floatGem := h.bot.Settings().Point(PointFloatGem)
	found := false
	for _, p := range taps {
		if p == floatGem {
			found = true
		}
	}
	if !found {
		t.Errorf("float gem should still tap after retry panicked, taps = %v", taps)
	}
}

func TestCaptureFailureUsesPlaceholder(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.Health = true })
	h.paintWhite(RegionHealth)
	h.device.captureErr = errors.New("no display")

	h.bot.Tick()
	if taps := h.device.Taps(); len(taps) != 0 {
		t.Errorf("placeholder frame has no bright pixels, got taps %v", taps)
	}
	if h.bot.Ticks() != 1 {
		t.Errorf("ticks = %d, want 1", h.bot.Ticks())
	}

	h.device.captureErr = nil
	h.clock.Advance(time.Second)
	h.bot.Tick()
	if taps := h.device.Taps(); len(taps) != 1 || taps[0] != h.region(RegionHealth).Center() {
		t.Errorf("taps = %v, want health center after capture recovers", taps)
	}
}

func TestUpdateSettingsTakesEffectNextTick(t *testing.T) {
	h := newHarness(t, nil)
	h.bot.Tick()
	if taps := h.device.Taps(); len(taps) != 0 {
		t.Fatalf("Expected no taps with every toggle off, got %v", taps)
	}

	h.bot.UpdateSettings(func(s *Settings) { s.Float = true })
	h.clock.Advance(time.Second)
	h.bot.Tick()

	taps := h.device.Taps()
	if len(taps) != 1 || taps[0] != h.bot.Settings().Point(PointFloatGem) {
		t.Errorf("float toggle not applied, taps = %v", taps)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.TickDelay = time.Millisecond })

	h.bot.Stop()
	h.bot.Start()
	h.bot.Start()
	if !h.bot.IsRunning() {
		t.Fatal("bot should be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.bot.Ticks() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.bot.Ticks() < 3 {
		t.Fatalf("worker did not tick, ticks = %d", h.bot.Ticks())
	}

	h.bot.Stop()
	h.bot.Stop()
	if h.bot.IsRunning() {
		t.Error("bot should be stopped")
	}

	ticks := h.bot.Ticks()
	time.Sleep(20 * time.Millisecond)
	if h.bot.Ticks() != ticks {
		t.Error("worker kept ticking after Stop")
	}
}

func TestStartClearsCooldownLedger(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.Float = true
		s.TickDelay = time.Hour
	})

	h.bot.Tick()
	h.bot.Tick()
	if taps := h.device.Taps(); len(taps) != 1 {
		t.Fatalf("Expected cooldown to hold the second tap, got %v", taps)
	}

	// The clock has not moved, so only a cleared ledger lets the worker tap again
	h.bot.Start()
	defer h.bot.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for len(h.device.Taps()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if taps := h.device.Taps(); len(taps) != 2 {
		t.Errorf("Expected a fresh run to tap again, got %v", taps)
	}
}

func TestCooldownsReset(t *testing.T) {
	clock := newFakeClock()
	c := NewCooldowns(clock.Now)

	if !c.CanAct(TaskGems, time.Minute) {
		t.Fatal("first check should pass")
	}
	if c.CanAct(TaskGems, time.Minute) {
		t.Fatal("second check inside the window should fail")
	}
	c.Reset()
	if !c.NextEligible(TaskGems).IsZero() {
		t.Error("Reset should empty the ledger")
	}
	if !c.CanAct(TaskGems, time.Minute) {
		t.Error("check after Reset should pass")
	}
}

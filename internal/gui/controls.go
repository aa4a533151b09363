package gui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/gui/components"
)

// ControlTab starts and stops the scheduler and edits feature toggles
// and stop thresholds
type ControlTab struct {
	controller *Controller

	stateBadge    *components.Badge
	waveLabel     *widget.Label
	ticksLabel    *widget.Label
	lastPerkLabel *widget.Label
	deviceLabel   *widget.Label
	captureLabel  *widget.Label

	startBtn *widget.Button
	stopBtn  *widget.Button

	toggleChecks    map[string]*widget.Check
	thresholdFields map[string]*widget.Entry
	tickDelayEntry  *widget.Entry

	running      bool
	appMissingAt time.Time
}

// NewControlTab creates a new control tab
func NewControlTab(ctrl *Controller) *ControlTab {
	return &ControlTab{
		controller:      ctrl,
		toggleChecks:    make(map[string]*widget.Check),
		thresholdFields: make(map[string]*widget.Entry),
	}
}

// toggleSetters binds each feature checkbox to its settings field
var toggleSetters = []struct {
	label string
	get   func(s *bot.Settings) bool
	set   func(s *bot.Settings, on bool)
}{
	{"Retry", func(s *bot.Settings) bool { return s.Retry }, func(s *bot.Settings, on bool) { s.Retry = on }},
	{"Upgrade health", func(s *bot.Settings) bool { return s.Health }, func(s *bot.Settings, on bool) { s.Health = on }},
	{"Upgrade absolute defence", func(s *bot.Settings) bool { return s.AbsDef }, func(s *bot.Settings, on bool) { s.AbsDef = on }},
	{"Claim gems", func(s *bot.Settings) bool { return s.Gems }, func(s *bot.Settings, on bool) { s.Gems = on }},
	{"Floating gem", func(s *bot.Settings) bool { return s.Float }, func(s *bot.Settings, on bool) { s.Float = on }},
	{"Choose perks", func(s *bot.Settings) bool { return s.Perk }, func(s *bot.Settings, on bool) { s.Perk = on }},
	{"Debug output", func(s *bot.Settings) bool { return s.Debug }, func(s *bot.Settings, on bool) { s.Debug = on }},
}

var thresholdSetters = []struct {
	label string
	get   func(s *bot.Settings) int
	set   func(s *bot.Settings, wave int)
}{
	{"Stop health at wave", func(s *bot.Settings) int { return s.HealthStop }, func(s *bot.Settings, w int) { s.HealthStop = w }},
	{"Stop abs. defence at wave", func(s *bot.Settings) int { return s.AbsDefStop }, func(s *bot.Settings, w int) { s.AbsDefStop = w }},
	{"Stop perks at wave", func(s *bot.Settings) int { return s.PerkStop }, func(s *bot.Settings, w int) { s.PerkStop = w }},
}

// Build constructs the bot control UI
func (c *ControlTab) Build() fyne.CanvasObject {
	settings := c.controller.Bot().Settings()

	c.stateBadge = components.NewBadge("STOPPED")
	c.waveLabel = components.MonospaceLabel("0")
	c.ticksLabel = components.MonospaceLabel("0")
	c.lastPerkLabel = widget.NewLabel("-")
	c.deviceLabel = widget.NewLabel(describeDevice(settings.Device, 0, 0))
	c.captureLabel = widget.NewLabel("-")
	c.captureLabel.Truncation = fyne.TextTruncateEllipsis

	status := widget.NewForm(
		widget.NewFormItem("State", c.stateBadge.Object()),
		widget.NewFormItem("Wave", c.waveLabel),
		widget.NewFormItem("Ticks", c.ticksLabel),
		widget.NewFormItem("Last perk", c.lastPerkLabel),
		widget.NewFormItem("Device", c.deviceLabel),
		widget.NewFormItem("Capture", c.captureLabel),
	)

	c.startBtn = components.PrimaryButton("Start", func() {
		c.controller.launcher.Start()
	})
	c.stopBtn = components.DangerButton("Stop", func() {
		c.stopBtn.Disable()
		// Stop waits for the current tick
		go c.controller.launcher.Stop()
	})
	c.stopBtn.Disable()
	saveBtn := widget.NewButton("Save Settings", func() {
		if err := c.controller.launcher.SaveSettings(); err != nil {
			c.controller.showError("Failed to save settings", err)
			return
		}
		c.controller.showInfo("Settings", "Saved to "+c.controller.launcher.IniPath())
	})

	// Features
	features := container.NewGridWithColumns(2)
	for _, t := range toggleSetters {
		t := t
		check := widget.NewCheck(t.label, func(on bool) {
			c.controller.Bot().UpdateSettings(func(s *bot.Settings) { t.set(s, on) })
		})
		check.SetChecked(t.get(settings))
		c.toggleChecks[t.label] = check
		features.Add(check)
	}

	// Stop thresholds
	thresholdForm := widget.NewForm()
	for _, t := range thresholdSetters {
		entry := widget.NewEntry()
		entry.SetText(strconv.Itoa(t.get(settings)))
		c.thresholdFields[t.label] = entry
		thresholdForm.Append(t.label, entry)
	}
	c.tickDelayEntry = widget.NewEntry()
	c.tickDelayEntry.SetText(settings.TickDelay.String())
	thresholdForm.Append("Tick delay", c.tickDelayEntry)

	applyBtn := widget.NewButton("Apply", func() {
		if err := c.applyThresholds(); err != nil {
			c.controller.showError("Invalid value", err)
		}
	})

	return container.NewVScroll(container.NewVBox(
		components.Heading("The Tower"),
		components.CardSection("Status", status),
		components.ButtonGroup(c.startBtn, c.stopBtn, saveBtn),
		components.CardSection("Features", features),
		components.CardSection("Limits", container.NewVBox(thresholdForm, applyBtn)),
		components.Caption("Changes apply on the next tick. Save Settings writes them to disk."),
	))
}

// applyThresholds parses the limit fields and pushes them to the bot
func (c *ControlTab) applyThresholds() error {
	values := make([]int, len(thresholdSetters))
	for i, t := range thresholdSetters {
		text := strings.TrimSpace(c.thresholdFields[t.label].Text)
		wave, err := strconv.Atoi(text)
		if err != nil || wave < 0 {
			return fmt.Errorf("%s: %q is not a wave number", t.label, text)
		}
		values[i] = wave
	}

	delay, err := time.ParseDuration(strings.TrimSpace(c.tickDelayEntry.Text))
	if err != nil || delay <= 0 {
		return fmt.Errorf("tick delay: %q is not a positive duration", c.tickDelayEntry.Text)
	}

	c.controller.Bot().UpdateSettings(func(s *bot.Settings) {
		for i, t := range thresholdSetters {
			t.set(s, values[i])
		}
		s.TickDelay = delay
	})
	return nil
}

// SetRunning swaps the Start/Stop buttons
func (c *ControlTab) SetRunning(running bool) {
	c.running = running
	if running {
		c.startBtn.Disable()
		c.stopBtn.Enable()
		c.stateBadge.SetStatus(c.controller.Bot().State().String())
	} else {
		c.startBtn.Enable()
		c.stopBtn.Disable()
		c.stateBadge.SetStatus("STOPPED")
	}
}

// SetState shows a state machine transition
func (c *ControlTab) SetState(state string) {
	if c.running && state != "" {
		c.stateBadge.SetStatus(state)
	}
}

// SetWave shows a newly parsed wave number
func (c *ControlTab) SetWave(wave int) {
	c.waveLabel.SetText(strconv.Itoa(wave))
}

// SetLastPerk shows the most recently chosen perk
func (c *ControlTab) SetLastPerk(phrase string) {
	c.lastPerkLabel.SetText(phrase)
}

// SetAppMissing flags a failed liveness check until the next check interval
func (c *ControlTab) SetAppMissing() {
	c.appMissingAt = time.Now()
	c.stateBadge.SetStatus("APP MISSING")
}

// SetCounters refreshes the per-tick counters
func (c *ControlTab) SetCounters(ticks int64, wave int) {
	c.ticksLabel.SetText(strconv.FormatInt(ticks, 10))
	c.waveLabel.SetText(strconv.Itoa(wave))

	if !c.running {
		return
	}
	b := c.controller.Bot()
	if time.Since(c.appMissingAt) > b.Settings().LivenessInterval {
		c.stateBadge.SetStatus(b.State().String())
	}
}

// SetCapture shows the outcome of the latest screen capture
func (c *ControlTab) SetCapture(err error, width, height int) {
	c.captureLabel.SetText(describeCapture(err))
	c.deviceLabel.SetText(describeDevice(c.controller.Bot().Settings().Device, width, height))
}

// describeDevice names the backend; the screen size is shown once known
func describeDevice(cfg bot.DeviceConfig, width, height int) string {
	var desc string
	switch cfg.Backend {
	case bot.BackendDesktop:
		desc = fmt.Sprintf("desktop display %d (process %q)", cfg.Display, cfg.ProcessMatch)
	default:
		serial := cfg.Serial
		if serial == "" {
			serial = "first attached"
		}
		desc = fmt.Sprintf("adb %s (%s)", serial, cfg.Package)
	}
	if width > 0 && height > 0 {
		desc += fmt.Sprintf(" %dx%d", width, height)
	}
	return desc
}

func describeCapture(err error) string {
	if err == nil {
		return "ok"
	}
	return "failing: " + err.Error()
}

package gui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/events"
	"jordanella.com/tower-bot-go/internal/launcher"
	"jordanella.com/tower-bot-go/internal/logging"
)

const refreshInterval = 500 * time.Millisecond

var log = logging.NewLogger("GUI")

// Controller owns the window and routes scheduler events to the tabs
type Controller struct {
	app      fyne.App
	window   fyne.Window
	launcher *launcher.Launcher

	controlTab *ControlTab
	perksTab   *PerksTab
	regionsTab *RegionsTab
	historyTab *HistoryTab
	logTab     *LogTab

	contentArea *fyne.Container
	currentTab  int
	mu          sync.RWMutex

	subs   []events.SubscriptionID
	stopCh chan struct{}
	once   sync.Once
}

// NewController creates the controller for an opened launcher. logTab is
// created by the caller so it can receive log lines before the UI exists.
func NewController(l *launcher.Launcher, app fyne.App, window fyne.Window, logTab *LogTab) *Controller {
	if logTab == nil {
		logTab = NewLogTab()
	}

	ctrl := &Controller{
		app:      app,
		window:   window,
		launcher: l,
		logTab:   logTab,
		stopCh:   make(chan struct{}),
	}

	ctrl.controlTab = NewControlTab(ctrl)
	ctrl.perksTab = NewPerksTab(ctrl)
	ctrl.regionsTab = NewRegionsTab(ctrl)
	ctrl.historyTab = NewHistoryTab(ctrl)

	ctrl.setupEventHandlers()
	return ctrl
}

// Bot returns the launcher's current scheduler
func (c *Controller) Bot() *bot.Bot {
	return c.launcher.Bot()
}

// BuildUI constructs the main UI with horizontal tabs
func (c *Controller) BuildUI() fyne.CanvasObject {
	tabButtons := container.NewHBox(
		widget.NewButton("Controls", func() { c.switchTab(0) }),
		widget.NewButton("Perks", func() { c.switchTab(1) }),
		widget.NewButton("Regions", func() { c.switchTab(2) }),
		widget.NewButton("History", func() { c.switchTab(3) }),
		widget.NewButton("Event Log", func() { c.switchTab(4) }),
	)

	c.contentArea = container.NewStack(
		c.controlTab.Build(),
		c.perksTab.Build(),
		c.regionsTab.Build(),
		c.historyTab.Build(),
		c.logTab.Build(),
	)
	c.showTab(0)

	go c.refreshLoop()

	return container.NewBorder(
		tabButtons,
		nil,
		nil,
		nil,
		c.contentArea,
	)
}

func (c *Controller) switchTab(tabIndex int) {
	c.mu.Lock()
	c.currentTab = tabIndex
	c.mu.Unlock()

	c.showTab(tabIndex)
	if tabIndex == 3 {
		c.historyTab.Refresh()
	}
}

func (c *Controller) showTab(tabIndex int) {
	if c.contentArea == nil {
		return
	}
	for i, obj := range c.contentArea.Objects {
		if i == tabIndex {
			obj.Show()
		} else {
			obj.Hide()
		}
	}
	c.contentArea.Refresh()
}

// setupEventHandlers subscribes to the scheduler bus. Handlers run on the
// bus goroutine, so every widget update goes through fyne.Do.
func (c *Controller) setupEventHandlers() {
	bus := c.launcher.Events()

	subscribe := func(eventType events.EventType, handler events.EventHandler) {
		c.subs = append(c.subs, bus.Subscribe(eventType, handler))
	}

	subscribe(events.EventTypeStateChanged, func(e events.Event) {
		to, _ := e.Data["to"].(string)
		fyne.Do(func() { c.controlTab.SetState(to) })
	})

	subscribe(events.EventTypeWaveChanged, func(e events.Event) {
		wave, _ := e.Data["wave"].(int)
		fyne.Do(func() { c.controlTab.SetWave(wave) })
	})

	subscribe(events.EventTypePerkChosen, func(e events.Event) {
		phrase, _ := e.Data["phrase"].(string)
		fyne.Do(func() { c.controlTab.SetLastPerk(phrase) })
	})

	subscribe(events.EventTypeAppMissing, func(e events.Event) {
		fyne.Do(func() { c.controlTab.SetAppMissing() })
	})

	subscribe(events.EventTypeBotStarted, func(e events.Event) {
		fyne.Do(func() { c.controlTab.SetRunning(true) })
	})

	subscribe(events.EventTypeBotStopped, func(e events.Event) {
		fyne.Do(func() {
			c.controlTab.SetRunning(false)
			c.historyTab.Refresh()
		})
	})
}

// refreshLoop polls the counters that change every tick
func (c *Controller) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			b := c.Bot()
			ticks, wave := b.Ticks(), b.Wave()
			captureErr := b.Frames().LastError()
			width, height := b.Frames().GetDimensions()
			fyne.Do(func() {
				c.controlTab.SetCounters(ticks, wave)
				c.controlTab.SetCapture(captureErr, width, height)
			})
		}
	}
}

// showError reports a failed action in a dialog and the log
func (c *Controller) showError(title string, err error) {
	log.Error(title, err)
	dialog.ShowError(fmt.Errorf("%s: %w", title, err), c.window)
}

// showInfo reports a completed action
func (c *Controller) showInfo(title, message string) {
	dialog.ShowInformation(title, message, c.window)
}

// Shutdown stops the bot and releases the launcher
func (c *Controller) Shutdown() {
	c.once.Do(func() {
		close(c.stopCh)

		bus := c.launcher.Events()
		for _, id := range c.subs {
			bus.Unsubscribe(id)
		}

		if err := c.launcher.Close(); err != nil {
			log.Error("Shutdown finished with errors", err)
		}
	})
}

package gui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/tower-bot-go/internal/database"
	"jordanella.com/tower-bot-go/internal/gui/components"
)

const historyLimit = 50

// HistoryTab shows recorded sessions, perk statistics and task failures
type HistoryTab struct {
	controller *Controller

	sessions []*database.SessionSummary
	errors   []*database.ErrorEntry

	sessionTable *widget.Table
	errorTable   *widget.Table
	perkLabel    *widget.Label
	statusLabel  *widget.Label
}

// NewHistoryTab creates a new history tab
func NewHistoryTab(ctrl *Controller) *HistoryTab {
	return &HistoryTab{controller: ctrl}
}

var sessionHeaders = []string{"ID", "Device", "Started", "Duration", "Status", "Ticks", "Max wave", "Taps", "Perks", "Errors"}

var errorHeaders = []string{"Time", "Session", "Source", "Task", "Message"}

// Build constructs the UI
func (t *HistoryTab) Build() fyne.CanvasObject {
	t.statusLabel = widget.NewLabel("")
	t.perkLabel = widget.NewLabel("")
	t.perkLabel.Wrapping = fyne.TextWrapWord

	t.sessionTable = widget.NewTable(
		func() (int, int) {
			return len(t.sessions) + 1, len(sessionHeaders)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Cell")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(sessionHeaders[id.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}
			label.SetText(sessionCell(t.sessions[id.Row-1], id.Col))
		},
	)
	for col, width := range []float32{50, 150, 120, 80, 80, 70, 80, 60, 60, 60} {
		t.sessionTable.SetColumnWidth(col, width)
	}

	t.errorTable = widget.NewTable(
		func() (int, int) {
			return len(t.errors) + 1, len(errorHeaders)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Cell")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
				label.SetText(errorHeaders[id.Col])
				return
			}
			label.TextStyle = fyne.TextStyle{}
			label.SetText(errorCell(t.errors[id.Row-1], id.Col))
		},
	)
	for col, width := range []float32{120, 70, 90, 80, 350} {
		t.errorTable.SetColumnWidth(col, width)
	}

	refreshBtn := widget.NewButton("Refresh", t.Refresh)

	tables := container.NewVSplit(
		components.CardSection("Sessions", container.NewGridWrap(fyne.NewSize(860, 260), t.sessionTable)),
		components.CardSection("Failures", container.NewGridWrap(fyne.NewSize(860, 200), t.errorTable)),
	)
	tables.Offset = 0.55

	t.Refresh()

	return container.NewBorder(
		container.NewVBox(
			components.Heading("History"),
			container.NewBorder(nil, nil, nil, refreshBtn, t.statusLabel),
		),
		components.CardSection("Perks picked", t.perkLabel),
		nil,
		nil,
		tables,
	)
}

// Refresh reloads sessions from the database. Call on the UI goroutine.
func (t *HistoryTab) Refresh() {
	if t.sessionTable == nil {
		return
	}

	db := t.controller.launcher.DB()
	if db == nil {
		t.statusLabel.SetText("Action history is disabled")
		return
	}

	sessions, err := db.RecentSessions(historyLimit)
	if err != nil {
		t.statusLabel.SetText(fmt.Sprintf("Failed to load sessions: %v", err))
		return
	}
	summaries := make([]*database.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summary, err := db.GetSessionSummary(s.ID)
		if err != nil {
			log.Error("Failed to summarize session", err)
			continue
		}
		summaries = append(summaries, summary)
	}
	t.sessions = summaries

	if errs, err := db.RecentErrors(historyLimit); err != nil {
		log.Error("Failed to load failures", err)
	} else {
		t.errors = errs
	}

	if freq, err := db.PerkFrequency(); err != nil {
		log.Error("Failed to load perk statistics", err)
	} else {
		t.perkLabel.SetText(formatFrequency(freq))
	}

	t.statusLabel.SetText(fmt.Sprintf("%d sessions, updated %s", len(t.sessions), time.Now().Format("15:04:05")))
	t.sessionTable.Refresh()
	t.errorTable.Refresh()
}

func sessionCell(s *database.SessionSummary, col int) string {
	switch col {
	case 0:
		return fmt.Sprintf("%d", s.ID)
	case 1:
		return s.Device
	case 2:
		return s.StartedAt.Local().Format("01/02 15:04:05")
	case 3:
		if s.EndedAt == nil {
			return "-"
		}
		return s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
	case 4:
		return s.Status
	case 5:
		return fmt.Sprintf("%d", s.Ticks)
	case 6:
		return fmt.Sprintf("%d", s.MaxWave)
	case 7:
		return fmt.Sprintf("%d", s.TapCount)
	case 8:
		return fmt.Sprintf("%d", s.PerkCount)
	case 9:
		return fmt.Sprintf("%d", s.ErrorCount)
	}
	return ""
}

func errorCell(e *database.ErrorEntry, col int) string {
	switch col {
	case 0:
		return e.OccurredAt.Local().Format("01/02 15:04:05")
	case 1:
		if e.SessionID == nil {
			return "-"
		}
		return fmt.Sprintf("%d", *e.SessionID)
	case 2:
		return e.Source
	case 3:
		return e.Component
	case 4:
		msg := e.Message
		if len(msg) > 80 {
			msg = msg[:77] + "..."
		}
		return msg
	}
	return ""
}

// formatFrequency lists phrases by pick count, most picked first
func formatFrequency(freq map[string]int) string {
	if len(freq) == 0 {
		return "No perks picked yet"
	}

	phrases := make([]string, 0, len(freq))
	for phrase := range freq {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if freq[phrases[i]] != freq[phrases[j]] {
			return freq[phrases[i]] > freq[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})

	parts := make([]string, len(phrases))
	for i, phrase := range phrases {
		parts[i] = fmt.Sprintf("%s (%d)", phrase, freq[phrase])
	}
	return strings.Join(parts, ", ")
}

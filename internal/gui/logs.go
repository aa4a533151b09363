package gui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/bytedance/sonic"

	"jordanella.com/tower-bot-go/internal/logging"
)

// LogEntry is one decoded log line
type LogEntry struct {
	Timestamp time.Time
	Level     logging.LogLevel
	Component string
	Message   string
	Fields    string
}

// LogTab shows the process log. It is an io.Writer for the JSON lines
// the logging package emits, so it can be added to logging.Options.Outputs.
type LogTab struct {
	logs   []LogEntry
	logsMu sync.RWMutex

	logList         *widget.List
	filterSelect    *widget.Select
	autoScrollCheck *widget.Check
	maxLogs         int
}

// NewLogTab creates an empty log tab
func NewLogTab() *LogTab {
	return &LogTab{
		logs:    make([]LogEntry, 0, 1000),
		maxLogs: 1000,
	}
}

// Build constructs the log viewer UI
func (l *LogTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Event Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	l.filterSelect = widget.NewSelect(
		[]string{"All", "DEBUG", "INFO", "WARN", "ERROR"},
		func(string) {
			if l.logList != nil {
				l.logList.Refresh()
			}
		},
	)
	l.filterSelect.PlaceHolder = "All"

	l.autoScrollCheck = widget.NewCheck("Auto-scroll", nil)
	l.autoScrollCheck.SetChecked(true)

	clearBtn := widget.NewButton("Clear Logs", func() {
		l.ClearLogs()
	})

	controls := container.NewHBox(
		widget.NewLabel("Filter:"),
		l.filterSelect,
		l.autoScrollCheck,
		clearBtn,
	)

	l.logList = widget.NewList(
		func() int {
			return len(l.filtered())
		},
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("00:00:00"),
				widget.NewLabel("[LEVEL]"),
				widget.NewLabel("component"),
				widget.NewLabel("message"),
			)
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			entries := l.filtered()
			if id < 0 || id >= len(entries) {
				return
			}
			entry := entries[id]
			box := item.(*fyne.Container)

			box.Objects[0].(*widget.Label).SetText(entry.Timestamp.Format("15:04:05"))

			levelLabel := box.Objects[1].(*widget.Label)
			levelLabel.SetText(fmt.Sprintf("[%s]", entry.Level))
			switch entry.Level {
			case logging.LogLevelDebug:
				levelLabel.Importance = widget.LowImportance
			case logging.LogLevelWarn:
				levelLabel.Importance = widget.WarningImportance
			case logging.LogLevelError:
				levelLabel.Importance = widget.DangerImportance
			default:
				levelLabel.Importance = widget.MediumImportance
			}
			levelLabel.Refresh()

			box.Objects[2].(*widget.Label).SetText(entry.Component)

			message := entry.Message
			if entry.Fields != "" {
				message += "  " + entry.Fields
			}
			box.Objects[3].(*widget.Label).SetText(message)
		},
	)

	return container.NewBorder(
		container.NewVBox(header, controls),
		nil,
		nil,
		nil,
		l.logList,
	)
}

// Write decodes one JSON log line. Lines that are not JSON are kept as
// plain INFO messages.
func (l *LogTab) Write(p []byte) (int, error) {
	l.AddEntry(parseLogLine(p))
	return len(p), nil
}

// AddEntry appends an entry and refreshes the list on the UI goroutine
func (l *LogTab) AddEntry(entry LogEntry) {
	l.logsMu.Lock()
	l.logs = append(l.logs, entry)
	if len(l.logs) > l.maxLogs {
		l.logs = l.logs[len(l.logs)-l.maxLogs:]
	}
	l.logsMu.Unlock()

	if l.logList != nil {
		fyne.Do(func() {
			l.logList.Refresh()
			if l.autoScrollCheck != nil && l.autoScrollCheck.Checked {
				l.logList.ScrollToBottom()
			}
		})
	}
}

// ClearLogs removes all log entries
func (l *LogTab) ClearLogs() {
	l.logsMu.Lock()
	l.logs = make([]LogEntry, 0, l.maxLogs)
	l.logsMu.Unlock()

	if l.logList != nil {
		l.logList.Refresh()
	}
}

// GetLogs returns a copy of the stored entries
func (l *LogTab) GetLogs() []LogEntry {
	l.logsMu.RLock()
	defer l.logsMu.RUnlock()

	logs := make([]LogEntry, len(l.logs))
	copy(logs, l.logs)
	return logs
}

func (l *LogTab) filtered() []LogEntry {
	selected := "All"
	if l.filterSelect != nil && l.filterSelect.Selected != "" {
		selected = l.filterSelect.Selected
	}

	l.logsMu.RLock()
	defer l.logsMu.RUnlock()

	if selected == "All" {
		return l.logs
	}
	var out []LogEntry
	for _, entry := range l.logs {
		if string(entry.Level) == selected {
			out = append(out, entry)
		}
	}
	return out
}

// reserved keys are shown in their own columns
var reserved = map[string]bool{"time": true, "level": true, "component": true, "message": true}

func parseLogLine(p []byte) LogEntry {
	line := strings.TrimSpace(string(p))

	var fields map[string]interface{}
	if err := sonic.Unmarshal([]byte(line), &fields); err != nil {
		return LogEntry{Timestamp: time.Now(), Level: logging.LogLevelInfo, Message: line}
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     logging.ParseLevel(stringField(fields, "level")),
		Component: stringField(fields, "component"),
		Message:   stringField(fields, "message"),
	}
	if ts, err := time.Parse(time.RFC3339Nano, stringField(fields, "time")); err == nil {
		entry.Timestamp = ts
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	entry.Fields = strings.Join(parts, " ")
	return entry
}

func stringField(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return s
}

package gui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/config"
	"jordanella.com/tower-bot-go/internal/gui/components"
)

// PerksTab edits the perk priority list. Edits are local until Apply.
type PerksTab struct {
	controller *Controller

	perks    []string
	selected int

	list        *widget.List
	phraseEntry *widget.Entry
	statusLabel *widget.Label
}

// NewPerksTab creates a new perks tab
func NewPerksTab(ctrl *Controller) *PerksTab {
	return &PerksTab{
		controller: ctrl,
		selected:   -1,
	}
}

// Build constructs the priority editor
func (t *PerksTab) Build() fyne.CanvasObject {
	t.perks = append([]string(nil), t.controller.Bot().Settings().PerkPriority...)

	t.list = widget.NewList(
		func() int { return len(t.perks) },
		func() fyne.CanvasObject {
			return container.NewHBox(components.MonospaceLabel("00"), widget.NewLabel("perk phrase"))
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < 0 || id >= len(t.perks) {
				return
			}
			box := item.(*fyne.Container)
			box.Objects[0].(*widget.Label).SetText(fmt.Sprintf("%02d", id+1))
			box.Objects[1].(*widget.Label).SetText(t.perks[id])
		},
	)
	t.list.OnSelected = func(id widget.ListItemID) {
		t.selected = id
		t.phraseEntry.SetText(t.perks[id])
	}
	t.list.OnUnselected = func(widget.ListItemID) {
		t.selected = -1
	}

	t.phraseEntry = widget.NewEntry()
	t.phraseEntry.SetPlaceHolder("phrase as it appears on the perk card")

	t.statusLabel = widget.NewLabel("")

	upBtn := widget.NewButton("Up", func() { t.move(-1) })
	downBtn := widget.NewButton("Down", func() { t.move(1) })
	addBtn := widget.NewButton("Add", t.add)
	replaceBtn := widget.NewButton("Replace", t.replace)
	removeBtn := components.DangerButton("Remove", t.remove)

	applyBtn := components.PrimaryButton("Apply & Save", t.apply)
	resetBtn := widget.NewButton("Defaults", func() {
		dialog.ShowConfirm("Reset perks", "Replace the list with the built-in ranking?", func(ok bool) {
			if ok {
				t.perks = bot.DefaultPerkPriority()
				t.selected = -1
				t.list.UnselectAll()
				t.list.Refresh()
				t.setDirty()
			}
		}, t.controller.window)
	})

	top := container.NewVBox(
		components.Heading("Perk Priority"),
		components.Caption("Higher rows win. A card matches when its text contains the phrase."),
		container.NewBorder(nil, nil, nil, components.ButtonGroup(addBtn, replaceBtn), t.phraseEntry),
		components.ButtonGroup(upBtn, downBtn, removeBtn),
	)
	bottom := container.NewBorder(nil, nil, nil, components.ButtonGroup(resetBtn, applyBtn), t.statusLabel)

	return container.NewBorder(top, bottom, nil, nil, t.list)
}

func (t *PerksTab) phrase() string {
	return strings.ToLower(strings.TrimSpace(t.phraseEntry.Text))
}

func (t *PerksTab) add() {
	phrase := t.phrase()
	if phrase == "" {
		return
	}
	t.perks = append(t.perks, phrase)
	t.phraseEntry.SetText("")
	t.list.Refresh()
	t.list.ScrollToBottom()
	t.setDirty()
}

func (t *PerksTab) replace() {
	phrase := t.phrase()
	if phrase == "" || t.selected < 0 || t.selected >= len(t.perks) {
		return
	}
	t.perks[t.selected] = phrase
	t.list.RefreshItem(t.selected)
	t.setDirty()
}

func (t *PerksTab) remove() {
	if t.selected < 0 || t.selected >= len(t.perks) {
		return
	}
	t.perks = append(t.perks[:t.selected], t.perks[t.selected+1:]...)
	t.selected = -1
	t.list.UnselectAll()
	t.list.Refresh()
	t.setDirty()
}

func (t *PerksTab) move(delta int) {
	from := t.selected
	to := from + delta
	if from < 0 || to < 0 || to >= len(t.perks) {
		return
	}
	t.perks[from], t.perks[to] = t.perks[to], t.perks[from]
	t.list.Refresh()
	t.list.Select(to)
	t.setDirty()
}

// apply pushes the list to the running bot and writes perks.yaml
func (t *PerksTab) apply() {
	perks := append([]string(nil), t.perks...)
	b := t.controller.Bot()
	b.UpdateSettings(func(s *bot.Settings) { s.PerkPriority = perks })

	path := b.Settings().Paths.Perks
	if err := config.SavePerks(path, perks); err != nil {
		t.controller.showError("Failed to save perks", err)
		return
	}
	t.statusLabel.SetText("Saved to " + path)
}

func (t *PerksTab) setDirty() {
	t.statusLabel.SetText("Unsaved changes")
}

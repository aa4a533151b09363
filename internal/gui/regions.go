package gui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/tower-bot-go/internal/bot"
	"jordanella.com/tower-bot-go/internal/config"
	"jordanella.com/tower-bot-go/internal/cv"
	"jordanella.com/tower-bot-go/internal/detect"
	"jordanella.com/tower-bot-go/internal/gui/components"
	"jordanella.com/tower-bot-go/pkg/templates"
)

// RegionsTab edits detection regions and tap points, previews them on a
// live frame and exports regions as match templates
type RegionsTab struct {
	controller *Controller

	keySelect *widget.Select
	xEntry    *widget.Entry
	yEntry    *widget.Entry
	wEntry    *widget.Entry
	hEntry    *widget.Entry
	sizeRow   *fyne.Container

	preview       *canvas.Image
	templateLabel *widget.Label
	registryLabel *widget.Label
	statusLabel   *widget.Label
}

// NewRegionsTab creates a new regions tab
func NewRegionsTab(ctrl *Controller) *RegionsTab {
	return &RegionsTab{controller: ctrl}
}

func regionKeyNames() []string {
	names := make([]string, 0, len(bot.AllRegions)+len(bot.AllPoints))
	for _, key := range bot.AllRegions {
		names = append(names, string(key))
	}
	for _, key := range bot.AllPoints {
		names = append(names, string(key))
	}
	return names
}

func isTemplateRegion(name string) bool {
	for _, tmpl := range detect.TemplateNames() {
		if tmpl == name {
			return true
		}
	}
	return false
}

func isPointKey(name string) bool {
	for _, key := range bot.AllPoints {
		if string(key) == name {
			return true
		}
	}
	return false
}

// Build constructs the region editor
func (t *RegionsTab) Build() fyne.CanvasObject {
	t.xEntry = widget.NewEntry()
	t.yEntry = widget.NewEntry()
	t.wEntry = widget.NewEntry()
	t.hEntry = widget.NewEntry()
	t.templateLabel = widget.NewLabel("")
	t.registryLabel = widget.NewLabel("")
	t.registryLabel.Wrapping = fyne.TextWrapWord
	t.statusLabel = widget.NewLabel("")

	t.preview = canvas.NewImageFromImage(cv.PlaceholderFrame())
	t.preview.FillMode = canvas.ImageFillContain
	t.preview.SetMinSize(fyne.NewSize(360, 160))

	t.sizeRow = container.NewGridWithColumns(4,
		widget.NewLabel("Width"), t.wEntry,
		widget.NewLabel("Height"), t.hEntry,
	)

	t.keySelect = widget.NewSelect(regionKeyNames(), func(name string) {
		t.load(name)
	})

	applyBtn := components.PrimaryButton("Apply", func() {
		if err := t.apply(); err != nil {
			t.controller.showError("Invalid region", err)
		}
	})
	saveBtn := widget.NewButton("Save regions.json", t.save)
	previewBtn := widget.NewButton("Preview", t.showPreview)
	templateBtn := widget.NewButton("Save as template", t.saveTemplate)
	reloadBtn := widget.NewButton("Reload templates", t.reloadTemplates)

	editor := container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Key"), nil, t.keySelect),
		container.NewGridWithColumns(4,
			widget.NewLabel("X"), t.xEntry,
			widget.NewLabel("Y"), t.yEntry,
		),
		t.sizeRow,
		components.ButtonGroup(applyBtn, saveBtn),
	)

	templateCard := container.NewVBox(
		t.templateLabel,
		t.registryLabel,
		components.ButtonGroup(previewBtn, templateBtn, reloadBtn),
		components.Caption("New templates are used after Reload templates while the bot is stopped."),
	)

	t.keySelect.SetSelected(string(bot.RegionNewPerk))
	t.updateRegistryLabel()

	return container.NewVScroll(container.NewVBox(
		components.Heading("Regions"),
		components.CardSection("Coordinates", editor),
		components.CardSection("Template", templateCard),
		t.preview,
		t.statusLabel,
	))
}

// load fills the entries from the current settings
func (t *RegionsTab) load(name string) {
	settings := t.controller.Bot().Settings()

	if isPointKey(name) {
		p := settings.Point(bot.PointKey(name))
		t.xEntry.SetText(strconv.Itoa(p.X))
		t.yEntry.SetText(strconv.Itoa(p.Y))
		t.sizeRow.Hide()
		t.templateLabel.SetText("Tap points have no template")
		return
	}

	r := settings.Region(bot.RegionKey(name))
	t.xEntry.SetText(strconv.Itoa(r.X))
	t.yEntry.SetText(strconv.Itoa(r.Y))
	t.wEntry.SetText(strconv.Itoa(r.Width))
	t.hEntry.SetText(strconv.Itoa(r.Height))
	t.sizeRow.Show()
	t.updateTemplateLabel(name)
}

func (t *RegionsTab) updateTemplateLabel(name string) {
	if !isTemplateRegion(name) {
		t.templateLabel.SetText("Checked by OCR only")
		return
	}
	if tmpl, ok := t.controller.launcher.Templates().Get(name); ok {
		t.templateLabel.SetText("Template: " + tmpl.Path)
	} else {
		t.templateLabel.SetText("No template, detection uses OCR")
	}
}

// updateRegistryLabel summarizes the template directory and its cache
func (t *RegionsTab) updateRegistryLabel() {
	registry := t.controller.launcher.Templates()
	t.registryLabel.SetText(describeRegistry(registry.BasePath(), registry.List(), registry.CacheStats()))
}

func describeRegistry(dir string, names []string, stats templates.CacheStats) string {
	loaded := "none"
	if len(names) > 0 {
		loaded = strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s: %s (cache %d hits, %d misses, %d loads)", dir, loaded, stats.Hits, stats.Misses, stats.Loads)
}

func parseInts(entries ...*widget.Entry) ([]int, error) {
	out := make([]int, len(entries))
	for i, e := range entries {
		n, err := strconv.Atoi(strings.TrimSpace(e.Text))
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", e.Text)
		}
		out[i] = n
	}
	return out, nil
}

// apply validates the entries and pushes them to the bot
func (t *RegionsTab) apply() error {
	name := t.keySelect.Selected
	if name == "" {
		return fmt.Errorf("no key selected")
	}

	if isPointKey(name) {
		v, err := parseInts(t.xEntry, t.yEntry)
		if err != nil {
			return err
		}
		p := cv.Point{X: v[0], Y: v[1]}
		t.controller.Bot().UpdateSettings(func(s *bot.Settings) { s.Points[bot.PointKey(name)] = p })
		t.statusLabel.SetText(fmt.Sprintf("%s = %s (unsaved)", name, p))
		return nil
	}

	v, err := parseInts(t.xEntry, t.yEntry, t.wEntry, t.hEntry)
	if err != nil {
		return err
	}
	r := cv.NewRegion(v[0], v[1], v[2], v[3])
	if err := r.Validate(); err != nil {
		return err
	}
	t.controller.Bot().UpdateSettings(func(s *bot.Settings) { s.Regions[bot.RegionKey(name)] = r })
	t.statusLabel.SetText(fmt.Sprintf("%s = %s (unsaved)", name, r))
	return nil
}

func (t *RegionsTab) save() {
	settings := t.controller.Bot().Settings()
	if err := config.SaveRegions(settings.Paths.Regions, settings.Regions, settings.Points); err != nil {
		t.controller.showError("Failed to save regions", err)
		return
	}
	t.statusLabel.SetText("Saved to " + settings.Paths.Regions)
}

// selectedRegion returns the region being edited, applying the entries first
func (t *RegionsTab) selectedRegion() (bot.RegionKey, cv.Region, bool) {
	name := t.keySelect.Selected
	if name == "" || isPointKey(name) {
		t.statusLabel.SetText("Select a region")
		return "", cv.Region{}, false
	}
	if err := t.apply(); err != nil {
		t.controller.showError("Invalid region", err)
		return "", cv.Region{}, false
	}
	key := bot.RegionKey(name)
	return key, t.controller.Bot().Settings().Region(key), true
}

func (t *RegionsTab) showPreview() {
	_, region, ok := t.selectedRegion()
	if !ok {
		return
	}

	b := t.controller.Bot()
	frame := b.Frames().LastFrame()
	if frame == nil || !b.IsRunning() {
		// the worker keeps LastFrame current only while running
		var err error
		frame, err = b.Frames().Frame()
		if err != nil {
			t.controller.showError("Capture failed", err)
			return
		}
	}
	t.preview.Image = cv.CropRegion(frame, region)
	t.preview.Refresh()
}

func (t *RegionsTab) saveTemplate() {
	key, region, ok := t.selectedRegion()
	if !ok {
		return
	}

	if !isTemplateRegion(string(key)) {
		t.statusLabel.SetText(string(key) + " is checked by OCR only")
		return
	}

	registry := t.controller.launcher.Templates()
	path := registry.PathFor(string(key))
	if tmpl, ok := registry.Get(string(key)); ok {
		path = tmpl.Path
	}
	if err := t.controller.Bot().Frames().SaveRegionPNG(region, path); err != nil {
		t.controller.showError("Failed to save template", err)
		return
	}
	if err := registry.Reload(string(key)); err != nil {
		t.controller.showError("Failed to register template", err)
		return
	}
	t.updateTemplateLabel(string(key))
	t.updateRegistryLabel()
	t.statusLabel.SetText("Template written to " + path + ", reload templates to use it")
	log.InfoWithContext("Template saved", map[string]interface{}{"name": string(key), "path": path})
}

func (t *RegionsTab) reloadTemplates() {
	if err := t.controller.launcher.Rebuild(); err != nil {
		t.controller.showError("Failed to reload templates", err)
		return
	}
	if name := t.keySelect.Selected; name != "" && !isPointKey(name) {
		t.updateTemplateLabel(name)
	}
	t.updateRegistryLabel()
	t.statusLabel.SetText(fmt.Sprintf("%d templates loaded", t.controller.launcher.Templates().Count()))
}

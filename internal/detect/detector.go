// Package detect decides whether a visual condition is present in a
// region, by template correlation, OCR keywords or a bright-pixel test.
package detect

import (
	"image"
	"strings"
	"time"

	"jordanella.com/tower-bot-go/internal/cv"
	"jordanella.com/tower-bot-go/internal/logging"
	"jordanella.com/tower-bot-go/internal/ocr"
)

// Strategy identifies how a result was produced
type Strategy int

const (
	StrategyText Strategy = iota
	StrategyTemplate
	StrategyBright
)

func (s Strategy) String() string {
	switch s {
	case StrategyTemplate:
		return "template"
	case StrategyBright:
		return "bright"
	default:
		return "text"
	}
}

// TemplateSource supplies preloaded grayscale templates by name
type TemplateSource interface {
	Gray(name string) (*image.Gray, bool)
}

// Check describes one trigger-style condition
type Check struct {
	Name     string                 // display name for logs
	Template string                 // template name; empty forces the text strategy
	Match    func(text string) bool // keyword test on lowercased OCR text
}

// Built-in checks
var (
	CheckRetry = Check{
		Name:  "Retry",
		Match: Contains("retry"),
	}
	CheckDefenceTab = Check{
		Name:     "DefTab",
		Template: "defence_region",
		Match: func(text string) bool {
			return (strings.Contains(text, "defense") || strings.Contains(text, "defence")) &&
				strings.Contains(text, "upgrade")
		},
	}
	CheckClaim = Check{
		Name:     "Claim",
		Template: "claim_region",
		Match:    Contains("claim"),
	}
	CheckNewPerk = Check{
		Name:     "NewPerk",
		Template: "new_perk_region",
		Match:    Contains("new perk"),
	}
)

// TemplateChecks lists the built-in checks that can match a template
var TemplateChecks = []Check{CheckDefenceTab, CheckClaim, CheckNewPerk}

// TemplateNames returns the template names TemplateChecks look up
func TemplateNames() []string {
	names := make([]string, 0, len(TemplateChecks))
	for _, check := range TemplateChecks {
		names = append(names, check.Template)
	}
	return names
}

// Contains returns a matcher for a single keyword
func Contains(keyword string) func(string) bool {
	return func(text string) bool {
		return strings.Contains(text, keyword)
	}
}

// Result is the outcome of one detection
type Result struct {
	Present  bool
	Strategy Strategy
	Score    float64 // template score, zero for other strategies
	Text     string  // OCR text, empty for other strategies
	Elapsed  time.Duration
}

// Detector evaluates checks against frames
type Detector struct {
	reader    ocr.Reader
	templates map[string]*image.Gray
	threshold float64
	logger    *logging.Logger
}

// New binds the detector to an OCR reader and snapshots the templates
// for the given names. Strategy selection is fixed from here on: a
// check whose template was present now always uses it.
func New(reader ocr.Reader, source TemplateSource, names ...string) *Detector {
	if reader == nil {
		reader = ocr.Null{}
	}

	d := &Detector{
		reader:    reader,
		templates: make(map[string]*image.Gray),
		threshold: cv.DefaultMatchThreshold,
		logger:    logging.NewLogger("Detector"),
	}

	if source != nil {
		for _, name := range names {
			if img, ok := source.Gray(name); ok && img != nil {
				d.templates[name] = img
			}
		}
	}

	return d
}

// HasTemplate reports whether the template strategy is active for name
func (d *Detector) HasTemplate(name string) bool {
	_, ok := d.templates[name]
	return ok
}

// Detect evaluates a trigger check in the region
func (d *Detector) Detect(frame *image.RGBA, region cv.Region, check Check) Result {
	if tmpl, ok := d.templates[check.Template]; ok && check.Template != "" {
		start := time.Now()
		score := cv.MatchScore(cv.CropGray(frame, region), tmpl)
		return Result{
			Present:  score >= d.threshold,
			Strategy: StrategyTemplate,
			Score:    score,
			Elapsed:  time.Since(start),
		}
	}

	res := d.ReadText(frame, region, "")
	present := false
	if check.Match != nil {
		present = check.Match(res.Text)
	}
	return Result{
		Present:  present,
		Strategy: StrategyText,
		Text:     res.Text,
		Elapsed:  res.Elapsed,
	}
}

// ReadText runs OCR on the region. Reader failures are logged and read
// as empty text.
func (d *Detector) ReadText(frame *image.RGBA, region cv.Region, charset string) ocr.Result {
	res, err := d.reader.ReadText(frame, region, charset)
	if err != nil {
		d.logger.WarnWithContext("OCR failed, treating as empty", map[string]interface{}{
			"region": region.String(),
			"error":  err.Error(),
		})
		return ocr.Result{}
	}
	res.Text = ocr.Normalize(res.Text)
	return res
}

// Bright reports whether the region contains a near-white pixel
func (d *Detector) Bright(frame *image.RGBA, region cv.Region) Result {
	return Result{
		Present:  cv.HasBrightPixel(frame, region, cv.BrightPixelThreshold),
		Strategy: StrategyBright,
	}
}

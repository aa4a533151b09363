package bot

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"time"

	"jordanella.com/tower-bot-go/internal/detect"
	"jordanella.com/tower-bot-go/internal/ocr"
)

var digitRun = regexp.MustCompile(`\d+`)

// ParseWave extracts the first run of digits from OCR text
func ParseWave(text string) (int, bool) {
	m := digitRun.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// stepWave refreshes the wave counter. It has no toggle and no cooldown
// because the stop thresholds depend on it.
func (b *Bot) stepWave(s *Settings, frame *image.RGBA, now time.Time) {
	if !b.schedule.Due(TaskWave, now) {
		return
	}
	b.schedule.Advance(TaskWave, now, s.Interval(TaskWave))

	res := b.detector.ReadText(frame, s.Region(RegionWave), ocr.DigitCharset)
	wave, ok := ParseWave(res.Text)
	if !ok {
		return
	}
	b.setWave(wave)
	b.debug(s, fmt.Sprintf("Wave %d", wave), map[string]interface{}{"elapsed_ms": res.Elapsed.Milliseconds()})
}

func (b *Bot) stepRetry(s *Settings, frame *image.RGBA, now time.Time) {
	if !s.Retry || !b.schedule.Due(TaskRetry, now) || !b.cooldowns.CanAct(TaskRetry, s.Cooldown(TaskRetry)) {
		return
	}
	b.schedule.Advance(TaskRetry, now, s.Interval(TaskRetry))

	for _, key := range []RegionKey{RegionRetry1, RegionRetry2} {
		region := s.Region(key)
		if b.detector.Detect(frame, region, detect.CheckRetry).Present {
			b.tap(s, "retry", "Retry", region.Center())
			return
		}
	}
}

// stepDefenceTab keeps the defence tab open. An active tab is never
// re-tapped and in that case the cooldown is left untouched.
func (b *Bot) stepDefenceTab(s *Settings, frame *image.RGBA, now time.Time) {
	if !b.schedule.Due(TaskDefence, now) {
		return
	}
	b.schedule.Advance(TaskDefence, now, s.Interval(TaskDefence))

	res := b.detector.Detect(frame, s.Region(RegionDefence), detect.CheckDefenceTab)
	b.logDetection(s, detect.CheckDefenceTab, res)

	if res.Present {
		b.debug(s, "DefTab active, skipping tap", nil)
		return
	}
	if b.cooldowns.CanAct(TaskDefence, s.Cooldown(TaskDefence)) {
		b.tap(s, "def", "DefTab inactive", s.Point(PointDefTab))
	}
}

// stepUpgrades shares one schedule and cooldown slot between health and
// absolute defence; both may tap in the same tick.
func (b *Bot) stepUpgrades(s *Settings, frame *image.RGBA, now time.Time) {
	if !b.schedule.Due(TaskUpgrade, now) || !b.cooldowns.CanAct(TaskUpgrade, s.Cooldown(TaskUpgrade)) {
		return
	}
	b.schedule.Advance(TaskUpgrade, now, s.Interval(TaskUpgrade))

	wave := b.Wave()

	if s.Health && wave < s.HealthStop {
		region := s.Region(RegionHealth)
		if b.detector.Bright(frame, region).Present {
			b.tap(s, "health", "Health", region.Center())
		}
	}

	if s.AbsDef && wave < s.AbsDefStop {
		region := s.Region(RegionAbsDef)
		if b.detector.Bright(frame, region).Present {
			b.tap(s, "abs_def", "AbsDef", region.Center())
		}
	}
}

// stepFloatGem taps the floating gem spot blindly
func (b *Bot) stepFloatGem(s *Settings, now time.Time) {
	if !s.Float || !b.schedule.Due(TaskFloat, now) || !b.cooldowns.CanAct(TaskFloat, s.Cooldown(TaskFloat)) {
		return
	}
	b.schedule.Advance(TaskFloat, now, s.Interval(TaskFloat))

	b.tap(s, "float", "FloatGem", s.Point(PointFloatGem))
}

func (b *Bot) stepClaimGems(s *Settings, frame *image.RGBA, now time.Time) {
	if !s.Gems || !b.schedule.Due(TaskGems, now) || !b.cooldowns.CanAct(TaskGems, s.Cooldown(TaskGems)) {
		return
	}
	b.schedule.Advance(TaskGems, now, s.Interval(TaskGems))

	region := s.Region(RegionClaim)
	res := b.detector.Detect(frame, region, detect.CheckClaim)
	b.logDetection(s, detect.CheckClaim, res)

	if res.Present {
		b.tap(s, "gems", "Claim", region.Center())
	}
}

// stepNewPerk opens the perk menu and hands the next tick to the selector
func (b *Bot) stepNewPerk(s *Settings, frame *image.RGBA, now time.Time) {
	if !s.Perk || b.Wave() >= s.PerkStop {
		return
	}
	if !b.schedule.Due(TaskPerk, now) || !b.cooldowns.CanAct(TaskPerk, s.Cooldown(TaskPerk)) {
		return
	}
	b.schedule.Advance(TaskPerk, now, s.Interval(TaskPerk))

	region := s.Region(RegionNewPerk)
	res := b.detector.Detect(frame, region, detect.CheckNewPerk)
	b.logDetection(s, detect.CheckNewPerk, res)

	if !res.Present {
		return
	}
	b.tap(s, "perk", "NEW PERK", region.Center())
	b.debug(s, "Switching to PERK_SELECTING state", nil)
	b.setState(StatePerkSelecting)
}

func (b *Bot) logDetection(s *Settings, check detect.Check, res detect.Result) {
	if !s.Debug {
		return
	}
	if res.Strategy == detect.StrategyTemplate {
		b.debug(s, fmt.Sprintf("%s CV score: %.2f", check.Name, res.Score), nil)
		return
	}
	b.debug(s, fmt.Sprintf("%s OCR: '%s'", check.Name, res.Text), nil)
}

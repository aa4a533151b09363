package bot

import (
	"fmt"
	"image"
	"strings"

	"jordanella.com/tower-bot-go/internal/events"
)

// PerkChoice is the outcome of ranking the offered perks
type PerkChoice struct {
	Phrase string
	Index  int // zero-based region index
}

// SelectPerk walks the priority list and returns the first phrase found
// in any region text, scanning regions in order for each phrase. Priority
// order therefore wins over region order.
func SelectPerk(texts []string, priority []string) (PerkChoice, bool) {
	for _, phrase := range priority {
		if phrase == "" {
			continue
		}
		for idx, text := range texts {
			if strings.Contains(text, phrase) {
				return PerkChoice{Phrase: phrase, Index: idx}, true
			}
		}
	}
	return PerkChoice{}, false
}

// handlePerkSelection reads the four perk cards and taps the best one.
// No match means no tap. The caller returns the state to IDLE either way.
func (b *Bot) handlePerkSelection(s *Settings, frame *image.RGBA) {
	texts := make([]string, len(PerkRegions))
	for idx, key := range PerkRegions {
		res := b.detector.ReadText(frame, s.Region(key), "")
		texts[idx] = res.Text
		b.debug(s, fmt.Sprintf("PERK OCR R%d: '%s'", idx+1, res.Text), map[string]interface{}{
			"elapsed_ms": res.Elapsed.Milliseconds(),
		})
	}

	wave := b.Wave()
	plog := b.logger.WithContext(map[string]interface{}{"wave": wave})

	choice, ok := SelectPerk(texts, s.PerkPriority)
	if !ok {
		plog.Warn("No matching perk found")
		b.publish(events.NewPerkNotFoundEvent(texts, wave))
		return
	}

	key := PerkRegions[choice.Index]
	plog.Info(fmt.Sprintf("Selected perk '%s' in region %d", choice.Phrase, choice.Index+1))
	b.tap(s, "perk_select", fmt.Sprintf("Perk '%s' in region %d", choice.Phrase, choice.Index+1), s.Region(key).Center())
	b.publish(events.NewPerkChosenEvent(choice.Phrase, string(key), wave))
}

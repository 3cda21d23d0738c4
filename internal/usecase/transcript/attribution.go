package transcript

import (
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// DefaultTurnTolerance absorbs clock drift between the ASR and diarizer streams.
const DefaultTurnTolerance = 150 * time.Millisecond

// Attributor assigns ASR words to diarizer speaker turns
type Attributor struct {
	toleranceMs int64
	logger      *zap.Logger
}

// NewAttributor creates an attributor; a non-positive tolerance falls back to the default
func NewAttributor(tolerance time.Duration, logger *zap.Logger) *Attributor {
	if tolerance <= 0 {
		tolerance = DefaultTurnTolerance
	}
	return &Attributor{
		toleranceMs: tolerance.Milliseconds(),
		logger:      logger,
	}
}

// Attribute tags every word with a concrete speaker.
// It returns nil when there is nothing to attribute (no turns or no words);
// callers then fall back to content-based inference. Words that cannot be
// resolved at all are dropped and counted.
func (a *Attributor) Attribute(words []entities.Word, turns []entities.SpeakerTurn) (attributed []entities.AttributedWord, dropped int) {
	if len(turns) == 0 || len(words) == 0 {
		return nil, 0
	}

	tagged := make([]entities.AttributedWord, len(words))
	lastAssigned := entities.SpeakerUnknown

	for i, w := range words {
		speaker := a.resolve(w, turns, lastAssigned)
		if speaker.IsKnown() {
			lastAssigned = speaker
		}
		tagged[i] = entities.AttributedWord{Word: w, Speaker: speaker}
	}

	attributed = make([]entities.AttributedWord, 0, len(tagged))
	for i := range tagged {
		if !tagged[i].Speaker.IsKnown() {
			tagged[i].Speaker = fillGap(tagged, i, lastAssigned)
		}
		if !tagged[i].Speaker.IsKnown() {
			dropped++
			continue
		}
		attributed = append(attributed, tagged[i])
	}

	if dropped > 0 && a.logger != nil {
		a.logger.Warn("⚠️ Dropped words without a resolvable speaker",
			zap.Int("dropped", dropped),
			zap.Int("total_words", len(words)),
			zap.Int("turns", len(turns)),
		)
	}

	return attributed, dropped
}

// resolve picks the speaker for one word from the overlapping turns
func (a *Attributor) resolve(w entities.Word, turns []entities.SpeakerTurn, lastAssigned entities.Speaker) entities.Speaker {
	var (
		candidates int
		single     entities.Speaker
		best       entities.Speaker
		bestDur    int64
	)

	for _, t := range turns {
		if !(t.StartTimeMs-a.toleranceMs < w.EndMs && t.EndTimeMs+a.toleranceMs > w.StartMs) {
			continue
		}
		candidates++
		if candidates == 1 {
			single = t.Speaker
		}

		// strict > keeps the first seen turn on equal overlap
		if dur := overlapMs(w, t); dur > bestDur {
			bestDur = dur
			best = t.Speaker
		}
	}

	switch {
	case candidates == 0:
		return entities.SpeakerUnknown
	case candidates == 1:
		return single
	case bestDur > 0:
		return best
	default:
		return lastAssigned
	}
}

// fillGap prefers the nearest preceding known speaker, then the nearest following one
func fillGap(words []entities.AttributedWord, i int, lastAssigned entities.Speaker) entities.Speaker {
	for j := i - 1; j >= 0; j-- {
		if words[j].Speaker.IsKnown() {
			return words[j].Speaker
		}
	}
	for j := i + 1; j < len(words); j++ {
		if words[j].Speaker.IsKnown() {
			return words[j].Speaker
		}
	}
	return lastAssigned
}

func overlapMs(w entities.Word, t entities.SpeakerTurn) int64 {
	return min(w.EndMs, t.EndTimeMs) - max(w.StartMs, t.StartTimeMs)
}

// Package transcript turns word-level ASR output and optional diarizer turns into
// the speaker-segmented transcript stored on a recording.
package transcript

import (
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// Path records which attribution strategy produced a transcript
type Path string

const (
	PathSpeakerTurns     Path = "speaker_turns"
	PathContentHeuristic Path = "content_heuristic"
)

// Options tunes the builder
type Options struct {
	TurnTolerance   time.Duration
	MinSegmentWords int
}

// Result is a built transcript with its supplementary metadata
type Result struct {
	Transcript   entities.Transcript
	Duration     *int
	Path         Path
	WordCount    int
	DroppedWords int
}

// Builder runs attribution, segment building, smoothing and duration estimation
type Builder struct {
	attributor *Attributor
	minWords   int
	logger     *zap.Logger
}

// NewBuilder creates a transcript builder
func NewBuilder(opts Options, logger *zap.Logger) *Builder {
	minWords := opts.MinSegmentWords
	if minWords <= 0 {
		minWords = DefaultMinSegmentWords
	}
	return &Builder{
		attributor: NewAttributor(opts.TurnTolerance, logger),
		minWords:   minWords,
		logger:     logger,
	}
}

// Build produces the final transcript from a verbose ASR response
func (b *Builder) Build(asr *entities.VerboseTranscription, turns []entities.SpeakerTurn) Result {
	if asr == nil {
		return Result{Transcript: entities.Transcript{}, Path: PathContentHeuristic}
	}

	words := WordsFromASR(asr.Words)
	res := Result{WordCount: len(words)}

	var segments entities.Transcript
	attributed, dropped := b.attributor.Attribute(words, turns)
	res.DroppedWords = dropped

	if len(attributed) > 0 {
		res.Path = PathSpeakerTurns
		segments = BuildFromWords(attributed)
	} else {
		if len(turns) > 0 && b.logger != nil {
			b.logger.Warn("⚠️ Speaker turns did not cover any word, inferring speakers from content",
				zap.Int("turns", len(turns)),
				zap.Int("words", len(words)),
			)
		}
		res.Path = PathContentHeuristic
		segments = BuildFromASRSegments(asr.Segments)
	}

	res.Transcript = Smooth(segments, b.minWords)

	res.Duration = EstimateDuration(asr.Segments)
	if res.Duration == nil && b.logger != nil {
		b.logger.Warn("⚠️ ASR response has no segments, duration unknown")
	}

	return res
}

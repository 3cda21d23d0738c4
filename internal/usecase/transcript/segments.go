package transcript

import (
	"math"
	"strings"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// DefaultMinSegmentWords is the word count below which an interjection gets absorbed.
const DefaultMinSegmentWords = 2

// WordsFromASR converts ASR words (seconds) into millisecond words, skipping blanks
func WordsFromASR(words []entities.WordTimestamp) []entities.Word {
	out := make([]entities.Word, 0, len(words))
	for _, w := range words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		out = append(out, entities.Word{
			Text:    text,
			StartMs: secondsToMs(w.Start),
			EndMs:   secondsToMs(w.End),
		})
	}
	return out
}

// BuildFromWords collapses speaker-tagged words into one segment per speaker run
func BuildFromWords(words []entities.AttributedWord) entities.Transcript {
	type run struct {
		speaker entities.Speaker
		start   int64
		words   []string
	}

	var runs []*run
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].speaker == w.Speaker {
			cur := runs[n-1]
			cur.words = append(cur.words, w.Text)
			if w.StartMs < cur.start {
				cur.start = w.StartMs
			}
			continue
		}
		runs = append(runs, &run{speaker: w.Speaker, start: w.StartMs, words: []string{w.Text}})
	}

	out := make(entities.Transcript, 0, len(runs))
	for _, r := range runs {
		out = append(out, entities.TranscriptSegment{
			Speaker:   r.speaker,
			Text:      strings.Join(r.words, " "),
			Timestamp: r.start,
		})
	}
	return out
}

// BuildFromASRSegments is the fallback when no diarizer turns exist: ASR segment
// boundaries are kept and the speaker is guessed from the text.
func BuildFromASRSegments(segments []entities.Segment) entities.Transcript {
	out := make(entities.Transcript, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		out = append(out, entities.TranscriptSegment{
			Speaker:   InferSpeaker(text),
			Text:      text,
			Timestamp: secondsToMs(s.Start),
		})
	}
	return out
}

// Smooth absorbs short cross-talk interjections into the surrounding turn and then
// merges adjacent segments of the same speaker. The result never has two
// consecutive segments with the same speaker.
func Smooth(segments entities.Transcript, minWords int) entities.Transcript {
	if len(segments) == 0 {
		return entities.Transcript{}
	}
	if minWords <= 0 {
		minWords = DefaultMinSegmentWords
	}

	smoothed := make(entities.Transcript, 0, len(segments))
	smoothed = append(smoothed, segments[0])
	for i := 1; i < len(segments); i++ {
		cur := segments[i]
		prev := &smoothed[len(smoothed)-1]

		nextMatchesPrev := i+1 >= len(segments) || segments[i+1].Speaker == prev.Speaker
		if wordCount(cur.Text) < minWords && cur.Speaker != prev.Speaker && nextMatchesPrev {
			prev.Text = joinText(prev.Text, cur.Text)
			continue
		}
		smoothed = append(smoothed, cur)
	}

	merged := make(entities.Transcript, 0, len(smoothed))
	merged = append(merged, smoothed[0])
	for _, s := range smoothed[1:] {
		last := &merged[len(merged)-1]
		if s.Speaker == last.Speaker {
			last.Text = joinText(last.Text, s.Text)
			continue
		}
		merged = append(merged, s)
	}

	return merged
}

// EstimateDuration returns round(last.End) in seconds, or nil without segments.
// It reads the ASR-native segments, not the rebuilt transcript.
func EstimateDuration(segments []entities.Segment) *int {
	if len(segments) == 0 {
		return nil
	}
	d := int(math.Round(segments[len(segments)-1].End))
	return &d
}

func secondsToMs(s float64) int64 {
	return int64(math.Round(s * 1000))
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

func joinText(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

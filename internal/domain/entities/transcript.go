package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Speaker identifies one side of a two-party interview call
type Speaker string

const (
	SpeakerUser Speaker = "User"
	SpeakerAI   Speaker = "AI"

	// SpeakerUnknown only exists during attribution and is never persisted.
	SpeakerUnknown Speaker = "Unknown"
)

// IsKnown reports whether the speaker is a concrete call party
func (s Speaker) IsKnown() bool {
	return s == SpeakerUser || s == SpeakerAI
}

// TranscriptSegment is one contiguous run of speech by one speaker
type TranscriptSegment struct {
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp int64   `json:"timestamp"` // ms from recording start
}

// Transcript is the persisted, speaker-segmented transcript of a call
type Transcript []TranscriptSegment

// UnmarshalJSON accepts both a JSON array and a JSON string holding the array,
// since older rows stored the transcript double-encoded.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return fmt.Errorf("failed to decode transcript string: %w", err)
		}
		if inner == "" {
			*t = nil
			return nil
		}
		data = []byte(inner)
	}

	var segments []TranscriptSegment
	if err := json.Unmarshal(data, &segments); err != nil {
		return fmt.Errorf("failed to decode transcript: %w", err)
	}
	*t = segments
	return nil
}

// SpeakerTurn is a coarse speaker interval supplied by the external diarizer
type SpeakerTurn struct {
	Speaker     Speaker `json:"speaker" validate:"required,oneof=User AI"`
	StartTimeMs int64   `json:"startTimeMs" validate:"gte=0"`
	EndTimeMs   int64   `json:"endTimeMs" validate:"gtefield=StartTimeMs"`
}

// Validate checks a turn without relying on struct tags
func (t SpeakerTurn) Validate() error {
	if !t.Speaker.IsKnown() {
		return fmt.Errorf("%w: %q", ErrInvalidSpeaker, t.Speaker)
	}
	if t.StartTimeMs < 0 || t.EndTimeMs < t.StartTimeMs {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidTurnRange, t.StartTimeMs, t.EndTimeMs)
	}
	return nil
}

// Word is an ASR word converted to milliseconds
type Word struct {
	Text    string
	StartMs int64
	EndMs   int64
}

// AttributedWord is a word tagged with the speaker who said it
type AttributedWord struct {
	Word
	Speaker Speaker
}

// WordTimestamp is a word as returned by the ASR provider (seconds)
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is an ASR-native segment (seconds)
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// VerboseTranscription is the verbose_json shape returned by Whisper-compatible ASR
type VerboseTranscription struct {
	Text     string          `json:"text"`
	Language string          `json:"language,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Words    []WordTimestamp `json:"words"`
	Segments []Segment       `json:"segments"`
}

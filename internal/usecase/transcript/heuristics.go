package transcript

import (
	"strings"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// MaxQuestionWords bounds how long a question-word segment may be and still be
// treated as the interviewer speaking.
var MaxQuestionWords = 12

// Interrogatives count as a question wherever they appear in a short segment.
// The lists are a best-effort guess and are expected to be tuned per deployment.
var Interrogatives = map[string]struct{}{
	// Indonesian
	"apa": {}, "apakah": {}, "bagaimana": {}, "gimana": {}, "kenapa": {}, "mengapa": {},
	"siapa": {}, "kapan": {}, "dimana": {}, "mana": {}, "berapa": {}, "ceritakan": {},
	"jelaskan": {}, "sebutkan": {},
	// English
	"what": {}, "why": {}, "how": {}, "when": {}, "where": {}, "who": {}, "which": {},
	"describe": {}, "explain": {},
}

// QuestionOpeners only count as a question when they start the segment.
var QuestionOpeners = map[string]struct{}{
	// Indonesian
	"bisakah": {}, "bisa": {}, "boleh": {}, "coba": {}, "pernahkah": {}, "pernah": {},
	// English
	"can": {}, "could": {}, "would": {}, "do": {}, "does": {}, "did": {}, "is": {},
	"are": {}, "have": {}, "tell": {},
}

// InferSpeaker guesses the speaker of an untagged ASR segment: a question mark, or a
// short segment phrased as a question, is attributed to the interviewer (User);
// everything else to AI.
func InferSpeaker(text string) entities.Speaker {
	if strings.Contains(text, "?") {
		return entities.SpeakerUser
	}

	words := normalizedWords(text)
	if len(words) == 0 || len(words) > MaxQuestionWords {
		return entities.SpeakerAI
	}
	if looksLikeQuestion(words) {
		return entities.SpeakerUser
	}
	return entities.SpeakerAI
}

func looksLikeQuestion(words []string) bool {
	if _, ok := QuestionOpeners[words[0]]; ok {
		return true
	}
	for _, w := range words {
		if _, ok := Interrogatives[w]; ok {
			return true
		}
		// Indonesian interrogative particle: "bisakah", "adakah", ...
		if len(w) > 5 && strings.HasSuffix(w, "kah") {
			return true
		}
	}
	return false
}

func normalizedWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

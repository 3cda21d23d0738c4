package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// wire types use pointers so a missing field is distinguishable from a zero value

type wireScore struct {
	Score     *float64 `json:"score"`
	Rationale *string  `json:"rationale"`
}

type wireStar struct {
	Score            *float64 `json:"score"`
	Rationale        string   `json:"rationale"`
	SituationPresent bool     `json:"situation_present"`
	TaskPresent      bool     `json:"task_present"`
	ActionPresent    bool     `json:"action_present"`
	ResultPresent    bool     `json:"result_present"`
}

type wireAnswer struct {
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	StarEvaluation *wireStar `json:"star_evaluation"`
}

type wireReport struct {
	Answers             []wireAnswer `json:"answers"`
	Clarity             *wireScore   `json:"clarity"`
	Relevance           *wireScore   `json:"relevance"`
	Depth               *wireScore   `json:"depth"`
	CommStyle           *wireScore   `json:"comm_style"`
	CulturalFit         *wireScore   `json:"cultural_fit"`
	AttentionToDetail   *wireScore   `json:"attention_to_detail"`
	LanguageProficiency *wireScore   `json:"language_proficiency"`
	StarMethod          *wireScore   `json:"star_method"`
}

type wireEnvelope struct {
	AnalysisReport *wireReport `json:"analysis_report"`
}

// ParsedReport is a validated LLM response
type ParsedReport struct {
	report wireReport
	// JSON is the fence-stripped payload, kept for audit
	JSON []byte
}

// ParseReport validates an LLM response. Markdown fences and any preamble are stripped.
// Every rubric dimension and every answer's star_evaluation needs a score within 1..5,
// and clarity.rationale must be present.
func ParseReport(content string) (*ParsedReport, error) {
	payload := extractJSON(content)
	if payload == "" {
		return nil, errors.New("empty response")
	}

	var envelope wireEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	report := envelope.AnalysisReport
	if report == nil {
		// some models drop the wrapper object
		var bare wireReport
		if err := json.Unmarshal([]byte(payload), &bare); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		report = &bare
	}

	if err := validate(report); err != nil {
		return nil, err
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, []byte(payload)); err != nil {
		return nil, fmt.Errorf("failed to compact JSON response: %w", err)
	}

	return &ParsedReport{report: *report, JSON: compact.Bytes()}, nil
}

func validate(r *wireReport) error {
	if r.Clarity == nil || r.Clarity.Score == nil {
		return errors.New("missing numeric clarity.score")
	}
	if r.Clarity.Rationale == nil {
		return errors.New("missing string clarity.rationale")
	}
	if r.StarMethod == nil || r.StarMethod.Score == nil {
		return errors.New("missing numeric star_method.score")
	}

	// every dimension is required; a missing score is never stored as 0
	scores := []struct {
		name  string
		score *wireScore
	}{
		{"clarity", r.Clarity},
		{"relevance", r.Relevance},
		{"depth", r.Depth},
		{"comm_style", r.CommStyle},
		{"cultural_fit", r.CulturalFit},
		{"attention_to_detail", r.AttentionToDetail},
		{"language_proficiency", r.LanguageProficiency},
		{"star_method", r.StarMethod},
	}
	for _, d := range scores {
		if d.score == nil || d.score.Score == nil {
			return fmt.Errorf("missing numeric %s.score", d.name)
		}
		if err := checkRange(*d.score.Score); err != nil {
			return fmt.Errorf("%s.score: %w", d.name, err)
		}
	}

	for i, a := range r.Answers {
		if a.StarEvaluation == nil || a.StarEvaluation.Score == nil {
			return fmt.Errorf("missing numeric answers[%d].star_evaluation.score", i)
		}
		if err := checkRange(*a.StarEvaluation.Score); err != nil {
			return fmt.Errorf("answers[%d].star_evaluation.score: %w", i, err)
		}
	}
	return nil
}

func checkRange(score float64) error {
	return entities.RubricScore{Score: score}.Validate()
}

// ToReport builds the report entity for a call
func (p *ParsedReport) ToReport(callID uuid.UUID) *entities.Report {
	r := entities.NewReport(callID)
	r.Clarity = toScore(p.report.Clarity)
	r.Relevance = toScore(p.report.Relevance)
	r.Depth = toScore(p.report.Depth)
	r.CommStyle = toScore(p.report.CommStyle)
	r.CulturalFit = toScore(p.report.CulturalFit)
	r.AttentionToDetail = toScore(p.report.AttentionToDetail)
	r.LanguageProficiency = toScore(p.report.LanguageProficiency)
	r.StarMethod = toScore(p.report.StarMethod)

	for _, a := range p.report.Answers {
		eval := entities.AnswerEvaluation{
			Question: strings.TrimSpace(a.Question),
			Answer:   strings.TrimSpace(a.Answer),
		}
		if s := a.StarEvaluation; s != nil {
			eval.StarEvaluation = entities.StarEvaluation{
				Rationale:        s.Rationale,
				SituationPresent: s.SituationPresent,
				TaskPresent:      s.TaskPresent,
				ActionPresent:    s.ActionPresent,
				ResultPresent:    s.ResultPresent,
			}
			if s.Score != nil {
				eval.StarEvaluation.Score = *s.Score
			}
		}
		r.Answers = append(r.Answers, eval)
	}

	r.RawResponse = p.JSON
	return r
}

func toScore(s *wireScore) entities.RubricScore {
	var out entities.RubricScore
	if s == nil {
		return out
	}
	if s.Score != nil {
		out.Score = *s.Score
	}
	if s.Rationale != nil {
		out.Rationale = *s.Rationale
	}
	return out
}

// extractJSON extracts the JSON object from markdown code blocks or plain text,
// skipping any prose the model put before the opening fence.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	brace := strings.Index(content, "{")
	if fence := strings.Index(content, "```"); fence != -1 && (brace == -1 || fence < brace) {
		content = content[fence+3:]
		content = strings.TrimPrefix(content, "json")
		content = strings.TrimPrefix(content, "JSON")
	}
	// trailing fence even when the opening one is missing
	if idx := strings.LastIndex(content, "```"); idx != -1 {
		content = content[:idx]
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}

	return strings.TrimSpace(content)
}

// truncate shortens raw responses before they are logged
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

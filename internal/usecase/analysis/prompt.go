package analysis

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/ai"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

const schemaName = "call_analysis_report"

// dimensionKeys are the rubric fields of the report, in schema order
var dimensionKeys = []string{
	"clarity",
	"relevance",
	"depth",
	"comm_style",
	"cultural_fit",
	"attention_to_detail",
	"language_proficiency",
}

const systemPrompt = `You are an experienced interview evaluator. You read the transcript of a
two-party interview call between an interviewer ("User") and a candidate ("AI") and
score the candidate objectively. Base every score only on what is said in the transcript.
Reply with a single JSON object that follows the provided schema. Do not add commentary,
markdown or code fences.`

// FormatTranscript serializes a transcript as "speaker: text" lines
func FormatTranscript(transcript entities.Transcript) string {
	var sb strings.Builder
	for _, seg := range transcript {
		sb.WriteString(string(seg.Speaker))
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(seg.Text))
		sb.WriteString("\n")
	}
	return sb.String()
}

// BuildPrompt assembles the chat request for one call
func BuildPrompt(bank *config.QuestionBank, call *entities.Call, transcript entities.Transcript) ai.ChatRequest {
	var sb strings.Builder

	if call != nil && (call.Position != "" || call.CandidateName != "") {
		sb.WriteString("## Interview\n")
		if call.Position != "" {
			fmt.Fprintf(&sb, "Position: %s\n", call.Position)
		}
		if call.CandidateName != "" {
			fmt.Fprintf(&sb, "Candidate: %s\n", call.CandidateName)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Mandatory questions\n")
	sb.WriteString("For each question below, find where it was asked (it may be paraphrased or in another language), ")
	sb.WriteString("summarize the candidate's answer and evaluate that answer with the STAR method. ")
	sb.WriteString("If a question was never asked or not answered, set answer to \"Not answered\" and score 1.\n")
	for i, q := range bank.MandatoryQuestions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q.Text)
	}

	sb.WriteString("\n## STAR method rubric\n")
	fmt.Fprintf(&sb, "- Situation: %s\n", bank.StarRubric.Situation)
	fmt.Fprintf(&sb, "- Task: %s\n", bank.StarRubric.Task)
	fmt.Fprintf(&sb, "- Action: %s\n", bank.StarRubric.Action)
	fmt.Fprintf(&sb, "- Result: %s\n", bank.StarRubric.Result)
	sb.WriteString("Scoring:\n")
	sb.WriteString(strings.TrimSpace(bank.StarRubric.Scoring))
	sb.WriteString("\n")

	sb.WriteString("\n## Rubric dimensions (score each 1-5 with a short rationale)\n")
	for _, d := range bank.Dimensions {
		fmt.Fprintf(&sb, "- %s: %s\n", d.Key, d.Description)
	}
	sb.WriteString("- star_method: overall use of the STAR method across all answers.\n")

	sb.WriteString("\n## Transcript\n")
	sb.WriteString(FormatTranscript(transcript))

	sb.WriteString("\nReturn only the JSON object with a top-level \"analysis_report\" key. ")
	sb.WriteString("All scores are integers from 1 to 5.\n")

	return ai.ChatRequest{
		System:     systemPrompt,
		User:       sb.String(),
		SchemaName: schemaName,
		Schema:     ReportSchema(),
	}
}

// ReportSchema is the strict JSON schema attached as the structured-output format
func ReportSchema() map[string]any {
	score := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"score", "rationale"},
		"properties": map[string]any{
			"score":     map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
			"rationale": map[string]any{"type": "string"},
		},
	}

	starEvaluation := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"score", "rationale", "situation_present", "task_present", "action_present", "result_present"},
		"properties": map[string]any{
			"score":             map[string]any{"type": "integer", "minimum": 1, "maximum": 5},
			"rationale":         map[string]any{"type": "string"},
			"situation_present": map[string]any{"type": "boolean"},
			"task_present":      map[string]any{"type": "boolean"},
			"action_present":    map[string]any{"type": "boolean"},
			"result_present":    map[string]any{"type": "boolean"},
		},
	}

	answer := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"question", "answer", "star_evaluation"},
		"properties": map[string]any{
			"question":        map[string]any{"type": "string"},
			"answer":          map[string]any{"type": "string"},
			"star_evaluation": starEvaluation,
		},
	}

	properties := map[string]any{
		"answers":     map[string]any{"type": "array", "items": answer},
		"star_method": score,
	}
	required := []string{"answers"}
	for _, key := range dimensionKeys {
		properties[key] = score
		required = append(required, key)
	}
	required = append(required, "star_method")

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"analysis_report"},
		"properties": map[string]any{
			"analysis_report": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             required,
				"properties":           properties,
			},
		},
	}
}

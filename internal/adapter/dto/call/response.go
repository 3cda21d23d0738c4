package call

import (
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// CallResponse represents a call in API responses
type CallResponse struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	CandidateName    string     `json:"candidate_name,omitempty"`
	Position         string     `json:"position,omitempty"`
	ReportID         *uuid.UUID `json:"report_id,omitempty"`
	AnalysisStatus   string     `json:"analysis_status"`
	AnalysisError    *string    `json:"analysis_error,omitempty"`
	AnalysisAttempts int        `json:"analysis_attempts"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RecordingResponse represents the recording of a call
type RecordingResponse struct {
	UploadStatus    string              `json:"upload_status"`
	ContentType     string              `json:"content_type,omitempty"`
	FileSize        int64               `json:"file_size,omitempty"`
	Duration        *int                `json:"duration"`
	SegmentCount    int                 `json:"segment_count"`
	SpeakerTurns    int                 `json:"speaker_turns"`
	ASRProvider     string              `json:"asr_provider,omitempty"`
	ProcessingError *string             `json:"processing_error,omitempty"`
	TranscribedAt   *time.Time          `json:"transcribed_at,omitempty"`
	Transcript      entities.Transcript `json:"transcript,omitempty"`
}

// CallDetailsResponse is a call with its recording
type CallDetailsResponse struct {
	Call      *CallResponse      `json:"call"`
	Recording *RecordingResponse `json:"recording,omitempty"`
}

// AnalysisSummaryResponse is the analysis outcome attached to a transcription
type AnalysisSummaryResponse struct {
	Status   string     `json:"status"`
	ReportID *uuid.UUID `json:"reportId,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// TranscriptionResponse is returned by both transcribe routes
type TranscriptionResponse struct {
	CallID       uuid.UUID               `json:"callId"`
	Transcript   entities.Transcript     `json:"transcript"`
	Duration     *int                    `json:"duration"`
	SegmentCount int                     `json:"segmentCount"`
	Path         string                  `json:"attributionPath"`
	DroppedWords int                     `json:"droppedWords,omitempty"`
	Analysis     AnalysisSummaryResponse `json:"analysis"`
}

// AnalyzeResponse is returned by the analyze route
type AnalyzeResponse struct {
	ReportID uuid.UUID       `json:"reportId"`
	Existing bool            `json:"existing"`
	Report   *ReportResponse `json:"report,omitempty"`
}

// ReportResponse represents an analysis report
type ReportResponse struct {
	ID                  uuid.UUID                   `json:"id"`
	CallID              uuid.UUID                   `json:"call_id"`
	Clarity             entities.RubricScore        `json:"clarity"`
	Relevance           entities.RubricScore        `json:"relevance"`
	Depth               entities.RubricScore        `json:"depth"`
	CommStyle           entities.RubricScore        `json:"comm_style"`
	CulturalFit         entities.RubricScore        `json:"cultural_fit"`
	AttentionToDetail   entities.RubricScore        `json:"attention_to_detail"`
	LanguageProficiency entities.RubricScore        `json:"language_proficiency"`
	StarMethod          entities.RubricScore        `json:"star_method"`
	Answers             []entities.AnswerEvaluation `json:"answers"`
	Model               string                      `json:"model,omitempty"`
	LatencyMs           int64                       `json:"latency_ms,omitempty"`
	CreatedAt           time.Time                   `json:"created_at"`
}

// RecordingURLResponse is a presigned audio link
type RecordingURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

package presenter

import (
	"time"

	"github.com/johnquangdev/interview-analyzer/internal/adapter/dto/call"
	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/analysis"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcription"
)

// ToCallResponse converts a Call entity to CallResponse DTO
func ToCallResponse(c *entities.Call) *call.CallResponse {
	if c == nil {
		return nil
	}
	return &call.CallResponse{
		ID:               c.ID,
		OwnerID:          c.OwnerID,
		CandidateName:    c.CandidateName,
		Position:         c.Position,
		ReportID:         c.ReportID,
		AnalysisStatus:   string(c.AnalysisStatus),
		AnalysisError:    c.AnalysisError,
		AnalysisAttempts: c.AnalysisAttempts,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ToCallResponses converts a list of calls
func ToCallResponses(calls []*entities.Call) []*call.CallResponse {
	out := make([]*call.CallResponse, 0, len(calls))
	for _, c := range calls {
		out = append(out, ToCallResponse(c))
	}
	return out
}

// ToRecordingResponse converts a Recording entity; the storage key is not exposed
func ToRecordingResponse(r *entities.Recording) *call.RecordingResponse {
	if r == nil {
		return nil
	}
	return &call.RecordingResponse{
		UploadStatus:    string(r.UploadStatus),
		ContentType:     r.ContentType,
		FileSize:        r.FileSize,
		Duration:        r.Duration,
		SegmentCount:    len(r.Transcript),
		SpeakerTurns:    len(r.SpeakerMetadata),
		ASRProvider:     r.ASRProvider,
		ProcessingError: r.ProcessingError,
		TranscribedAt:   r.TranscribedAt,
		Transcript:      r.Transcript,
	}
}

// ToReportResponse converts a Report entity
func ToReportResponse(r *entities.Report) *call.ReportResponse {
	if r == nil {
		return nil
	}
	answers := r.Answers
	if answers == nil {
		answers = []entities.AnswerEvaluation{}
	}
	return &call.ReportResponse{
		ID:                  r.ID,
		CallID:              r.CallID,
		Clarity:             r.Clarity,
		Relevance:           r.Relevance,
		Depth:               r.Depth,
		CommStyle:           r.CommStyle,
		CulturalFit:         r.CulturalFit,
		AttentionToDetail:   r.AttentionToDetail,
		LanguageProficiency: r.LanguageProficiency,
		StarMethod:          r.StarMethod,
		Answers:             answers,
		Model:               r.Model,
		LatencyMs:           r.LatencyMs,
		CreatedAt:           r.CreatedAt,
	}
}

// ToTranscriptionResponse converts a pipeline result
func ToTranscriptionResponse(res *transcription.Result) *call.TranscriptionResponse {
	if res == nil {
		return nil
	}
	segments := res.Transcript
	if segments == nil {
		segments = entities.Transcript{}
	}
	return &call.TranscriptionResponse{
		CallID:       res.CallID,
		Transcript:   segments,
		Duration:     res.Duration,
		SegmentCount: res.SegmentCount,
		Path:         string(res.Path),
		DroppedWords: res.DroppedWords,
		Analysis: call.AnalysisSummaryResponse{
			Status:   string(res.Analysis.Status),
			ReportID: res.Analysis.ReportID,
			Error:    res.Analysis.Error,
		},
	}
}

// ToAnalyzeResponse converts an analysis result
func ToAnalyzeResponse(res *analysis.Result) *call.AnalyzeResponse {
	if res == nil {
		return nil
	}
	return &call.AnalyzeResponse{
		ReportID: res.ReportID,
		Existing: res.Existing,
		Report:   ToReportResponse(res.Report),
	}
}

// ToRecordingURLResponse converts a presigned link
func ToRecordingURLResponse(url string, expiry time.Duration) *call.RecordingURLResponse {
	return &call.RecordingURLResponse{
		URL:       url,
		ExpiresIn: int(expiry.Seconds()),
	}
}

// ToSpeakerTurns converts request turns to entities
func ToSpeakerTurns(in []call.SpeakerTurnRequest) []entities.SpeakerTurn {
	if len(in) == 0 {
		return nil
	}
	out := make([]entities.SpeakerTurn, 0, len(in))
	for _, t := range in {
		out = append(out, entities.SpeakerTurn{
			Speaker:     entities.Speaker(t.Speaker),
			StartTimeMs: t.StartTimeMs,
			EndTimeMs:   t.EndTimeMs,
		})
	}
	return out
}

package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden access")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrConflict      = errors.New("resource conflict")
)

// Call errors
var (
	ErrCallNotFound      = errors.New("call not found")
	ErrRecordingNotFound = errors.New("recording not found")
	ErrTranscriptMissing = errors.New("recording has no transcript")
	ErrAudioMissing      = errors.New("recording has no stored audio")
	ErrInvalidSpeakers   = errors.New("invalid speaker metadata")
	ErrReportNotFound    = errors.New("report not found")
)

// Pipeline errors
var (
	ErrUploadFailed        = errors.New("audio upload failed")
	ErrDownloadFailed      = errors.New("audio download failed")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrStorageUnavailable  = errors.New("object storage not configured")
)

// Analysis errors
var (
	ErrAnalysisTimeout         = errors.New("analysis timed out")
	ErrAnalysisInvalidResponse = errors.New("analysis response is invalid")
	ErrAnalysisInProgress      = errors.New("analysis already in progress")
	ErrReportPersistFailed     = errors.New("report could not be persisted")
	ErrReportAlreadyExists     = errors.New("report already exists for call")
	ErrLLMUnavailable          = errors.New("llm client not configured")
)

package call

// CreateCallRequest represents the request to create a call
type CreateCallRequest struct {
	CandidateName string `json:"candidate_name" validate:"max=255"`
	Position      string `json:"position" validate:"max=255"`
}

// ListCallsRequest represents pagination query parameters
type ListCallsRequest struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// SpeakerTurnRequest is one diarizer turn. Turns are checked by the transcription
// use case so every route reports INVALID_SPEAKER_METADATA the same way.
type SpeakerTurnRequest struct {
	Speaker     string `json:"speaker" example:"User"`
	StartTimeMs int64  `json:"startTimeMs" example:"0"`
	EndTimeMs   int64  `json:"endTimeMs" example:"4200"`
}

// TranscribeStoredRequest re-runs transcription on audio already in storage
type TranscribeStoredRequest struct {
	CallID          string               `json:"callId" validate:"required,uuid"`
	SpeakerMetadata []SpeakerTurnRequest `json:"speaker_metadata"`
}

// DiarizerWebhookRequest is the signed push from the external diarizer
type DiarizerWebhookRequest struct {
	CallID string               `json:"callId" validate:"required,uuid"`
	Turns  []SpeakerTurnRequest `json:"turns" validate:"required,min=1"`
}

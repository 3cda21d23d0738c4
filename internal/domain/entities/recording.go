package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadStatus represents the audio/transcription lifecycle of a recording
type UploadStatus string

const (
	UploadStatusPending             UploadStatus = "pending"
	UploadStatusUploaded            UploadStatus = "uploaded"
	UploadStatusFailedUpload        UploadStatus = "failed_upload"
	UploadStatusTranscriptionFailed UploadStatus = "transcription_failed"
)

// Recording represents the audio of a call and its transcript
type Recording struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	CallID          uuid.UUID     `json:"call_id" gorm:"type:uuid;not null;uniqueIndex"`
	AudioPath       string        `json:"audio_path,omitempty" gorm:"type:text"`
	ContentType     string        `json:"content_type,omitempty" gorm:"type:varchar(100)"`
	FileSize        int64         `json:"file_size,omitempty"`
	UploadStatus    UploadStatus  `json:"upload_status" gorm:"type:varchar(30);not null;default:'pending';index"`
	Transcript      Transcript    `json:"transcript,omitempty" gorm:"type:jsonb;serializer:json"`
	Duration        *int          `json:"duration"`
	SpeakerMetadata []SpeakerTurn `json:"speaker_metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	ASRProvider     string        `json:"asr_provider,omitempty" gorm:"type:varchar(50)"`
	ProcessingError *string       `json:"processing_error,omitempty" gorm:"type:text"`
	TranscribedAt   *time.Time    `json:"transcribed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Recording) TableName() string {
	return "recordings"
}

// BeforeCreate assigns an ID when the caller did not
func (r *Recording) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewRecording creates a pending recording for a call
func NewRecording(callID uuid.UUID) *Recording {
	return &Recording{
		ID:           uuid.New(),
		CallID:       callID,
		UploadStatus: UploadStatusPending,
	}
}

// HasTranscript checks if a non-empty transcript was saved
func (r *Recording) HasTranscript() bool {
	return len(r.Transcript) > 0
}

// HasAudio checks if the audio was stored
func (r *Recording) HasAudio() bool {
	return r.AudioPath != "" && r.UploadStatus != UploadStatusFailedUpload
}

// MarkAsUploaded marks the audio as stored
func (r *Recording) MarkAsUploaded(path string, size int64, contentType string) {
	r.UploadStatus = UploadStatusUploaded
	r.AudioPath = path
	r.FileSize = size
	r.ContentType = contentType
	r.ProcessingError = nil
}

// MarkUploadFailed marks the audio upload as failed
func (r *Recording) MarkUploadFailed(errorMsg string) {
	r.UploadStatus = UploadStatusFailedUpload
	r.ProcessingError = &errorMsg
}

// MarkTranscriptionFailed marks ASR as failed
func (r *Recording) MarkTranscriptionFailed(errorMsg string) {
	r.UploadStatus = UploadStatusTranscriptionFailed
	r.ProcessingError = &errorMsg
}

// ApplyTranscript stores a successful transcription; status stays uploaded
func (r *Recording) ApplyTranscript(transcript Transcript, duration *int, provider string) {
	now := time.Now()
	r.UploadStatus = UploadStatusUploaded
	r.Transcript = transcript
	r.Duration = duration
	r.ASRProvider = provider
	r.ProcessingError = nil
	r.TranscribedAt = &now
}

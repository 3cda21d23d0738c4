package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// RecordingRepository handles recording data operations
type RecordingRepository struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new recording repository
func NewRecordingRepository(db *gorm.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Create creates a new recording
func (r *RecordingRepository) Create(ctx context.Context, recording *entities.Recording) error {
	if recording == nil {
		return errors.New("recording cannot be nil")
	}
	return r.db.WithContext(ctx).Create(recording).Error
}

// FindByCallID retrieves the recording of a call
func (r *RecordingRepository) FindByCallID(ctx context.Context, callID uuid.UUID) (*entities.Recording, error) {
	return findRecording(r.db.WithContext(ctx), callID)
}

// Update updates a recording
func (r *RecordingRepository) Update(ctx context.Context, recording *entities.Recording) error {
	if recording == nil {
		return errors.New("recording cannot be nil")
	}
	return r.db.WithContext(ctx).Save(recording).Error
}

// UpdateSpeakerMetadata stores diarizer turns on the call's recording
func (r *RecordingRepository) UpdateSpeakerMetadata(ctx context.Context, callID uuid.UUID, turns []entities.SpeakerTurn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recording, err := findRecording(tx, callID)
		if err != nil {
			return err
		}
		if recording == nil {
			recording = entities.NewRecording(callID)
			recording.SpeakerMetadata = turns
			return tx.Create(recording).Error
		}
		recording.SpeakerMetadata = turns
		return tx.Save(recording).Error
	})
}

func findRecording(db *gorm.DB, callID uuid.UUID) (*entities.Recording, error) {
	var recording entities.Recording
	if err := db.Where("call_id = ?", callID).First(&recording).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recording, nil
}

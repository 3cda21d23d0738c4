package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// RecordingRepository defines the interface for recording data access
type RecordingRepository interface {
	// Create creates a new recording
	Create(ctx context.Context, recording *entities.Recording) error

	// FindByCallID retrieves the recording of a call, (nil, nil) when missing
	FindByCallID(ctx context.Context, callID uuid.UUID) (*entities.Recording, error)

	// Update saves every field of the recording
	Update(ctx context.Context, recording *entities.Recording) error

	// UpdateSpeakerMetadata replaces the diarizer turns of a call's recording,
	// creating a pending recording when the call has none yet
	UpdateSpeakerMetadata(ctx context.Context, callID uuid.UUID, turns []entities.SpeakerTurn) error
}

package call

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// Service defines the interface for the call use case
type Service interface {
	// CreateCall creates a call owned by the caller
	CreateCall(ctx context.Context, input CreateCallInput) (*entities.Call, error)

	// GetCall retrieves a call and its recording, enforcing ownership
	GetCall(ctx context.Context, callID uuid.UUID, caller Caller) (*Details, error)

	// ListCalls retrieves the caller's calls, newest first
	ListCalls(ctx context.Context, caller Caller, limit, offset int) ([]*entities.Call, int64, error)

	// GetReport retrieves the analysis report of a call
	GetReport(ctx context.Context, callID uuid.UUID, caller Caller) (*entities.Report, error)

	// GetRecordingURL returns a presigned link to the call audio
	GetRecordingURL(ctx context.Context, callID uuid.UUID, caller Caller) (string, time.Duration, error)

	// UpdateSpeakerMetadata stores diarizer turns pushed by the webhook
	UpdateSpeakerMetadata(ctx context.Context, callID uuid.UUID, turns []entities.SpeakerTurn) error
}

// Ensure CallService implements Service interface
var _ Service = (*CallService)(nil)

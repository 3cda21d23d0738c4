package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// CallRepository defines the interface for call data access
type CallRepository interface {
	// Create creates a new call
	Create(ctx context.Context, call *entities.Call) error

	// FindByID retrieves a call by its ID, (nil, nil) when missing
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Call, error)

	// ListByOwner retrieves calls owned by a user, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.Call, int64, error)

	// ClaimForAnalysis atomically moves a call from one of the given statuses to
	// processing and bumps its attempt counter. It reports false when another
	// worker got there first.
	ClaimForAnalysis(ctx context.Context, id uuid.UUID, from ...entities.AnalysisStatus) (bool, error)

	// UpdateAnalysisStatus records the analysis outcome
	UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status entities.AnalysisStatus, errMsg *string) error

	// FindRetryable retrieves timed-out calls without a report that have attempts left
	FindRetryable(ctx context.Context, maxAttempts, limit int) ([]*entities.Call, error)
}

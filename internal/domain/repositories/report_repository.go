package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
)

// ReportRepository defines the interface for report data access
type ReportRepository interface {
	// CreateForCall inserts the report and links it to its call in one transaction.
	// When the call already has a report it returns that report together with
	// ErrReportAlreadyExists and writes nothing.
	CreateForCall(ctx context.Context, report *entities.Report) (*entities.Report, error)

	// FindByID retrieves a report by its ID, (nil, nil) when missing
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Report, error)

	// FindByCallID retrieves the report of a call, (nil, nil) when missing
	FindByCallID(ctx context.Context, callID uuid.UUID) (*entities.Report, error)
}

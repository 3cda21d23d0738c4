package call

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcription"
)

// Presigner issues time-limited download links
type Presigner interface {
	PresignedURL(ctx context.Context, key string) (string, time.Duration, error)
}

// Caller is the authenticated user behind a request
type Caller struct {
	UserID uuid.UUID
	Role   entities.UserRole
}

// CreateCallInput represents input for creating a call
type CreateCallInput struct {
	OwnerID       uuid.UUID
	CandidateName string
	Position      string
}

// Details is a call together with its recording (nil before any upload)
type Details struct {
	Call      *entities.Call
	Recording *entities.Recording
}

// CallService implements Service
type CallService struct {
	calls      repositories.CallRepository
	recordings repositories.RecordingRepository
	reports    repositories.ReportRepository
	presigner  Presigner
	logger     *zap.Logger
}

// NewCallService creates a new call service. presigner may be nil when storage is disabled.
func NewCallService(
	calls repositories.CallRepository,
	recordings repositories.RecordingRepository,
	reports repositories.ReportRepository,
	presigner Presigner,
	logger *zap.Logger,
) *CallService {
	return &CallService{
		calls:      calls,
		recordings: recordings,
		reports:    reports,
		presigner:  presigner,
		logger:     logger,
	}
}

// CreateCall creates a call owned by the caller
func (s *CallService) CreateCall(ctx context.Context, input CreateCallInput) (*entities.Call, error) {
	if input.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", usecaseErrors.ErrInvalidInput)
	}

	call := entities.NewCall(input.OwnerID, strings.TrimSpace(input.CandidateName), strings.TrimSpace(input.Position))
	if err := s.calls.Create(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("📞 Call created",
			zap.String("call_id", call.ID.String()),
			zap.String("owner_id", call.OwnerID.String()),
		)
	}
	return call, nil
}

// GetCall retrieves a call and its recording
func (s *CallService) GetCall(ctx context.Context, callID uuid.UUID, caller Caller) (*Details, error) {
	call, err := s.authorize(ctx, callID, caller)
	if err != nil {
		return nil, err
	}

	recording, err := s.recordings.FindByCallID(ctx, call.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	return &Details{Call: call, Recording: recording}, nil
}

// ListCalls retrieves the caller's calls
func (s *CallService) ListCalls(ctx context.Context, caller Caller, limit, offset int) ([]*entities.Call, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.calls.ListByOwner(ctx, caller.UserID, limit, offset)
}

// GetReport retrieves the analysis report of a call
func (s *CallService) GetReport(ctx context.Context, callID uuid.UUID, caller Caller) (*entities.Report, error) {
	call, err := s.authorize(ctx, callID, caller)
	if err != nil {
		return nil, err
	}
	if !call.HasReport() {
		return nil, usecaseErrors.ErrReportNotFound
	}

	report, err := s.reports.FindByID(ctx, *call.ReportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, usecaseErrors.ErrReportNotFound
	}
	return report, nil
}

// GetRecordingURL returns a presigned link to the call audio
func (s *CallService) GetRecordingURL(ctx context.Context, callID uuid.UUID, caller Caller) (string, time.Duration, error) {
	call, err := s.authorize(ctx, callID, caller)
	if err != nil {
		return "", 0, err
	}
	if s.presigner == nil {
		return "", 0, usecaseErrors.ErrStorageUnavailable
	}

	recording, err := s.recordings.FindByCallID(ctx, call.ID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load recording: %w", err)
	}
	if recording == nil {
		return "", 0, usecaseErrors.ErrRecordingNotFound
	}
	if !recording.HasAudio() {
		return "", 0, usecaseErrors.ErrAudioMissing
	}

	return s.presigner.PresignedURL(ctx, recording.AudioPath)
}

// UpdateSpeakerMetadata stores diarizer turns pushed by the webhook. Turns are
// used by the next transcription of the call.
func (s *CallService) UpdateSpeakerMetadata(ctx context.Context, callID uuid.UUID, turns []entities.SpeakerTurn) error {
	if err := transcription.ValidateSpeakerMetadata(turns); err != nil {
		return err
	}

	call, err := s.calls.FindByID(ctx, callID)
	if err != nil {
		return fmt.Errorf("failed to load call: %w", err)
	}
	if call == nil {
		return usecaseErrors.ErrCallNotFound
	}

	if err := s.recordings.UpdateSpeakerMetadata(ctx, call.ID, turns); err != nil {
		return fmt.Errorf("failed to save speaker metadata: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("🗣️ Speaker metadata updated",
			zap.String("call_id", call.ID.String()),
			zap.Int("turns", len(turns)),
		)
	}
	return nil
}

func (s *CallService) authorize(ctx context.Context, callID uuid.UUID, caller Caller) (*entities.Call, error) {
	call, err := s.calls.FindByID(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to load call: %w", err)
	}
	if call == nil {
		return nil, usecaseErrors.ErrCallNotFound
	}
	if !call.CanBeAnalyzedBy(caller.UserID, caller.Role) {
		return nil, usecaseErrors.ErrForbidden
	}
	return call, nil
}

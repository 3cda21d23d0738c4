// Package analysis scores a transcribed interview call with an LLM and stores the
// resulting report exactly once per call.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/domain/repositories"
	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/observe"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/interview-analyzer/pkg/ai"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

// DefaultTimeout bounds a single LLM call
const DefaultTimeout = 45 * time.Second

// LLM is the structured-output completion client
type LLM interface {
	Complete(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
	Model() string
}

// Locker guards against two concurrent LLM calls for the same call
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Input identifies the call and the caller
type Input struct {
	CallID uuid.UUID
	UserID uuid.UUID
	Role   entities.UserRole
}

// Result is a successful analysis
type Result struct {
	Report   *entities.Report
	ReportID uuid.UUID
	// Existing is true when the call had already been analyzed and no LLM call was made
	Existing bool
}

// Options tunes the service
type Options struct {
	Timeout time.Duration
	LockTTL time.Duration
}

// Service is the analysis orchestrator
type Service struct {
	calls      repositories.CallRepository
	recordings repositories.RecordingRepository
	reports    repositories.ReportRepository
	llm        LLM
	bank       *config.QuestionBank
	locker     Locker
	metrics    *observe.Metrics
	timeout    time.Duration
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewService creates an analysis service. locker and metrics may be nil.
func NewService(
	calls repositories.CallRepository,
	recordings repositories.RecordingRepository,
	reports repositories.ReportRepository,
	llm LLM,
	bank *config.QuestionBank,
	locker Locker,
	metrics *observe.Metrics,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.LockTTL <= 0 {
		// outlive the LLM call plus persistence
		opts.LockTTL = opts.Timeout + 30*time.Second
	}
	return &Service{
		calls:      calls,
		recordings: recordings,
		reports:    reports,
		llm:        llm,
		bank:       bank,
		locker:     locker,
		metrics:    metrics,
		timeout:    opts.Timeout,
		lockTTL:    opts.LockTTL,
		logger:     logger,
	}
}

// Analyze runs the orchestrator for one call. Every failure is an *Error carrying
// its Outcome; a call that already has a report succeeds without calling the LLM.
func (s *Service) Analyze(ctx context.Context, in Input) (res *Result, err error) {
	defer func() {
		s.metrics.RecordAnalysis(ctx, OutcomeOf(err).String())
	}()

	call, err := s.calls.FindByID(ctx, in.CallID)
	if err != nil {
		return nil, newError(OutcomeInternal, in.CallID, fmt.Errorf("failed to load call: %w", err))
	}
	if call == nil {
		return nil, newError(OutcomeNotFound, in.CallID, usecaseErrors.ErrCallNotFound)
	}
	if !call.CanBeAnalyzedBy(in.UserID, in.Role) {
		return nil, newError(OutcomeForbidden, in.CallID, usecaseErrors.ErrForbidden)
	}

	if call.HasReport() {
		return s.existingResult(ctx, call)
	}

	if s.locker != nil {
		key := "analysis:" + call.ID.String()
		token, ok, lockErr := s.locker.TryLock(ctx, key, s.lockTTL)
		switch {
		case lockErr != nil:
			// the unique index still protects the report, so run without the lock
			if s.logger != nil {
				s.logger.Warn("⚠️ Analysis lock unavailable, continuing without it",
					zap.String("call_id", call.ID.String()),
					zap.Error(lockErr),
				)
			}
		case !ok:
			return nil, newError(OutcomeInvalidState, call.ID, usecaseErrors.ErrAnalysisInProgress)
		default:
			defer func() {
				if unlockErr := s.locker.Unlock(context.WithoutCancel(ctx), key, token); unlockErr != nil && s.logger != nil {
					s.logger.Warn("⚠️ Failed to release analysis lock",
						zap.String("call_id", call.ID.String()),
						zap.Error(unlockErr),
					)
				}
			}()
		}
	}

	recording, err := s.recordings.FindByCallID(ctx, call.ID)
	if err != nil {
		return nil, newError(OutcomeInternal, call.ID, fmt.Errorf("failed to load recording: %w", err))
	}
	if recording == nil {
		return nil, newError(OutcomeNotFound, call.ID, usecaseErrors.ErrRecordingNotFound)
	}
	if !recording.HasTranscript() {
		return nil, newError(OutcomeInvalidState, call.ID, usecaseErrors.ErrTranscriptMissing)
	}

	s.setStatus(ctx, call.ID, entities.AnalysisStatusProcessing, nil)

	if s.logger != nil {
		s.logger.Info("🤖 Starting call analysis",
			zap.String("call_id", call.ID.String()),
			zap.Int("segments", len(recording.Transcript)),
			zap.Duration("timeout", s.timeout),
		)
	}

	resp, err := s.complete(ctx, call, recording.Transcript)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseReport(resp.Content)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ LLM returned an invalid analysis",
				zap.String("call_id", call.ID.String()),
				zap.String("raw_response", truncate(resp.Content, 500)),
				zap.Error(err),
			)
		}
		s.setStatus(ctx, call.ID, entities.AnalysisStatusFailed, err)
		return nil, newError(OutcomeInvalidResponse, call.ID, fmt.Errorf("%w: %v", usecaseErrors.ErrAnalysisInvalidResponse, err))
	}

	report := parsed.ToReport(call.ID)
	report.Model = resp.Model
	report.LatencyMs = resp.Latency.Milliseconds()

	saved, err := s.reports.CreateForCall(ctx, report)
	if errors.Is(err, usecaseErrors.ErrReportAlreadyExists) && saved != nil {
		if s.logger != nil {
			s.logger.Info("ℹ️ Call was analyzed concurrently, returning the stored report",
				zap.String("call_id", call.ID.String()),
				zap.String("report_id", saved.ID.String()),
			)
		}
		return &Result{Report: saved, ReportID: saved.ID, Existing: true}, nil
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to persist analysis report",
				zap.String("call_id", call.ID.String()),
				zap.Error(err),
			)
		}
		s.setStatus(ctx, call.ID, entities.AnalysisStatusFailed, err)
		return nil, newError(OutcomePersistenceFailed, call.ID, fmt.Errorf("%w: %v", usecaseErrors.ErrReportPersistFailed, err))
	}

	if s.logger != nil {
		s.logger.Info("✅ Call analysis saved",
			zap.String("call_id", call.ID.String()),
			zap.String("report_id", saved.ID.String()),
			zap.Float64("clarity", saved.Clarity.Score),
			zap.Float64("star_method", saved.StarMethod.Score),
			zap.Int64("latency_ms", saved.LatencyMs),
		)
	}

	return &Result{Report: saved, ReportID: saved.ID}, nil
}

// complete runs the LLM call under the analysis deadline. The deadline cancels the
// HTTP request itself, so no response arrives after a timeout.
func (s *Service) complete(ctx context.Context, call *entities.Call, transcript entities.Transcript) (*ai.ChatResponse, error) {
	if s.llm == nil {
		return nil, newError(OutcomeInternal, call.ID, usecaseErrors.ErrLLMUnavailable)
	}

	req := BuildPrompt(s.bank, call, transcript)

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llm.Complete(llmCtx, req)
	s.metrics.RecordLLM(ctx, s.llm.Model(), time.Since(start), err)
	if err == nil {
		return resp, nil
	}

	if errors.Is(llmCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		if s.logger != nil {
			s.logger.Warn("⏰ Analysis timed out",
				zap.String("call_id", call.ID.String()),
				zap.Duration("timeout", s.timeout),
			)
		}
		s.setStatus(ctx, call.ID, entities.AnalysisStatusTimeout, err)
		return nil, newError(OutcomeTimeout, call.ID, fmt.Errorf("%w after %s", usecaseErrors.ErrAnalysisTimeout, s.timeout))
	}

	if s.logger != nil {
		s.logger.Error("❌ Analysis LLM call failed",
			zap.String("call_id", call.ID.String()),
			zap.Error(err),
		)
	}
	s.setStatus(context.WithoutCancel(ctx), call.ID, entities.AnalysisStatusFailed, err)
	return nil, newError(OutcomeInternal, call.ID, err)
}

func (s *Service) existingResult(ctx context.Context, call *entities.Call) (*Result, error) {
	report, err := s.reports.FindByID(ctx, *call.ReportID)
	if err != nil {
		return nil, newError(OutcomeInternal, call.ID, fmt.Errorf("failed to load report: %w", err))
	}
	if report == nil {
		// report_id points at a row that no longer exists
		if s.logger != nil {
			s.logger.Error("❌ Linked report is missing",
				zap.String("call_id", call.ID.String()),
				zap.String("report_id", call.ReportID.String()),
			)
		}
		return nil, newError(OutcomeInvalidState, call.ID, fmt.Errorf("%w: linked report %s is missing", usecaseErrors.ErrReportNotFound, call.ReportID))
	}
	if s.logger != nil {
		s.logger.Info("ℹ️ Call already analyzed, skipping LLM",
			zap.String("call_id", call.ID.String()),
			zap.String("report_id", call.ReportID.String()),
		)
	}
	return &Result{Report: report, ReportID: *call.ReportID, Existing: true}, nil
}

func (s *Service) setStatus(ctx context.Context, callID uuid.UUID, status entities.AnalysisStatus, cause error) {
	var msg *string
	if cause != nil {
		m := cause.Error()
		msg = &m
	}
	if err := s.calls.UpdateAnalysisStatus(ctx, callID, status, msg); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to update analysis status",
			zap.String("call_id", callID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

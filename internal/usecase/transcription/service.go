// Package transcription runs the upload → ASR → segmenting pipeline for a call
// recording and hands the finished transcript to analysis.
package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/domain/repositories"
	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/observe"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/analysis"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcript"
	"github.com/johnquangdev/interview-analyzer/pkg/ai"
)

// AnalysisStatus is the best-effort analysis outcome reported with a transcription
type AnalysisStatus string

const (
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisTimeout   AnalysisStatus = "timeout"
	AnalysisFailed    AnalysisStatus = "failed"
	AnalysisSkipped   AnalysisStatus = "skipped"
)

// ObjectStore keeps the raw audio
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// TranscribeUploadInput is a freshly uploaded recording
type TranscribeUploadInput struct {
	CallID          uuid.UUID
	UserID          uuid.UUID
	Role            entities.UserRole
	Audio           io.Reader
	Filename        string
	ContentType     string
	Size            int64
	SpeakerMetadata []entities.SpeakerTurn
}

// TranscribeStoredInput re-runs the pipeline on audio already in storage
type TranscribeStoredInput struct {
	CallID          uuid.UUID
	UserID          uuid.UUID
	Role            entities.UserRole
	SpeakerMetadata []entities.SpeakerTurn
}

// AnalysisSummary is what the caller learns about the follow-up analysis
type AnalysisSummary struct {
	Status   AnalysisStatus `json:"status"`
	ReportID *uuid.UUID     `json:"report_id,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Result is a finished transcription
type Result struct {
	CallID       uuid.UUID
	Transcript   entities.Transcript
	Duration     *int
	SegmentCount int
	Path         transcript.Path
	DroppedWords int
	Analysis     AnalysisSummary
}

// Options tunes the pipeline
type Options struct {
	MaxAudioBytes int64
	// ASR retry backoff
	ASRInitialInterval time.Duration
	ASRMaxInterval     time.Duration
	ASRMaxElapsed      time.Duration
}

// Service is the transcription pipeline
type Service struct {
	calls       repositories.CallRepository
	recordings  repositories.RecordingRepository
	store       ObjectStore
	transcriber ai.Transcriber
	builder     *transcript.Builder
	analyzer    analysis.Analyzer
	metrics     *observe.Metrics
	opts        Options
	logger      *zap.Logger
}

// NewService creates the pipeline. analyzer and metrics may be nil.
func NewService(
	calls repositories.CallRepository,
	recordings repositories.RecordingRepository,
	store ObjectStore,
	transcriber ai.Transcriber,
	builder *transcript.Builder,
	analyzer analysis.Analyzer,
	metrics *observe.Metrics,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.MaxAudioBytes <= 0 {
		opts.MaxAudioBytes = 100 << 20
	}
	if opts.ASRInitialInterval <= 0 {
		opts.ASRInitialInterval = 2 * time.Second
	}
	if opts.ASRMaxInterval <= 0 {
		opts.ASRMaxInterval = 10 * time.Second
	}
	if opts.ASRMaxElapsed <= 0 {
		opts.ASRMaxElapsed = 30 * time.Second
	}
	return &Service{
		calls:       calls,
		recordings:  recordings,
		store:       store,
		transcriber: transcriber,
		builder:     builder,
		analyzer:    analyzer,
		metrics:     metrics,
		opts:        opts,
		logger:      logger,
	}
}

// ValidateSpeakerMetadata rejects turns with an unknown speaker or a broken range
func ValidateSpeakerMetadata(turns []entities.SpeakerTurn) error {
	for i, t := range turns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: turn %d: %v", usecaseErrors.ErrInvalidSpeakers, i, err)
		}
	}
	return nil
}

// ObjectKey is where the audio of a call lives in the bucket
func ObjectKey(callID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "audio"
	}
	return fmt.Sprintf("calls/%s/%s", callID, name)
}

// TranscribeUpload stores the uploaded audio, then transcribes it
func (s *Service) TranscribeUpload(ctx context.Context, in TranscribeUploadInput) (*Result, error) {
	if err := ValidateSpeakerMetadata(in.SpeakerMetadata); err != nil {
		return nil, err
	}
	if in.Audio == nil {
		return nil, fmt.Errorf("%w: audio is required", usecaseErrors.ErrInvalidInput)
	}

	call, err := s.loadCall(ctx, in.CallID, in.UserID, in.Role)
	if err != nil {
		return nil, err
	}

	audio, err := s.readAudio(in.Audio)
	if err != nil {
		return nil, err
	}

	recording, err := s.recordings.FindByCallID(ctx, call.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	if recording == nil {
		recording = entities.NewRecording(call.ID)
		if err := s.recordings.Create(ctx, recording); err != nil {
			return nil, fmt.Errorf("failed to create recording: %w", err)
		}
	} else {
		// re-upload starts the lifecycle over
		recording.UploadStatus = entities.UploadStatusPending
		recording.ProcessingError = nil
	}
	if len(in.SpeakerMetadata) > 0 {
		recording.SpeakerMetadata = in.SpeakerMetadata
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(call.ID, in.Filename)

	if s.logger != nil {
		s.logger.Info("📤 Uploading call audio",
			zap.String("call_id", call.ID.String()),
			zap.String("object_key", key),
			zap.Int("size", len(audio)),
		)
	}

	if err := s.store.Upload(ctx, key, bytes.NewReader(audio), int64(len(audio)), contentType); err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to upload call audio",
				zap.String("call_id", call.ID.String()),
				zap.Error(err),
			)
		}
		recording.MarkUploadFailed(err.Error())
		s.saveRecording(ctx, recording)
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrUploadFailed, err)
	}

	recording.MarkAsUploaded(key, int64(len(audio)), contentType)
	if err := s.recordings.Update(ctx, recording); err != nil {
		return nil, fmt.Errorf("failed to save recording: %w", err)
	}

	return s.run(ctx, call, recording, audio, path.Base(key), contentType)
}

// TranscribeStored transcribes audio that is already in object storage. Speaker
// metadata comes from the request or, when absent, from the recording.
func (s *Service) TranscribeStored(ctx context.Context, in TranscribeStoredInput) (*Result, error) {
	if err := ValidateSpeakerMetadata(in.SpeakerMetadata); err != nil {
		return nil, err
	}

	call, err := s.loadCall(ctx, in.CallID, in.UserID, in.Role)
	if err != nil {
		return nil, err
	}

	recording, err := s.recordings.FindByCallID(ctx, call.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}
	if recording == nil {
		return nil, usecaseErrors.ErrRecordingNotFound
	}
	if !recording.HasAudio() {
		return nil, usecaseErrors.ErrAudioMissing
	}
	if len(in.SpeakerMetadata) > 0 {
		recording.SpeakerMetadata = in.SpeakerMetadata
	}

	rc, err := s.store.Download(ctx, recording.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrDownloadFailed, err)
	}
	defer rc.Close()

	audio, err := s.readAudio(rc)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, call, recording, audio, path.Base(recording.AudioPath), recording.ContentType)
}

// run is the part shared by both entry points: ASR, segmenting, persistence, analysis
func (s *Service) run(ctx context.Context, call *entities.Call, recording *entities.Recording, audio []byte, filename, contentType string) (*Result, error) {
	asr, err := s.transcribe(ctx, call.ID, audio, filename, contentType)
	if err != nil {
		recording.MarkTranscriptionFailed(err.Error())
		s.saveRecording(ctx, recording)
		s.metrics.RecordTranscription(ctx, "", "failed", 0)
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrTranscriptionFailed, err)
	}

	built := s.builder.Build(asr, recording.SpeakerMetadata)

	recording.ApplyTranscript(built.Transcript, built.Duration, s.transcriber.Name())
	if err := s.recordings.Update(ctx, recording); err != nil {
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}
	s.metrics.RecordTranscription(ctx, string(built.Path), "success", built.DroppedWords)

	if s.logger != nil {
		s.logger.Info("✅ Transcript saved",
			zap.String("call_id", call.ID.String()),
			zap.String("path", string(built.Path)),
			zap.Int("segments", len(built.Transcript)),
			zap.Int("words", built.WordCount),
			zap.Int("dropped_words", built.DroppedWords),
		)
	}

	res := &Result{
		CallID:       call.ID,
		Transcript:   built.Transcript,
		Duration:     built.Duration,
		SegmentCount: len(built.Transcript),
		Path:         built.Path,
		DroppedWords: built.DroppedWords,
	}
	res.Analysis = s.analyze(ctx, call, len(built.Transcript) > 0)
	return res, nil
}

// transcribe calls the ASR provider, retrying transient failures with exponential backoff
func (s *Service) transcribe(ctx context.Context, callID uuid.UUID, audio []byte, filename, contentType string) (*entities.VerboseTranscription, error) {
	var (
		result  *entities.VerboseTranscription
		attempt int
	)

	transcribeFn := func() error {
		attempt++
		start := time.Now()
		verbose, err := s.transcriber.Transcribe(ctx, bytes.NewReader(audio), filename, contentType)
		s.metrics.RecordASR(ctx, s.transcriber.Name(), time.Since(start), err)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ ASR request failed",
					zap.String("call_id", callID.String()),
					zap.String("provider", s.transcriber.Name()),
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
			}
			if !ai.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = verbose
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.ASRInitialInterval
	bo.MaxInterval = s.opts.ASRMaxInterval
	bo.MaxElapsedTime = s.opts.ASRMaxElapsed

	if err := backoff.Retry(transcribeFn, backoff.WithContext(bo, ctx)); err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Transcription failed after retries",
				zap.String("call_id", callID.String()),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return result, nil
}

// analyze runs analysis as the call owner; its failure never fails transcription
func (s *Service) analyze(ctx context.Context, call *entities.Call, hasTranscript bool) AnalysisSummary {
	if s.analyzer == nil || !hasTranscript {
		return AnalysisSummary{Status: AnalysisSkipped}
	}

	res, err := s.analyzer.Analyze(ctx, analysis.Input{
		CallID: call.ID,
		UserID: call.OwnerID,
		Role:   entities.RoleRecruiter,
	})
	switch {
	case err == nil:
		id := res.ReportID
		return AnalysisSummary{Status: AnalysisCompleted, ReportID: &id}
	case analysis.IsTimeout(err):
		return AnalysisSummary{Status: AnalysisTimeout, Error: err.Error()}
	default:
		if s.logger != nil {
			s.logger.Warn("⚠️ Analysis after transcription failed",
				zap.String("call_id", call.ID.String()),
				zap.String("outcome", analysis.OutcomeOf(err).String()),
				zap.Error(err),
			)
		}
		return AnalysisSummary{Status: AnalysisFailed, Error: err.Error()}
	}
}

func (s *Service) loadCall(ctx context.Context, callID, userID uuid.UUID, role entities.UserRole) (*entities.Call, error) {
	call, err := s.calls.FindByID(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to load call: %w", err)
	}
	if call == nil {
		return nil, usecaseErrors.ErrCallNotFound
	}
	if !call.CanBeAnalyzedBy(userID, role) {
		return nil, usecaseErrors.ErrForbidden
	}
	return call, nil
}

func (s *Service) readAudio(r io.Reader) ([]byte, error) {
	audio, err := io.ReadAll(io.LimitReader(r, s.opts.MaxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if int64(len(audio)) > s.opts.MaxAudioBytes {
		return nil, fmt.Errorf("%w: audio exceeds %d bytes", usecaseErrors.ErrInvalidInput, s.opts.MaxAudioBytes)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: audio is empty", usecaseErrors.ErrInvalidInput)
	}
	return audio, nil
}

// saveRecording persists a failure status; the original error is what the caller sees
func (s *Service) saveRecording(ctx context.Context, recording *entities.Recording) {
	if err := s.recordings.Update(context.WithoutCancel(ctx), recording); err != nil && s.logger != nil {
		s.logger.Error("❌ Failed to save recording status",
			zap.String("call_id", recording.CallID.String()),
			zap.String("status", string(recording.UploadStatus)),
			zap.Error(err),
		)
	}
}

// IsInputError reports whether err came from bad caller input
func IsInputError(err error) bool {
	return errors.Is(err, usecaseErrors.ErrInvalidInput) || errors.Is(err, usecaseErrors.ErrInvalidSpeakers)
}

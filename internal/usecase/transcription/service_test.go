package transcription

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/analysis"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcript"
)

type fakeCalls struct {
	mu    sync.Mutex
	calls map[uuid.UUID]*entities.Call
}

func (f *fakeCalls) Create(_ context.Context, c *entities.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[c.ID] = c
	return nil
}

func (f *fakeCalls) FindByID(_ context.Context, id uuid.UUID) (*entities.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.calls[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCalls) ListByOwner(context.Context, uuid.UUID, int, int) ([]*entities.Call, int64, error) {
	return nil, 0, nil
}

func (f *fakeCalls) ClaimForAnalysis(context.Context, uuid.UUID, ...entities.AnalysisStatus) (bool, error) {
	return false, nil
}

func (f *fakeCalls) UpdateAnalysisStatus(context.Context, uuid.UUID, entities.AnalysisStatus, *string) error {
	return nil
}

func (f *fakeCalls) FindRetryable(context.Context, int, int) ([]*entities.Call, error) {
	return nil, nil
}

type fakeRecordings struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entities.Recording
}

func (f *fakeRecordings) Create(_ context.Context, r *entities.Recording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.byID[r.CallID] = &cp
	return nil
}

func (f *fakeRecordings) FindByCallID(_ context.Context, callID uuid.UUID) (*entities.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[callID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecordings) Update(ctx context.Context, r *entities.Recording) error {
	return f.Create(ctx, r)
}

func (f *fakeRecordings) UpdateSpeakerMetadata(context.Context, uuid.UUID, []entities.SpeakerTurn) error {
	return nil
}

func (f *fakeRecordings) get(callID uuid.UUID) *entities.Recording {
	r, _ := f.FindByCallID(context.Background(), callID)
	return r
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakeStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeTranscriber struct {
	mu       sync.Mutex
	errs     []error
	result   *entities.VerboseTranscription
	attempts int
	lastBody []byte
}

func (f *fakeTranscriber) Name() string { return "fake-asr" }

func (f *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader, _, _ string) (*entities.VerboseTranscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	f.lastBody, _ = io.ReadAll(audio)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.result, nil
}

type fakeAnalyzer struct {
	err   error
	calls int
	in    analysis.Input
}

func (f *fakeAnalyzer) Analyze(_ context.Context, in analysis.Input) (*analysis.Result, error) {
	f.calls++
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Result{ReportID: uuid.New()}, nil
}

// interviewASR is a short exchange: a question from the interviewer, then the answer
func interviewASR() *entities.VerboseTranscription {
	return &entities.VerboseTranscription{
		Text: "Tell me? I built it",
		Words: []entities.WordTimestamp{
			{Word: "Tell", Start: 0.1, End: 0.3},
			{Word: "me?", Start: 0.3, End: 0.6},
			{Word: "I", Start: 1.2, End: 1.3},
			{Word: "built", Start: 1.3, End: 1.6},
			{Word: "it", Start: 1.6, End: 2.6},
		},
		Segments: []entities.Segment{
			{ID: 0, Start: 0.1, End: 0.6, Text: "Tell me?"},
			{ID: 1, Start: 1.2, End: 2.6, Text: "I built it"},
		},
	}
}

func interviewTurns() []entities.SpeakerTurn {
	return []entities.SpeakerTurn{
		{Speaker: entities.SpeakerUser, StartTimeMs: 0, EndTimeMs: 1000},
		{Speaker: entities.SpeakerAI, StartTimeMs: 1000, EndTimeMs: 3000},
	}
}

type fixture struct {
	calls       *fakeCalls
	recordings  *fakeRecordings
	store       *fakeStore
	transcriber *fakeTranscriber
	analyzer    *fakeAnalyzer
	svc         *Service
	owner       uuid.UUID
	call        *entities.Call
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		calls:       &fakeCalls{calls: map[uuid.UUID]*entities.Call{}},
		recordings:  &fakeRecordings{byID: map[uuid.UUID]*entities.Recording{}},
		store:       &fakeStore{objects: map[string][]byte{}},
		transcriber: &fakeTranscriber{result: interviewASR()},
		analyzer:    &fakeAnalyzer{},
		owner:       uuid.New(),
	}
	f.call = entities.NewCall(f.owner, "Budi", "Backend Engineer")
	_ = f.calls.Create(context.Background(), f.call)

	builder := transcript.NewBuilder(transcript.Options{TurnTolerance: 150 * time.Millisecond}, nil)
	f.svc = NewService(f.calls, f.recordings, f.store, f.transcriber, builder, f.analyzer, nil, Options{
		MaxAudioBytes:      1 << 20,
		ASRInitialInterval: time.Millisecond,
		ASRMaxInterval:     5 * time.Millisecond,
		ASRMaxElapsed:      time.Second,
	}, nil)
	return f
}

func (f *fixture) uploadInput(turns []entities.SpeakerTurn) TranscribeUploadInput {
	return TranscribeUploadInput{
		CallID:          f.call.ID,
		UserID:          f.owner,
		Role:            entities.RoleRecruiter,
		Audio:           strings.NewReader("RIFF....WAVE"),
		Filename:        "interview.wav",
		ContentType:     "audio/wav",
		SpeakerMetadata: turns,
	}
}

func TestTranscribeUpload_FullPipeline(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput(interviewTurns()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Path != transcript.PathSpeakerTurns {
		t.Fatalf("expected speaker-turn path, got %s", res.Path)
	}
	if res.SegmentCount != 2 || res.Transcript[0].Speaker != entities.SpeakerUser || res.Transcript[1].Speaker != entities.SpeakerAI {
		t.Fatalf("unexpected transcript: %+v", res.Transcript)
	}
	if res.Duration == nil || *res.Duration != 3 {
		t.Fatalf("expected duration 3, got %v", res.Duration)
	}
	if res.Analysis.Status != AnalysisCompleted || res.Analysis.ReportID == nil {
		t.Fatalf("expected completed analysis, got %+v", res.Analysis)
	}
	if f.analyzer.in.UserID != f.owner {
		t.Fatalf("analysis must run as the call owner")
	}

	key := ObjectKey(f.call.ID, "interview.wav")
	if string(f.store.objects[key]) != "RIFF....WAVE" {
		t.Fatalf("audio not stored under %s", key)
	}
	if string(f.transcriber.lastBody) != "RIFF....WAVE" {
		t.Fatalf("ASR received the wrong audio")
	}

	rec := f.recordings.get(f.call.ID)
	if rec.UploadStatus != entities.UploadStatusUploaded || rec.AudioPath != key {
		t.Fatalf("unexpected recording: %+v", rec)
	}
	if len(rec.Transcript) != 2 || rec.ASRProvider != "fake-asr" || rec.TranscribedAt == nil {
		t.Fatalf("transcript not persisted: %+v", rec)
	}
}

func TestTranscribeUpload_NoTurnsUsesHeuristic(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != transcript.PathContentHeuristic {
		t.Fatalf("expected heuristic path, got %s", res.Path)
	}
	for _, seg := range res.Transcript {
		if !seg.Speaker.IsKnown() {
			t.Fatalf("unknown speaker survived: %+v", seg)
		}
	}
}

func TestTranscribeUpload_InvalidSpeakerMetadataHasNoSideEffects(t *testing.T) {
	cases := map[string]entities.SpeakerTurn{
		"speaker":  {Speaker: "Interviewer", StartTimeMs: 0, EndTimeMs: 10},
		"negative": {Speaker: entities.SpeakerUser, StartTimeMs: -1, EndTimeMs: 10},
		"reversed": {Speaker: entities.SpeakerAI, StartTimeMs: 20, EndTimeMs: 10},
	}
	for name, turn := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput([]entities.SpeakerTurn{turn}))
			if !errors.Is(err, usecaseErrors.ErrInvalidSpeakers) || !IsInputError(err) {
				t.Fatalf("expected invalid speakers, got %v", err)
			}
			if len(f.store.objects) != 0 || f.recordings.get(f.call.ID) != nil || f.transcriber.attempts != 0 {
				t.Fatalf("invalid input must not touch storage, database or ASR")
			}
		})
	}
}

func TestTranscribeUpload_Ownership(t *testing.T) {
	f := newFixture(t)
	in := f.uploadInput(nil)
	in.UserID = uuid.New()

	if _, err := f.svc.TranscribeUpload(context.Background(), in); !errors.Is(err, usecaseErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	in.CallID = uuid.New()
	if _, err := f.svc.TranscribeUpload(context.Background(), in); !errors.Is(err, usecaseErrors.ErrCallNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTranscribeUpload_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("bucket unreachable")

	_, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput(nil))
	if !errors.Is(err, usecaseErrors.ErrUploadFailed) {
		t.Fatalf("expected upload failure, got %v", err)
	}
	rec := f.recordings.get(f.call.ID)
	if rec.UploadStatus != entities.UploadStatusFailedUpload || rec.ProcessingError == nil {
		t.Fatalf("expected failed_upload, got %+v", rec)
	}
	if f.transcriber.attempts != 0 {
		t.Fatalf("ASR must not run after a failed upload")
	}
}

func TestTranscribeUpload_RetriesTransientASRErrors(t *testing.T) {
	f := newFixture(t)
	f.transcriber.errs = []error{errors.New("status 503: service unavailable"), errors.New("connection reset by peer")}

	if _, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput(nil)); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if f.transcriber.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.transcriber.attempts)
	}
}

func TestTranscribeUpload_PermanentASRFailure(t *testing.T) {
	f := newFixture(t)
	f.transcriber.errs = []error{errors.New("invalid audio format")}

	_, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput(nil))
	if !errors.Is(err, usecaseErrors.ErrTranscriptionFailed) {
		t.Fatalf("expected transcription failure, got %v", err)
	}
	if f.transcriber.attempts != 1 {
		t.Fatalf("permanent errors must not be retried, got %d attempts", f.transcriber.attempts)
	}
	rec := f.recordings.get(f.call.ID)
	if rec.UploadStatus != entities.UploadStatusTranscriptionFailed || rec.ProcessingError == nil ||
		!strings.Contains(*rec.ProcessingError, "invalid audio format") {
		t.Fatalf("expected transcription_failed with error text, got %+v", rec)
	}
	if f.analyzer.calls != 0 {
		t.Fatalf("analysis must not run without a transcript")
	}
}

func TestTranscribeUpload_AnalysisOutcomeDoesNotFailTranscription(t *testing.T) {
	cases := map[AnalysisStatus]error{
		AnalysisTimeout: &analysis.Error{Outcome: analysis.OutcomeTimeout, Err: usecaseErrors.ErrAnalysisTimeout},
		AnalysisFailed:  &analysis.Error{Outcome: analysis.OutcomeInvalidResponse, Err: usecaseErrors.ErrAnalysisInvalidResponse},
	}
	for want, analyzeErr := range cases {
		t.Run(string(want), func(t *testing.T) {
			f := newFixture(t)
			f.analyzer.err = analyzeErr

			res, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput(interviewTurns()))
			if err != nil {
				t.Fatalf("transcription should succeed, got %v", err)
			}
			if res.Analysis.Status != want || res.Analysis.Error == "" {
				t.Fatalf("expected %s, got %+v", want, res.Analysis)
			}
			if len(f.recordings.get(f.call.ID).Transcript) == 0 {
				t.Fatalf("transcript must be kept")
			}
		})
	}
}

func TestTranscribeUpload_SilenceHasNullDurationAndSkipsAnalysis(t *testing.T) {
	f := newFixture(t)
	f.transcriber.result = &entities.VerboseTranscription{}

	res, err := f.svc.TranscribeUpload(context.Background(), f.uploadInput(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Duration != nil || res.SegmentCount != 0 {
		t.Fatalf("expected empty transcript with null duration, got %+v", res)
	}
	if res.Analysis.Status != AnalysisSkipped || f.analyzer.calls != 0 {
		t.Fatalf("expected skipped analysis, got %+v", res.Analysis)
	}
}

func TestTranscribeUpload_RejectsOversizedAudio(t *testing.T) {
	f := newFixture(t)
	in := f.uploadInput(nil)
	in.Audio = bytes.NewReader(make([]byte, (1<<20)+1))

	if _, err := f.svc.TranscribeUpload(context.Background(), in); !IsInputError(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestTranscribeStored_BackfillsSpeakerMetadata(t *testing.T) {
	f := newFixture(t)
	key := ObjectKey(f.call.ID, "stored.wav")
	f.store.objects[key] = []byte("stored-audio")

	rec := entities.NewRecording(f.call.ID)
	rec.MarkAsUploaded(key, 12, "audio/wav")
	rec.SpeakerMetadata = interviewTurns()
	_ = f.recordings.Create(context.Background(), rec)

	res, err := f.svc.TranscribeStored(context.Background(), TranscribeStoredInput{
		CallID: f.call.ID,
		UserID: f.owner,
		Role:   entities.RoleRecruiter,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Path != transcript.PathSpeakerTurns {
		t.Fatalf("expected stored turns to be used, got %s", res.Path)
	}
	if string(f.transcriber.lastBody) != "stored-audio" {
		t.Fatalf("ASR did not receive the stored audio")
	}
}

func TestTranscribeStored_RequiresAudio(t *testing.T) {
	f := newFixture(t)
	in := TranscribeStoredInput{CallID: f.call.ID, UserID: f.owner, Role: entities.RoleRecruiter}

	if _, err := f.svc.TranscribeStored(context.Background(), in); !errors.Is(err, usecaseErrors.ErrRecordingNotFound) {
		t.Fatalf("expected recording not found, got %v", err)
	}

	_ = f.recordings.Create(context.Background(), entities.NewRecording(f.call.ID))
	if _, err := f.svc.TranscribeStored(context.Background(), in); !errors.Is(err, usecaseErrors.ErrAudioMissing) {
		t.Fatalf("expected audio missing, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	cases := map[string]string{
		"a.wav":            "calls/11111111-1111-1111-1111-111111111111/a.wav",
		"../../etc/passwd": "calls/11111111-1111-1111-1111-111111111111/passwd",
		`C:\rec\b.mp3`:     "calls/11111111-1111-1111-1111-111111111111/b.mp3",
		"":                 "calls/11111111-1111-1111-1111-111111111111/audio",
	}
	for in, want := range cases {
		if got := ObjectKey(id, in); got != want {
			t.Fatalf("ObjectKey(%q) = %q, want %q", in, got, want)
		}
	}
}

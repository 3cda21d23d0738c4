package analysis

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/interview-analyzer/pkg/ai"
)

// memDB backs the fake repositories; one mutex stands in for a transaction
type memDB struct {
	mu         sync.Mutex
	calls      map[uuid.UUID]*entities.Call
	recordings map[uuid.UUID]*entities.Recording
	reports    map[uuid.UUID]*entities.Report

	createErr error
}

func newMemDB() *memDB {
	return &memDB{
		calls:      make(map[uuid.UUID]*entities.Call),
		recordings: make(map[uuid.UUID]*entities.Recording),
		reports:    make(map[uuid.UUID]*entities.Report),
	}
}

func (db *memDB) addCall(owner uuid.UUID, transcript entities.Transcript) *entities.Call {
	call := entities.NewCall(owner, "Budi", "Backend Engineer")
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls[call.ID] = call
	if transcript != nil {
		rec := entities.NewRecording(call.ID)
		rec.Transcript = transcript
		db.recordings[call.ID] = rec
	}
	c := *call
	return &c
}

func (db *memDB) call(id uuid.UUID) entities.Call {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.calls[id]
}

func (db *memDB) reportCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.reports)
}

type fakeCalls struct{ db *memDB }

func (f fakeCalls) Create(_ context.Context, call *entities.Call) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c := *call
	f.db.calls[call.ID] = &c
	return nil
}

func (f fakeCalls) FindByID(_ context.Context, id uuid.UUID) (*entities.Call, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	call, ok := f.db.calls[id]
	if !ok {
		return nil, nil
	}
	c := *call
	return &c, nil
}

func (f fakeCalls) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.Call, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entities.Call
	for _, call := range f.db.calls {
		if call.OwnerID == ownerID {
			c := *call
			out = append(out, &c)
		}
	}
	return out, int64(len(out)), nil
}

func (f fakeCalls) ClaimForAnalysis(_ context.Context, id uuid.UUID, from ...entities.AnalysisStatus) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	call, ok := f.db.calls[id]
	if !ok || call.HasReport() {
		return false, nil
	}
	for _, status := range from {
		if call.AnalysisStatus == status {
			call.AnalysisStatus = entities.AnalysisStatusProcessing
			call.AnalysisAttempts++
			call.AnalysisError = nil
			return true, nil
		}
	}
	return false, nil
}

func (f fakeCalls) UpdateAnalysisStatus(_ context.Context, id uuid.UUID, status entities.AnalysisStatus, errMsg *string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if call, ok := f.db.calls[id]; ok {
		call.AnalysisStatus = status
		call.AnalysisError = errMsg
		call.UpdatedAt = time.Now()
	}
	return nil
}

func (f fakeCalls) FindRetryable(_ context.Context, maxAttempts, limit int) ([]*entities.Call, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []*entities.Call
	for _, call := range f.db.calls {
		if call.AnalysisStatus == entities.AnalysisStatusTimeout && !call.HasReport() && call.AnalysisAttempts < maxAttempts {
			c := *call
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRecordings struct{ db *memDB }

func (f fakeRecordings) Create(_ context.Context, rec *entities.Recording) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.recordings[rec.CallID] = rec
	return nil
}

func (f fakeRecordings) FindByCallID(_ context.Context, callID uuid.UUID) (*entities.Recording, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	rec, ok := f.db.recordings[callID]
	if !ok {
		return nil, nil
	}
	r := *rec
	return &r, nil
}

func (f fakeRecordings) Update(_ context.Context, rec *entities.Recording) error {
	return f.Create(context.Background(), rec)
}

func (f fakeRecordings) UpdateSpeakerMetadata(_ context.Context, callID uuid.UUID, turns []entities.SpeakerTurn) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	rec, ok := f.db.recordings[callID]
	if !ok {
		rec = entities.NewRecording(callID)
		f.db.recordings[callID] = rec
	}
	rec.SpeakerMetadata = turns
	return nil
}

type fakeReports struct{ db *memDB }

func (f fakeReports) CreateForCall(_ context.Context, report *entities.Report) (*entities.Report, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.db.createErr != nil {
		return nil, f.db.createErr
	}
	call, ok := f.db.calls[report.CallID]
	if !ok {
		return nil, usecaseErrors.ErrCallNotFound
	}
	if call.HasReport() {
		return f.db.reports[*call.ReportID], usecaseErrors.ErrReportAlreadyExists
	}
	f.db.reports[report.ID] = report
	id := report.ID
	call.ReportID = &id
	call.AnalysisStatus = entities.AnalysisStatusCompleted
	call.AnalysisError = nil
	return report, nil
}

func (f fakeReports) FindByID(_ context.Context, id uuid.UUID) (*entities.Report, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.reports[id], nil
}

func (f fakeReports) FindByCallID(_ context.Context, callID uuid.UUID) (*entities.Report, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, r := range f.db.reports {
		if r.CallID == callID {
			return r, nil
		}
	}
	return nil, nil
}

// fakeLLM answers with content unless fn is set
type fakeLLM struct {
	content string
	fn      func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error)
	calls   int32
}

func (f *fakeLLM) Complete(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return &ai.ChatResponse{Content: f.content, Model: "fake-model", Latency: 5 * time.Millisecond}, nil
}

func (f *fakeLLM) Model() string { return "fake-model" }

func (f *fakeLLM) count() int { return int(atomic.LoadInt32(&f.calls)) }

// blockingLLM waits for the request context, like a provider that never answers
func blockingLLM() *fakeLLM {
	return &fakeLLM{fn: func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

type fakeLocker struct {
	mu    sync.Mutex
	held  map[string]string
	err   error
	taken bool
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if l.taken {
		return "", false, nil
	}
	if l.held == nil {
		l.held = make(map[string]string)
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

const validResponse = `{
  "analysis_report": {
    "answers": [
      {
        "question": "Perkenalkan diri Anda",
        "answer": "Backend engineer with three years of Go",
        "star_evaluation": {
          "score": 4,
          "rationale": "clear situation and result",
          "situation_present": true,
          "task_present": true,
          "action_present": true,
          "result_present": false
        }
      }
    ],
    "clarity": {"score": 4, "rationale": "structured answers"},
    "relevance": {"score": 3, "rationale": "mostly on topic"},
    "depth": {"score": 3, "rationale": "some detail"},
    "comm_style": {"score": 4, "rationale": "calm"},
    "cultural_fit": {"score": 3, "rationale": "neutral"},
    "attention_to_detail": {"score": 2, "rationale": "skipped numbers"},
    "language_proficiency": {"score": 5, "rationale": "fluent"},
    "star_method": {"score": 3, "rationale": "partial STAR"}
  }
}`

func sampleTranscript() entities.Transcript {
	return entities.Transcript{
		{Speaker: entities.SpeakerUser, Text: "Perkenalkan diri Anda?", Timestamp: 0},
		{Speaker: entities.SpeakerAI, Text: "Saya backend engineer, tiga tahun pakai Go.", Timestamp: 2100},
	}
}

package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/interview-analyzer/pkg/ai"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

type fixture struct {
	db  *memDB
	llm *fakeLLM
	svc *Service
}

func newFixture(t *testing.T, llm *fakeLLM, locker Locker, opts Options) *fixture {
	t.Helper()
	bank, err := config.LoadQuestionBank("")
	if err != nil {
		t.Fatalf("load question bank: %v", err)
	}
	db := newMemDB()
	svc := NewService(fakeCalls{db}, fakeRecordings{db}, fakeReports{db}, llm, bank, locker, nil, opts, nil)
	return &fixture{db: db, llm: llm, svc: svc}
}

func TestAnalyze_Success(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	res, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Existing {
		t.Fatalf("first analysis must not be reported as existing")
	}
	if res.Report.Clarity.Score != 4 || res.Report.StarMethod.Score != 3 {
		t.Fatalf("unexpected scores: %+v", res.Report)
	}
	if len(res.Report.Answers) != 1 || !res.Report.Answers[0].StarEvaluation.ActionPresent {
		t.Fatalf("unexpected answers: %+v", res.Report.Answers)
	}
	if res.Report.Model != "fake-model" {
		t.Fatalf("expected model to be stored, got %q", res.Report.Model)
	}

	stored := f.db.call(call.ID)
	if stored.ReportID == nil || *stored.ReportID != res.ReportID {
		t.Fatalf("call not linked to report")
	}
	if stored.AnalysisStatus != entities.AnalysisStatusCompleted {
		t.Fatalf("expected completed, got %s", stored.AnalysisStatus)
	}
}

func TestAnalyze_IsIdempotent(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())
	in := Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter}

	first, err := f.svc.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("first analysis: %v", err)
	}
	second, err := f.svc.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("second analysis: %v", err)
	}

	if !second.Existing || second.ReportID != first.ReportID {
		t.Fatalf("expected the stored report, got %+v", second)
	}
	if f.llm.count() != 1 {
		t.Fatalf("expected one LLM call, got %d", f.llm.count())
	}
	if f.db.reportCount() != 1 {
		t.Fatalf("expected exactly one report, got %d", f.db.reportCount())
	}
}

func TestAnalyze_DanglingReportLinkIsInvalidState(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	missing := uuid.New()
	f.db.mu.Lock()
	f.db.calls[call.ID].ReportID = &missing
	f.db.mu.Unlock()

	res, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
	if OutcomeOf(err) != OutcomeInvalidState || !errors.Is(err, usecaseErrors.ErrReportNotFound) {
		t.Fatalf("expected invalid_state for a dangling report link, got %v", err)
	}
	if f.llm.count() != 0 {
		t.Fatalf("LLM must not be called, got %d calls", f.llm.count())
	}
}

func TestAnalyze_ConcurrentRequestsStoreOneReport(t *testing.T) {
	// no locker: only the repository guards the report
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	const n = 8
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
			errs[i] = err
			if res != nil {
				ids[i] = res.ReportID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("requests saw different reports: %s vs %s", ids[i], ids[0])
		}
	}
	if f.db.reportCount() != 1 {
		t.Fatalf("expected exactly one report, got %d", f.db.reportCount())
	}
}

func TestAnalyze_Ownership(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	_, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: uuid.New(), Role: entities.RoleRecruiter})
	if OutcomeOf(err) != OutcomeForbidden || !errors.Is(err, usecaseErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if f.llm.count() != 0 {
		t.Fatalf("forbidden request must not reach the LLM")
	}

	if _, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: uuid.New(), Role: entities.RoleAdmin}); err != nil {
		t.Fatalf("admin should bypass ownership: %v", err)
	}
}

func TestAnalyze_NotFound(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})

	_, err := f.svc.Analyze(context.Background(), Input{CallID: uuid.New(), UserID: uuid.New(), Role: entities.RoleAdmin})
	if OutcomeOf(err) != OutcomeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}

	owner := uuid.New()
	call := f.db.addCall(owner, nil)
	_, err = f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if OutcomeOf(err) != OutcomeNotFound || !errors.Is(err, usecaseErrors.ErrRecordingNotFound) {
		t.Fatalf("expected recording not found, got %v", err)
	}
}

func TestAnalyze_EmptyTranscriptIsInvalidState(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, entities.Transcript{})

	_, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if OutcomeOf(err) != OutcomeInvalidState || !errors.Is(err, usecaseErrors.ErrTranscriptMissing) {
		t.Fatalf("expected invalid_state, got %v", err)
	}
	if f.llm.count() != 0 {
		t.Fatalf("LLM must not be called without a transcript")
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	f := newFixture(t, blockingLLM(), nil, Options{Timeout: 30 * time.Millisecond})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	start := time.Now()
	_, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if !IsTimeout(err) || OutcomeOf(err) != OutcomeTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}

	stored := f.db.call(call.ID)
	if stored.AnalysisStatus != entities.AnalysisStatusTimeout {
		t.Fatalf("expected timeout status, got %s", stored.AnalysisStatus)
	}
	if stored.HasReport() || f.db.reportCount() != 0 {
		t.Fatalf("a timed-out analysis must not store a report")
	}
}

func TestAnalyze_TimeoutDoesNotAffectOtherCalls(t *testing.T) {
	owner := uuid.New()
	var slowID uuid.UUID
	llm := &fakeLLM{}
	llm.fn = func(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
		if strings.Contains(req.User, "Candidate: Slow") {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &ai.ChatResponse{Content: validResponse, Model: "fake-model"}, nil
	}
	f := newFixture(t, llm, nil, Options{Timeout: 50 * time.Millisecond})

	slow := f.db.addCall(owner, sampleTranscript())
	f.db.mu.Lock()
	f.db.calls[slow.ID].CandidateName = "Slow"
	f.db.mu.Unlock()
	slowID = slow.ID
	fast := f.db.addCall(owner, sampleTranscript())

	var wg sync.WaitGroup
	var slowErr, fastErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, slowErr = f.svc.Analyze(context.Background(), Input{CallID: slowID, UserID: owner, Role: entities.RoleRecruiter})
	}()
	go func() {
		defer wg.Done()
		_, fastErr = f.svc.Analyze(context.Background(), Input{CallID: fast.ID, UserID: owner, Role: entities.RoleRecruiter})
	}()
	wg.Wait()

	if !IsTimeout(slowErr) {
		t.Fatalf("expected the slow call to time out, got %v", slowErr)
	}
	if fastErr != nil {
		t.Fatalf("fast call failed: %v", fastErr)
	}
	if st := f.db.call(fast.ID).AnalysisStatus; st != entities.AnalysisStatusCompleted {
		t.Fatalf("expected fast call completed, got %s", st)
	}
}

func TestAnalyze_CallerCancellationIsNotTimeout(t *testing.T) {
	f := newFixture(t, blockingLLM(), nil, Options{Timeout: time.Minute})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.svc.Analyze(ctx, Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if err == nil || IsTimeout(err) {
		t.Fatalf("expected a non-timeout error, got %v", err)
	}
	if st := f.db.call(call.ID).AnalysisStatus; st != entities.AnalysisStatusFailed {
		t.Fatalf("expected failed status, got %s", st)
	}
}

func TestAnalyze_InvalidResponse(t *testing.T) {
	cases := map[string]string{
		"string score":      `{"analysis_report": {"clarity": {"score": "4", "rationale": "x"}, "star_method": {"score": 3}}}`,
		"missing rationale": `{"analysis_report": {"clarity": {"score": 4}, "star_method": {"score": 3}}}`,
		"missing star":      `{"analysis_report": {"clarity": {"score": 4, "rationale": "x"}}}`,
		"out of range":      `{"analysis_report": {"clarity": {"score": 9, "rationale": "x"}, "star_method": {"score": 3}}}`,
		"not json":          `I cannot evaluate this interview.`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, &fakeLLM{content: content}, nil, Options{})
			owner := uuid.New()
			call := f.db.addCall(owner, sampleTranscript())

			_, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
			if OutcomeOf(err) != OutcomeInvalidResponse || !errors.Is(err, usecaseErrors.ErrAnalysisInvalidResponse) {
				t.Fatalf("expected invalid_response, got %v", err)
			}
			stored := f.db.call(call.ID)
			if stored.AnalysisStatus != entities.AnalysisStatusFailed || stored.HasReport() {
				t.Fatalf("unexpected call state: %+v", stored)
			}
		})
	}
}

func TestAnalyze_FencedResponse(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: "```json\n" + validResponse + "\n```"}, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	if _, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter}); err != nil {
		t.Fatalf("fenced response should parse: %v", err)
	}
}

func TestAnalyze_PersistenceFailure(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, nil, Options{})
	f.db.createErr = errors.New("connection reset by peer")
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	_, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if OutcomeOf(err) != OutcomePersistenceFailed || !errors.Is(err, usecaseErrors.ErrReportPersistFailed) {
		t.Fatalf("expected persistence_failed, got %v", err)
	}
	if st := f.db.call(call.ID).AnalysisStatus; st != entities.AnalysisStatusFailed {
		t.Fatalf("expected failed status, got %s", st)
	}
}

func TestAnalyze_LLMErrorIsInternal(t *testing.T) {
	llm := &fakeLLM{fn: func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, errors.New("401 unauthorized")
	}}
	f := newFixture(t, llm, nil, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	_, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if OutcomeOf(err) != OutcomeInternal || IsTimeout(err) {
		t.Fatalf("expected internal, got %v", err)
	}
}

func TestAnalyze_LockContention(t *testing.T) {
	f := newFixture(t, &fakeLLM{content: validResponse}, &fakeLocker{taken: true}, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	_, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if OutcomeOf(err) != OutcomeInvalidState || !errors.Is(err, usecaseErrors.ErrAnalysisInProgress) {
		t.Fatalf("expected in-progress, got %v", err)
	}
	if f.llm.count() != 0 {
		t.Fatalf("LLM must not be called while another analysis holds the lock")
	}
}

func TestAnalyze_LockReleasedAndLockErrorsTolerated(t *testing.T) {
	locker := &fakeLocker{}
	f := newFixture(t, &fakeLLM{content: validResponse}, locker, Options{})
	owner := uuid.New()
	call := f.db.addCall(owner, sampleTranscript())

	if _, err := f.svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locker.held) != 0 {
		t.Fatalf("lock not released: %v", locker.held)
	}

	g := newFixture(t, &fakeLLM{content: validResponse}, &fakeLocker{err: errors.New("redis down")}, Options{})
	other := g.db.addCall(owner, sampleTranscript())
	if _, err := g.svc.Analyze(context.Background(), Input{CallID: other.ID, UserID: owner, Role: entities.RoleRecruiter}); err != nil {
		t.Fatalf("lock backend failure should not block analysis: %v", err)
	}
}

func TestAnalyze_NilLLM(t *testing.T) {
	bank, _ := config.LoadQuestionBank("")
	db := newMemDB()
	svc := NewService(fakeCalls{db}, fakeRecordings{db}, fakeReports{db}, nil, bank, nil, nil, Options{}, nil)
	owner := uuid.New()
	call := db.addCall(owner, sampleTranscript())

	_, err := svc.Analyze(context.Background(), Input{CallID: call.ID, UserID: owner, Role: entities.RoleRecruiter})
	if !errors.Is(err, usecaseErrors.ErrLLMUnavailable) {
		t.Fatalf("expected llm unavailable, got %v", err)
	}
}

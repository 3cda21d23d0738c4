package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
)

func TestPipelineDefaults(t *testing.T) {
	var p PipelineConfig
	if err := envconfig.Process("PIPELINE", &p); err != nil {
		t.Fatalf("envconfig: %v", err)
	}
	if p.TurnTolerance() != 150*time.Millisecond {
		t.Fatalf("expected 150ms tolerance, got %v", p.TurnTolerance())
	}
	if p.MinSegmentWords != 2 {
		t.Fatalf("expected min segment words 2, got %d", p.MinSegmentWords)
	}
	if p.AnalysisTimeout != 45*time.Second {
		t.Fatalf("expected 45s analysis timeout, got %v", p.AnalysisTimeout)
	}
	if p.WorkerBatchSize != 8 || p.WorkerJobTimeout != 2*time.Minute {
		t.Fatalf("unexpected worker defaults: batch=%d job_timeout=%v", p.WorkerBatchSize, p.WorkerJobTimeout)
	}
}

func TestPipelineOverride(t *testing.T) {
	t.Setenv("PIPELINE_ANALYSIS_TIMEOUT", "10s")
	t.Setenv("PIPELINE_TURN_TOLERANCE_MS", "300")
	t.Setenv("PIPELINE_WORKER_BATCH_SIZE", "25")
	t.Setenv("PIPELINE_WORKER_JOB_TIMEOUT", "90s")

	var p PipelineConfig
	if err := envconfig.Process("PIPELINE", &p); err != nil {
		t.Fatalf("envconfig: %v", err)
	}
	if p.AnalysisTimeout != 10*time.Second || p.TurnToleranceMs != 300 ||
		p.WorkerBatchSize != 25 || p.WorkerJobTimeout != 90*time.Second {
		t.Fatalf("overrides not applied: %+v", p)
	}
}

func TestValidate(t *testing.T) {
	cfg := FromEnv()
	cfg.ASR.Provider = "groq"
	cfg.Groq.APIKey = ""
	cfg.LLM.APIKey = "k"
	cfg.Pipeline.AnalysisTimeout = time.Second

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing groq key to fail validation")
	}

	cfg.Groq.APIKey = "g"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Pipeline.WorkerJobTimeout = time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected a job timeout within the analysis timeout to fail validation")
	}
	cfg.Pipeline.WorkerJobTimeout = time.Minute
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.ASR.Provider = "deepgram"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported provider to fail validation")
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_ORIGINS", "http://a.test, http://b.test,,")
	got := getEnvAsList("TEST_ORIGINS", "")
	if len(got) != 2 || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", got)
	}
}

func TestLoadQuestionBank_Embedded(t *testing.T) {
	bank, err := LoadQuestionBank("")
	if err != nil {
		t.Fatalf("load embedded bank: %v", err)
	}
	if len(bank.MandatoryQuestions) == 0 {
		t.Fatalf("expected mandatory questions")
	}
	if len(bank.Dimensions) != 7 {
		t.Fatalf("expected 7 rubric dimensions, got %d", len(bank.Dimensions))
	}
	if bank.StarRubric.Scoring == "" {
		t.Fatalf("expected STAR scoring guide")
	}
}

func TestLoadQuestionBank_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	content := "mandatory_questions:\n  - id: q1\n    text: Why us?\ndimensions:\n  - key: clarity\n    description: clear\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	bank, err := LoadQuestionBank(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bank.MandatoryQuestions[0].Text != "Why us?" {
		t.Fatalf("unexpected question: %+v", bank.MandatoryQuestions[0])
	}
}

func TestParseQuestionBank_RejectsEmpty(t *testing.T) {
	if _, err := ParseQuestionBank([]byte("dimensions: []\n")); err == nil {
		t.Fatalf("expected error for empty bank")
	}
}

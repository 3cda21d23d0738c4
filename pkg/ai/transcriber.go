package ai

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	oai "github.com/openai/openai-go"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
	"go.uber.org/zap"
)

// Transcriber turns recorded audio into a word-timestamped transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (*entities.VerboseTranscription, error)
	Name() string
}

// NewTranscriber builds the transcriber selected by ASR_PROVIDER
func NewTranscriber(cfg *config.Config, logger *zap.Logger) Transcriber {
	if cfg.ASR.Provider == "assemblyai" {
		return NewAssemblyAITranscriber(&cfg.AssemblyAI, logger)
	}
	return NewGroqTranscriber(&cfg.Groq, logger)
}

// IsRetryable reports whether a provider error is worth another attempt:
// rate limits, 5xx responses and network failures are, everything else is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "eof") ||
		strings.Contains(msg, "status 429") ||
		strings.Contains(msg, "status 5")
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

// GroqTranscriber calls Groq's OpenAI-compatible Whisper endpoint with verbose_json
// output and word plus segment timestamps.
type GroqTranscriber struct {
	client   oai.Client
	model    string
	language string
	logger   *zap.Logger
}

// NewGroqTranscriber creates a Groq transcriber using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewGroqTranscriber(cfg *config.GroqConfig, logger *zap.Logger, opts ...option.RequestOption) *GroqTranscriber {
	var apiKey, base, model, language string
	if cfg != nil {
		apiKey, base, model, language = cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Language
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if base == "" {
		base = "https://api.groq.com/openai/v1"
	}
	if model == "" {
		model = "whisper-large-v3"
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(base),
		// retries are driven by the caller's backoff policy
		option.WithMaxRetries(0),
		option.WithRequestTimeout(5 * time.Minute),
	}
	reqOpts = append(reqOpts, opts...)

	return &GroqTranscriber{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: language,
		logger:   logger,
	}
}

// Name returns the provider name stored on the recording
func (g *GroqTranscriber) Name() string {
	return "groq:" + g.model
}

// Transcribe uploads the audio and returns the parsed verbose transcription
func (g *GroqTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (*entities.VerboseTranscription, error) {
	if filename == "" {
		filename = "recording.webm"
	}

	params := oai.AudioTranscriptionNewParams{
		File:                   oai.File(audio, filename, contentType),
		Model:                  g.model,
		ResponseFormat:         oai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}
	if g.language != "" {
		params.Language = oai.String(g.language)
	}

	if g.logger != nil {
		g.logger.Info("🎙️ Sending audio to Groq Whisper",
			zap.String("model", g.model),
			zap.String("filename", filename),
			zap.String("language", g.language),
		)
	}

	start := time.Now()
	resp, err := g.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("groq transcription failed: %w", err)
	}

	verbose, err := ParseVerboseTranscription([]byte(resp.RawJSON()))
	if err != nil {
		return nil, err
	}

	if g.logger != nil {
		g.logger.Info("✅ Groq transcription completed",
			zap.Int("words", len(verbose.Words)),
			zap.Int("segments", len(verbose.Segments)),
			zap.Duration("latency", time.Since(start)),
		)
	}
	return verbose, nil
}

// ParseVerboseTranscription decodes a Whisper verbose_json body
func ParseVerboseTranscription(raw []byte) (*entities.VerboseTranscription, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty transcription response")
	}
	var verbose entities.VerboseTranscription
	if err := json.Unmarshal(raw, &verbose); err != nil {
		return nil, fmt.Errorf("failed to parse verbose transcription: %w", err)
	}
	return &verbose, nil
}

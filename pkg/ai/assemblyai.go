package ai

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

// AssemblyAITranscriber uploads audio through the official SDK and waits for the
// finished transcript. Utterance boundaries become the ASR-native segments.
type AssemblyAITranscriber struct {
	client   *aai.Client
	language string
	logger   *zap.Logger
}

// NewAssemblyAITranscriber creates an AssemblyAI transcriber using the provided config.
// If cfg is nil, falls back to environment variables.
func NewAssemblyAITranscriber(cfg *config.AssemblyAIConfig, logger *zap.Logger) *AssemblyAITranscriber {
	var apiKey, language string
	if cfg != nil {
		apiKey, language = cfg.APIKey, cfg.Language
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	return &AssemblyAITranscriber{
		client:   aai.NewClient(apiKey),
		language: language,
		logger:   logger,
	}
}

// Name returns the provider name stored on the recording
func (t *AssemblyAITranscriber) Name() string {
	return "assemblyai"
}

// Transcribe uploads the audio and blocks until AssemblyAI finishes
func (t *AssemblyAITranscriber) Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (*entities.VerboseTranscription, error) {
	if t.logger != nil {
		t.logger.Info("📤 Uploading file to AssemblyAI",
			zap.String("filename", filename),
			zap.String("content_type", contentType),
		)
	}

	uploadURL, err := t.client.Upload(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to AssemblyAI: %w", err)
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if t.language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(t.language)
	}

	start := time.Now()
	transcript, err := t.client.Transcripts.TranscribeFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, fmt.Errorf("assemblyai transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("assemblyai transcription failed: %s", msg)
	}

	verbose := VerboseFromAssemblyAI(transcript)
	if t.logger != nil {
		t.logger.Info("✅ AssemblyAI transcription completed",
			zap.Int("words", len(verbose.Words)),
			zap.Int("segments", len(verbose.Segments)),
			zap.Duration("latency", time.Since(start)),
		)
	}
	return verbose, nil
}

// VerboseFromAssemblyAI maps an AssemblyAI transcript (milliseconds, pointer fields)
// onto the Whisper verbose shape (seconds).
func VerboseFromAssemblyAI(transcript aai.Transcript) *entities.VerboseTranscription {
	out := &entities.VerboseTranscription{
		Language: string(transcript.LanguageCode),
	}
	if transcript.Text != nil {
		out.Text = *transcript.Text
	}
	if transcript.AudioDuration != nil {
		out.Duration = float64(*transcript.AudioDuration)
	}

	out.Words = make([]entities.WordTimestamp, 0, len(transcript.Words))
	for _, w := range transcript.Words {
		word := entities.WordTimestamp{}
		if w.Text != nil {
			word.Word = *w.Text
		}
		if w.Start != nil {
			word.Start = float64(*w.Start) / 1000.0 // ms to seconds
		}
		if w.End != nil {
			word.End = float64(*w.End) / 1000.0
		}
		out.Words = append(out.Words, word)
	}

	out.Segments = make([]entities.Segment, 0, len(transcript.Utterances))
	for i, utt := range transcript.Utterances {
		seg := entities.Segment{ID: i}
		if utt.Text != nil {
			seg.Text = strings.TrimSpace(*utt.Text)
		}
		if utt.Start != nil {
			seg.Start = float64(*utt.Start) / 1000.0
		}
		if utt.End != nil {
			seg.End = float64(*utt.End) / 1000.0
		}
		out.Segments = append(out.Segments, seg)
	}

	// without speaker labels AssemblyAI returns no utterances; one segment spans the call
	if len(out.Segments) == 0 && len(out.Words) > 0 {
		out.Segments = append(out.Segments, entities.Segment{
			Start: out.Words[0].Start,
			End:   out.Words[len(out.Words)-1].End,
			Text:  out.Text,
		})
	}
	return out
}

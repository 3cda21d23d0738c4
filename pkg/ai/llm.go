package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

// ChatRequest is a single-turn structured-output completion
type ChatRequest struct {
	System      string
	User        string
	SchemaName  string
	Schema      map[string]any
	Temperature *float64
}

// ChatResponse is the assistant content plus usage metadata
type ChatResponse struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// LLMClient talks to any OpenAI-compatible chat completion endpoint
// (Gemini's OpenAI layer, Groq, OpenAI).
type LLMClient struct {
	client      oai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewLLMClient creates a chat client. The caller's context bounds every request and
// the client never retries on its own.
func NewLLMClient(cfg *config.LLMConfig, logger *zap.Logger, opts ...option.RequestOption) *LLMClient {
	var apiKey, base, model string
	temperature := 0.2
	if cfg != nil {
		apiKey, base, model = cfg.APIKey, cfg.BaseURL, cfg.Model
		temperature = cfg.Temperature
	}
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	reqOpts = append(reqOpts, opts...)

	return &LLMClient{
		client:      oai.NewClient(reqOpts...),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// Model returns the configured model name
func (c *LLMClient) Model() string {
	return c.model
}

// Complete sends the prompt and returns the first choice's content
func (c *LLMClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := oai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(req.System),
			oai.UserMessage(req.User),
		},
		Temperature: oai.Float(temperature),
	}
	if req.Schema != nil {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Strict: oai.Bool(true),
					Schema: req.Schema,
				},
			},
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("❌ LLM request failed",
				zap.String("model", c.model),
				zap.Duration("latency", latency),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from %s", c.model)
	}

	out := &ChatResponse{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		Latency:          latency,
	}
	if out.Model == "" {
		out.Model = c.model
	}

	if c.logger != nil {
		c.logger.Info("🤖 LLM response received",
			zap.String("model", out.Model),
			zap.Int("prompt_tokens", out.PromptTokens),
			zap.Int("completion_tokens", out.CompletionTokens),
			zap.Duration("latency", latency),
		)
	}
	return out, nil
}

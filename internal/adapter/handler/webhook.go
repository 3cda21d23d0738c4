package handler

import (
	"context"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/errors"
	"github.com/johnquangdev/interview-analyzer/internal/adapter/dto/call"
	"github.com/johnquangdev/interview-analyzer/internal/adapter/presenter"
	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/pkg/ai"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 of the raw body
	SignatureHeader = "X-Signature"

	maxWebhookBytes = 1 << 20
)

// SpeakerMetadataStore saves diarizer turns for a call
type SpeakerMetadataStore interface {
	UpdateSpeakerMetadata(ctx context.Context, callID uuid.UUID, turns []entities.SpeakerTurn) error
}

// WebhookHandler handles the diarizer webhook
type WebhookHandler struct {
	store  SpeakerMetadataStore
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(store SpeakerMetadataStore, secret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{store: store, secret: secret, logger: logger}
}

// HandleDiarizerWebhook receives speaker turns pushed by the external diarizer
// @Summary      Diarizer webhook
// @Description  Stores speaker turns for a call. The body must be signed with HMAC-SHA256 in the X-Signature header.
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        X-Signature  header    string                       true  "hex HMAC-SHA256 of the body"
// @Param        request      body      call.DiarizerWebhookRequest  true  "Speaker turns"
// @Success      200          {object}  map[string]interface{}
// @Failure      401          {object}  map[string]interface{}
// @Router       /webhooks/diarizer [post]
func (h *WebhookHandler) HandleDiarizerWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	if !ai.VerifyHMAC(h.secret, body, c.Request().Header.Get(SignatureHeader)) {
		if h.logger != nil {
			h.logger.Warn("🚫 Diarizer webhook signature rejected",
				zap.String("remote_ip", c.RealIP()),
			)
		}
		return HandleError(h.logger, c, errors.ErrWebhookSignatureInvalid())
	}

	var req call.DiarizerWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("reason", err.Error()))
	}
	if c.Echo().Validator != nil {
		if err := c.Validate(&req); err != nil {
			return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
		}
	}
	callID, err := uuid.Parse(req.CallID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("callId must be a UUID"))
	}

	if err := h.store.UpdateSpeakerMetadata(c.Request().Context(), callID, presenter.ToSpeakerTurns(req.Turns)); err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{"status": "ok", "turns": len(req.Turns)})
}

package handler

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/errors"
	"github.com/johnquangdev/interview-analyzer/internal/adapter/dto/call"
	"github.com/johnquangdev/interview-analyzer/internal/adapter/presenter"
	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcription"
)

// multipart parts above this size are spilled to temp files
const multipartMemory = 32 << 20

// TranscriptionService runs the transcription pipeline
type TranscriptionService interface {
	TranscribeUpload(ctx context.Context, in transcription.TranscribeUploadInput) (*transcription.Result, error)
	TranscribeStored(ctx context.Context, in transcription.TranscribeStoredInput) (*transcription.Result, error)
}

// Transcription handles the transcribe routes
type Transcription struct {
	svc            TranscriptionService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(svc TranscriptionService, maxUploadMB int, logger *zap.Logger) *Transcription {
	if maxUploadMB <= 0 {
		maxUploadMB = 200
	}
	return &Transcription{
		svc:            svc,
		maxUploadBytes: int64(maxUploadMB) << 20,
		logger:         logger,
	}
}

// TranscribeUpload handles POST /transcribe
// @Summary      Transcribe an uploaded recording
// @Description  Stores the audio, transcribes it, attributes speakers and runs the analysis
// @Tags         Transcription
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        callId            formData  string  true   "Call ID"
// @Param        audio             formData  file    true   "Call recording"
// @Param        speaker_metadata  formData  string  false  "JSON array of {speaker, startTimeMs, endTimeMs}"
// @Success      200  {object}  call.TranscriptionResponse
// @Failure      400  {object}  map[string]interface{}  "Missing call ID, audio or malformed speaker metadata"
// @Failure      403  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]interface{}  "Upload or transcription failed"
// @Router       /transcribe [post]
func (h *Transcription) TranscribeUpload(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUploadBytes)
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stdErrors.As(err, &tooLarge) {
			return HandleError(h.logger, c, errors.ErrInvalidPayload().
				WithDetail("reason", fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes)))
		}
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("reason", err.Error()))
	}

	callID, err := uuid.Parse(strings.TrimSpace(c.FormValue("callId")))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("callId is required and must be a UUID"))
	}

	turns, err := parseSpeakerMetadata(c.FormValue("speaker_metadata"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrMissingAudio())
	}
	file, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().WithDetail("reason", err.Error()))
	}
	defer file.Close()

	if h.logger != nil {
		h.logger.Info("🎙️ Transcription upload received",
			zap.String("call_id", callID.String()),
			zap.String("filename", fileHeader.Filename),
			zap.Int64("size", fileHeader.Size),
			zap.Int("speaker_turns", len(turns)),
		)
	}

	res, err := h.svc.TranscribeUpload(req.Context(), transcription.TranscribeUploadInput{
		CallID:          callID,
		UserID:          user.UserID,
		Role:            user.Role,
		Audio:           file,
		Filename:        fileHeader.Filename,
		ContentType:     fileHeader.Header.Get(echo.HeaderContentType),
		Size:            fileHeader.Size,
		SpeakerMetadata: turns,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTranscriptionResponse(res))
}

// TranscribeStored handles POST /transcribe/stored
// @Summary      Transcribe a stored recording
// @Description  Re-runs transcription on audio already in storage. Without speaker_metadata the turns saved for the call are used, then the content heuristic.
// @Tags         Transcription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      call.TranscribeStoredRequest  true  "Stored transcription request"
// @Success      200      {object}  call.TranscriptionResponse
// @Failure      400      {object}  map[string]interface{}
// @Failure      404      {object}  map[string]interface{}
// @Router       /transcribe/stored [post]
func (h *Transcription) TranscribeStored(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req call.TranscribeStoredRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	callID, err := uuid.Parse(req.CallID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("callId must be a UUID"))
	}

	res, err := h.svc.TranscribeStored(c.Request().Context(), transcription.TranscribeStoredInput{
		CallID:          callID,
		UserID:          user.UserID,
		Role:            user.Role,
		SpeakerMetadata: presenter.ToSpeakerTurns(req.SpeakerMetadata),
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToTranscriptionResponse(res))
}

// parseSpeakerMetadata decodes the optional speaker_metadata form field
func parseSpeakerMetadata(raw string) ([]entities.SpeakerTurn, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var turns []call.SpeakerTurnRequest
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, errors.ErrInvalidSpeakerMetadata("speaker_metadata must be a JSON array of turns")
	}
	return presenter.ToSpeakerTurns(turns), nil
}

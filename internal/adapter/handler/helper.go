package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/errors"
	"github.com/johnquangdev/interview-analyzer/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/analysis"
	callUsecase "github.com/johnquangdev/interview-analyzer/internal/usecase/call"
	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized 200 response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := MapError(err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Stringer("app_code", appErr.Code),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Raw != nil {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

// MapError turns usecase errors into the API error they are reported as
func MapError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var aErr *analysis.Error
	if stdErrors.As(err, &aErr) {
		return mapAnalysisError(aErr)
	}

	switch {
	case stdErrors.Is(err, usecaseErrors.ErrForbidden):
		return errors.ErrForbidden("You do not have access to this call")
	case stdErrors.Is(err, usecaseErrors.ErrCallNotFound):
		return errors.ErrCallNotFound("")
	case stdErrors.Is(err, usecaseErrors.ErrRecordingNotFound):
		return errors.ErrRecordingNotFound("")
	case stdErrors.Is(err, usecaseErrors.ErrReportNotFound):
		return errors.ErrReportNotFound("")
	case stdErrors.Is(err, usecaseErrors.ErrInvalidSpeakers):
		return errors.ErrInvalidSpeakerMetadata(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrAudioMissing):
		return errors.ErrMissingAudio()
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		return errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrUploadFailed):
		return errors.ErrRecordingUploadFailed("", err)
	case stdErrors.Is(err, usecaseErrors.ErrDownloadFailed):
		return errors.ErrRecordingDownloadFailed("", err)
	case stdErrors.Is(err, usecaseErrors.ErrTranscriptionFailed):
		return errors.ErrTranscriptionFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrStorageUnavailable):
		return errors.ErrStorageFailed("presign", err)
	}

	return errors.ErrInternal(err)
}

func mapAnalysisError(aErr *analysis.Error) errors.AppError {
	callID := aErr.CallID.String()
	switch aErr.Outcome {
	case analysis.OutcomeForbidden:
		return errors.ErrForbidden("You do not have access to this call")
	case analysis.OutcomeNotFound:
		if stdErrors.Is(aErr.Err, usecaseErrors.ErrRecordingNotFound) {
			return errors.ErrRecordingNotFound(callID)
		}
		return errors.ErrCallNotFound(callID)
	case analysis.OutcomeInvalidState:
		return errors.ErrCallInvalidState(callID, aErr.Err.Error())
	case analysis.OutcomeTimeout:
		return errors.ErrAnalysisTimeout(aErr.Err)
	case analysis.OutcomeInvalidResponse:
		return errors.ErrAnalysisInvalidResponse(aErr.Err)
	case analysis.OutcomePersistenceFailed:
		return errors.ErrReportPersistFailed(aErr.Err)
	}
	if stdErrors.Is(aErr.Err, usecaseErrors.ErrLLMUnavailable) {
		return errors.ErrAIServiceUnavailable("LLM")
	}
	return errors.ErrAnalysisFailed(aErr.Err)
}

// HTTPErrorHandler renders errors returned by middleware and unmatched routes
// in the same envelope as handler errors.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if stdErrors.As(err, &he) {
			body := errs{Code: errors.ErrorCode_INVALID_ARGUMENT, Message: http.StatusText(he.Code)}
			switch he.Code {
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				body.Code = errors.ErrorCode_NOT_FOUND
			case http.StatusUnauthorized:
				body.Code = errors.ErrorCode_UNAUTHENTICATED
			case http.StatusRequestEntityTooLarge:
				body.Code = errors.ErrorCode_INVALID_PAYLOAD
			}
			if he.Code >= http.StatusInternalServerError {
				body.Code = errors.ErrorCode_INTERNAL
			}
			if msg, ok := he.Message.(string); ok && msg != "" {
				body.Message = msg
			}
			if writeErr := c.JSON(he.Code, body); writeErr != nil && logger != nil {
				logger.Error("failed to write error response", zap.Error(writeErr))
			}
			return
		}

		if writeErr := HandleError(logger, c, err); writeErr != nil && logger != nil {
			logger.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}

// caller reads the authenticated user set by the auth middleware
func caller(c echo.Context) (callUsecase.Caller, error) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		return callUsecase.Caller{}, errors.ErrUnauthenticated()
	}
	return callUsecase.Caller{UserID: userID, Role: role}, nil
}

// pathCallID parses the :id route parameter
func pathCallID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("Invalid call ID")
	}
	return id, nil
}

// bindAndValidate binds the request and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload().WithDetail("reason", err.Error())
	}
	if c.Echo().Validator != nil {
		if err := c.Validate(req); err != nil {
			return errors.ErrInvalidArgument(err.Error())
		}
	}
	return nil
}

// paging converts page/page_size into limit/offset
func paging(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/adapter/dto/call"
	"github.com/johnquangdev/interview-analyzer/internal/adapter/dto/common"
	"github.com/johnquangdev/interview-analyzer/internal/adapter/presenter"
	callUsecase "github.com/johnquangdev/interview-analyzer/internal/usecase/call"
)

// Call handles call-related HTTP requests
type Call struct {
	callService callUsecase.Service
	logger      *zap.Logger
}

// NewCallHandler creates a new call handler
func NewCallHandler(callService callUsecase.Service, logger *zap.Logger) *Call {
	return &Call{
		callService: callService,
		logger:      logger,
	}
}

// CreateCall handles POST /calls
// @Summary      Create a call
// @Description  Creates an interview call owned by the authenticated user
// @Tags         Calls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      call.CreateCallRequest  true  "Call creation request"
// @Success      201      {object}  call.CallResponse
// @Failure      400      {object}  map[string]interface{}
// @Failure      401      {object}  map[string]interface{}
// @Router       /calls [post]
func (h *Call) CreateCall(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req call.CreateCallRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	created, err := h.callService.CreateCall(c.Request().Context(), callUsecase.CreateCallInput{
		OwnerID:       user.UserID,
		CandidateName: req.CandidateName,
		Position:      req.Position,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleCreated(h.logger, c, presenter.ToCallResponse(created))
}

// ListCalls handles GET /calls
// @Summary      List calls
// @Description  Lists the authenticated user's calls, newest first
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page number"  default(1)
// @Param        page_size  query     int  false  "Page size"    default(20)
// @Success      200        {object}  common.ListResponse
// @Failure      401        {object}  map[string]interface{}
// @Router       /calls [get]
func (h *Call) ListCalls(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req call.ListCallsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	limit, offset := paging(req.Page, req.PageSize)
	calls, total, err := h.callService.ListCalls(c.Request().Context(), user, limit, offset)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, common.ListResponse{
		Data: presenter.ToCallResponses(calls),
		Pagination: &common.PaginationResponse{
			Page:       offset/limit + 1,
			PageSize:   limit,
			TotalPages: totalPages(total, limit),
			TotalItems: total,
		},
	})
}

// GetCall handles GET /calls/:id
// @Summary      Get a call
// @Description  Returns a call with its recording and transcript
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Call ID"
// @Success      200  {object}  call.CallDetailsResponse
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /calls/{id} [get]
func (h *Call) GetCall(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	callID, err := pathCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	details, err := h.callService.GetCall(c.Request().Context(), callID, user)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, call.CallDetailsResponse{
		Call:      presenter.ToCallResponse(details.Call),
		Recording: presenter.ToRecordingResponse(details.Recording),
	})
}

// GetReport handles GET /calls/:id/report
// @Summary      Get the analysis report
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Call ID"
// @Success      200  {object}  call.ReportResponse
// @Failure      404  {object}  map[string]interface{}
// @Router       /calls/{id}/report [get]
func (h *Call) GetReport(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	callID, err := pathCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	report, err := h.callService.GetReport(c.Request().Context(), callID, user)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToReportResponse(report))
}

// GetRecordingURL handles GET /calls/:id/recording/url
// @Summary      Get a presigned recording URL
// @Tags         Calls
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Call ID"
// @Success      200  {object}  call.RecordingURLResponse
// @Failure      400  {object}  map[string]interface{}  "Recording has no stored audio"
// @Failure      404  {object}  map[string]interface{}
// @Router       /calls/{id}/recording/url [get]
func (h *Call) GetRecordingURL(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	callID, err := pathCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	url, expiry, err := h.callService.GetRecordingURL(c.Request().Context(), callID, user)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToRecordingURLResponse(url, expiry))
}

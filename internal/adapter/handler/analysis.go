package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/interview-analyzer/internal/adapter/presenter"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/analysis"
)

// Analysis handles on-demand call analysis
type Analysis struct {
	analyzer analysis.Analyzer
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer analysis.Analyzer, logger *zap.Logger) *Analysis {
	return &Analysis{analyzer: analyzer, logger: logger}
}

// AnalyzeCall handles POST /calls/:id/analyze
// @Summary      Analyze a call
// @Description  Scores the transcript with the LLM and stores the report. A call that already has a report returns it without a new LLM call.
// @Tags         Analysis
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Call ID"
// @Success      200  {object}  call.AnalyzeResponse
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]interface{}  "No transcript yet or analysis already running"
// @Failure      502  {object}  map[string]interface{}  "LLM returned an invalid report"
// @Failure      504  {object}  map[string]interface{}  "Analysis timed out, retry later"
// @Router       /calls/{id}/analyze [post]
func (h *Analysis) AnalyzeCall(c echo.Context) error {
	user, err := caller(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	callID, err := pathCallID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	res, err := h.analyzer.Analyze(c.Request().Context(), analysis.Input{
		CallID: callID,
		UserID: user.UserID,
		Role:   user.Role,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToAnalyzeResponse(res))
}

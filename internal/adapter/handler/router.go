package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/interview-analyzer/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg                  *config.Config
	callHandler          *Call
	transcriptionHandler *Transcription
	analysisHandler      *Analysis
	webhookHandler       *WebhookHandler
	authMiddleware       echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	callHandler *Call,
	transcriptionHandler *Transcription,
	analysisHandler *Analysis,
	webhookHandler *WebhookHandler,
	authMiddleware echo.MiddlewareFunc,
) *Router {
	return &Router{
		cfg:                  cfg,
		callHandler:          callHandler,
		transcriptionHandler: transcriptionHandler,
		analysisHandler:      analysisHandler,
		webhookHandler:       webhookHandler,
		authMiddleware:       authMiddleware,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	if rt.cfg == nil || rt.cfg.Observability.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	// webhooks authenticate with a signature, not a user token
	rt.setupWebhookRoutes(v1)

	rt.setupCallRoutes(v1)
	rt.setupTranscriptionRoutes(v1)
}

// protected returns the middleware chain for authenticated routes
func (rt *Router) protected() []echo.MiddlewareFunc {
	if rt.authMiddleware == nil {
		return nil
	}
	return []echo.MiddlewareFunc{rt.authMiddleware}
}

// setupCallRoutes configures call, report and analysis routes
func (rt *Router) setupCallRoutes(g *echo.Group) {
	calls := g.Group("/calls", rt.protected()...)

	if rt.callHandler != nil {
		calls.POST("", rt.callHandler.CreateCall)
		calls.GET("", rt.callHandler.ListCalls)
		calls.GET("/:id", rt.callHandler.GetCall)
		calls.GET("/:id/report", rt.callHandler.GetReport)
		calls.GET("/:id/recording/url", rt.callHandler.GetRecordingURL)
	}

	if rt.analysisHandler != nil {
		calls.POST("/:id/analyze", rt.analysisHandler.AnalyzeCall)
	} else {
		calls.POST("/:id/analyze", rt.notImplemented)
	}
}

// setupTranscriptionRoutes configures the transcribe routes
func (rt *Router) setupTranscriptionRoutes(g *echo.Group) {
	mw := rt.protected()
	if rt.transcriptionHandler == nil {
		g.POST("/transcribe", rt.notImplemented, mw...)
		g.POST("/transcribe/stored", rt.notImplemented, mw...)
		return
	}
	g.POST("/transcribe", rt.transcriptionHandler.TranscribeUpload, mw...)
	g.POST("/transcribe/stored", rt.transcriptionHandler.TranscribeStored, mw...)
}

// setupWebhookRoutes configures inbound webhooks
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	if rt.webhookHandler == nil {
		return
	}
	g.POST("/webhooks/diarizer", rt.webhookHandler.HandleDiarizerWebhook)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "production"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}

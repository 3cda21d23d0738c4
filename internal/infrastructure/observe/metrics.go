package observe

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/johnquangdev/interview-analyzer"

// Metrics holds the pipeline's metric instruments. A nil *Metrics is valid and
// records nothing, so services can run without observability wired in.
type Metrics struct {
	ASRDuration metric.Float64Histogram
	LLMDuration metric.Float64Histogram

	// Transcriptions counts pipeline runs by path and status
	Transcriptions metric.Int64Counter

	// Analyses counts orchestrator runs by outcome
	Analyses metric.Int64Counter

	// DroppedWords counts words the attribution engine could not place
	DroppedWords metric.Int64Counter

	HTTPRequestDuration metric.Float64Histogram
}

// seconds; LLM analyses regularly take tens of seconds
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 120,
}

// NewMetrics creates all instruments on the given meter provider
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ASRDuration, err = m.Float64Histogram("pipeline.asr.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("pipeline.llm.duration",
		metric.WithDescription("Latency of the analysis LLM call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Transcriptions, err = m.Int64Counter("pipeline.transcriptions",
		metric.WithDescription("Transcription runs by attribution path and status."),
	); err != nil {
		return nil, err
	}
	if met.Analyses, err = m.Int64Counter("pipeline.analyses",
		metric.WithDescription("Analysis runs by outcome."),
	); err != nil {
		return nil, err
	}
	if met.DroppedWords, err = m.Int64Counter("pipeline.attribution.dropped_words",
		metric.WithDescription("Words dropped because no speaker could be resolved."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordASR records one ASR call
func (m *Metrics) RecordASR(ctx context.Context, provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ASRDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status(err)),
	))
}

// RecordLLM records one analysis LLM call
func (m *Metrics) RecordLLM(ctx context.Context, model string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LLMDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("status", status(err)),
	))
}

// RecordTranscription counts a finished transcription run
func (m *Metrics) RecordTranscription(ctx context.Context, path, status string, droppedWords int) {
	if m == nil {
		return
	}
	m.Transcriptions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("status", status),
	))
	if droppedWords > 0 {
		m.DroppedWords.Add(ctx, int64(droppedWords))
	}
}

// RecordAnalysis counts a finished analysis run
func (m *Metrics) RecordAnalysis(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Analyses.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// EchoMiddleware records request latency per route
func (m *Metrics) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			code := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				code = he.Code
			}
			m.HTTPRequestDuration.Record(c.Request().Context(), time.Since(start).Seconds(),
				metric.WithAttributes(
					attribute.String("method", c.Request().Method),
					attribute.String("route", c.Path()),
					attribute.Int("status", code),
				),
			)
			return err
		}
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

package observe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordASR(ctx, "groq", time.Second, nil)
	m.RecordLLM(ctx, "model", time.Second, errors.New("boom"))
	m.RecordTranscription(ctx, "speaker_turns", "ok", 3)
	m.RecordAnalysis(ctx, "success")
}

func TestRecordAnalysisCountsByOutcome(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAnalysis(ctx, "success")
	m.RecordAnalysis(ctx, "timeout")
	m.RecordAnalysis(ctx, "timeout")

	met := findMetric(collect(t, reader), "pipeline.analyses")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "outcome" && kv.Value.AsString() == "timeout" {
				if dp.Value != 2 {
					t.Fatalf("timeout count = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Fatal("data point with outcome=timeout not found")
}

func TestRecordLatencyHistograms(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordASR(ctx, "groq", 1500*time.Millisecond, nil)
	m.RecordLLM(ctx, "gemini", 12*time.Second, nil)

	rm := collect(t, reader)
	for _, name := range []string{"pipeline.asr.duration", "pipeline.llm.duration"} {
		met := findMetric(rm, name)
		if met == nil {
			t.Fatalf("metric %q not found", name)
		}
		hist, ok := met.Data.(metricdata.Histogram[float64])
		if !ok || len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 1 {
			t.Fatalf("metric %q has unexpected data: %+v", name, met.Data)
		}
	}
}

func TestEchoMiddlewareRecordsRequests(t *testing.T) {
	m, reader := newTestMetrics(t)

	e := echo.New()
	e.Use(m.EchoMiddleware())
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	if findMetric(collect(t, reader), "http.request.duration") == nil {
		t.Fatal("http metric not recorded")
	}
}

package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/satriahrh/voicechat/server/domain"
)

func TestObserveStage(t *testing.T) {
	m := NewMetrics()

	m.ObserveStage("chat", 120*time.Millisecond, nil)
	m.ObserveStage("chat", time.Second, domain.Errorf(domain.KindCompletionUnavailable, "chat", "down"))
	m.ObserveStage("recognize", time.Second, errors.New("plain"))

	if got := testutil.ToFloat64(m.StageFailures.WithLabelValues("chat", "CompletionUnavailable")); got != 1 {
		t.Errorf("Expected 1 chat failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.StageFailures.WithLabelValues("recognize", "Unknown")); got != 1 {
		t.Errorf("Expected 1 unclassified recognize failure, got %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveStage("chat", time.Second, nil)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/", "200")); got != 2 {
		t.Errorf("Expected 2 requests to /, got %v", got)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "voicechat_http_requests_total") {
		t.Error("Exposition should contain the request counter")
	}
}

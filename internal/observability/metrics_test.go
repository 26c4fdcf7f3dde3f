package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordAndServe(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/chat", "200", 150*time.Millisecond)
	m.ObserveRun("free", "completed", 2*time.Second, 4)
	m.IncCreditEvent("consumed")
	m.IncCreditEvent("consumed")

	if got := testutil.ToFloat64(m.credits.WithLabelValues("consumed")); got != 2 {
		t.Fatalf("credits consumed=%v", got)
	}
	if got := testutil.ToFloat64(m.runOutcomes.WithLabelValues("free", "completed")); got != 1 {
		t.Fatalf("run outcomes=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `ht_api_requests_total{method="POST",route="/chat",status="200"} 1`) {
		t.Fatalf("api counter missing from exposition")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ObserveAssistantCall("create_run", "200", time.Millisecond)
	m.ObserveRun("free", "failed", time.Second, 1)
	m.IncExtraction("keyword", "ok")
	m.IncCreditEvent("refunded")
	m.ObserveLockWait("acquired", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAttempt("success", time.Second)
	m.ObserveRejected()
	m.SetInFlight(true)
	m.SetLight("pos1", true)
}

func TestMetrics_Recording(t *testing.T) {
	m := New()

	m.ObserveAttempt("success", 20*time.Millisecond)
	m.ObserveAttempt("success", 30*time.Millisecond)
	m.ObserveAttempt("connection_failure", 3*time.Second)
	m.SetLight("pos2", true)
	m.SetLight("alerta", false)
	m.SetInFlight(true)

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("success")); got != 2 {
		t.Fatalf("success = %v", got)
	}
	if got := testutil.CollectAndCount(m.DeviceLatency); got != 1 {
		t.Fatalf("latency series = %d", got)
	}
	if got := testutil.ToFloat64(m.Lights.WithLabelValues("pos2")); got != 1 {
		t.Fatalf("pos2 = %v", got)
	}
	if got := testutil.ToFloat64(m.InFlight); got != 1 {
		t.Fatalf("in flight = %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRejected()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "qr_dashboard_blank_submissions_total 1") {
		t.Fatalf("exposition missing rejected counter:\n%s", body)
	}
}

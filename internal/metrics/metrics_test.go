package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollectorインターフェースの実装チェック
var _ MetricsCollector = (*Collector)(nil)

// TestNewCollector_RegistersMetrics はコレクターの生成とレジストリ登録を検証する。
// 同一レジストリへ二重登録するとMustRegisterがpanicするため、
// 生成が成功すれば登録も成功している。
func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}
}

// TestCollector_RecordMethods は各記録メソッドがpanicせず動作することを検証する。
func TestCollector_RecordMethods(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSubmission()
	c.RecordPersistenceFailure()
	c.RecordCompileRejected()
	c.RecordCompileUnreachable()
	c.RecordCompileLatency(150 * time.Millisecond)
	c.RecordScheduledCompile(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSubmission()

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "stride_submissions_total") {
		t.Error("response should contain stride_submissions_total metric")
	}
	if !strings.Contains(bodyStr, "stride_compile_latency_seconds") {
		t.Error("response should contain stride_compile_latency_seconds metric")
	}
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDecision(t *testing.T) {
	before := testutil.ToFloat64(AuthzDecisions.WithLabelValues("require_role", OutcomeDeny))

	RecordDecision("require_role", OutcomeDeny)
	RecordDecision("require_role", OutcomeDeny)

	after := testutil.ToFloat64(AuthzDecisions.WithLabelValues("require_role", OutcomeDeny))
	if after-before != 2 {
		t.Errorf("require_role/deny increased by %v, want 2", after-before)
	}
}

func TestTrackOperation(t *testing.T) {
	okBefore := testutil.ToFloat64(LifecycleOperations.WithLabelValues("test_op", ResultSuccess))
	errBefore := testutil.ToFloat64(LifecycleOperations.WithLabelValues("test_op", ResultError))

	TrackOperation("test_op")(nil)
	TrackOperation("test_op")(errors.New("boom"))

	if got := testutil.ToFloat64(LifecycleOperations.WithLabelValues("test_op", ResultSuccess)) - okBefore; got != 1 {
		t.Errorf("success count increased by %v, want 1", got)
	}
	if got := testutil.ToFloat64(LifecycleOperations.WithLabelValues("test_op", ResultError)) - errBefore; got != 1 {
		t.Errorf("error count increased by %v, want 1", got)
	}
	if n := testutil.CollectAndCount(LifecycleDuration, "workspace_lifecycle_operation_duration_seconds"); n == 0 {
		t.Error("duration histogram has no series")
	}
}

func TestHandler(t *testing.T) {
	ObserveRequest(http.MethodGet, "/health", http.StatusOK, time.Now())

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "workspace_http_request_duration_seconds") {
		t.Error("metrics output missing request duration histogram")
	}
}

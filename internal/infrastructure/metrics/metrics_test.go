package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/datatalk/internal/domain"
)

func TestPrometheusRecorder(t *testing.T) {
	rec := NewPrometheus()
	okBefore := testutil.ToFloat64(SubmissionsTotal.WithLabelValues("ok"))
	hitsBefore := testutil.ToFloat64(CacheLookups.WithLabelValues("hit"))

	rec.ObserveSubmission(domain.ExchangeOK, 250*time.Millisecond)
	rec.ObserveCacheLookup(true)
	rec.ObserveRows(3)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(SubmissionsTotal.WithLabelValues("ok")))
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(CacheLookups.WithLabelValues("hit")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	NewPrometheus().ObserveSubmission(domain.ExchangeError, time.Second)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `datatalk_submissions_total{status="error"}`)
}

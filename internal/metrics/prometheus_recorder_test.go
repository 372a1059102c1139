package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveTaskDuration("sass", 150*time.Millisecond)
	pr.IncTaskResult("sass", ResultSuccess)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncRunOutcome(RunSuccess)
	pr.IncFileOutcome("metaBundle", FileOK)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["twbuilder_task_duration_seconds"])
	assert.True(t, names["twbuilder_task_results_total"])
	assert.True(t, names["twbuilder_run_outcomes_total"])
	assert.True(t, names["twbuilder_file_outcomes_total"])
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveTaskDuration("sass", time.Second)
	pr.IncTaskResult("sass", ResultFailed)
	pr.IncRunOutcome(RunFailed)
	pr.IncFileOutcome("sass", FileFailed)
	pr.ObserveRunDuration(time.Second)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRunOutcome(RunSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "twbuilder_run_outcomes_total"))
}

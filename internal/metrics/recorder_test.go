package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("build", time.Second)
	r.ObserveRunDuration(time.Minute)
	r.IncStageResult("build", ResultSuccess)
	r.IncUnitOutcome("done")
	r.IncFanOutResult("local-feed", true)
	r.IncRunOutcome("success")
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncStageResult("build", ResultSuccess)
	r.IncStageResult("build", ResultSuccess)
	r.IncStageResult("test", ResultFailure)
	r.IncUnitOutcome("failed")
	r.IncFanOutResult("public-registry", false)
	r.IncRunOutcome("failed")
	r.ObserveStageDuration("build", 2*time.Second)
	r.ObserveRunDuration(10 * time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["releasekit_stage_results_total"])
	assert.True(t, names["releasekit_stage_duration_seconds"])
	assert.True(t, names["releasekit_run_duration_seconds"])

	count := testutil.ToFloat64(r.stageResults.WithLabelValues("build", "success"))
	assert.Equal(t, 2.0, count)
	count = testutil.ToFloat64(r.fanoutResults.WithLabelValues("public-registry", "failure"))
	assert.Equal(t, 1.0, count)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveStageDuration("build", time.Second)
	r.IncStageResult("build", ResultSkipped)
	r.IncRunOutcome("success")
}

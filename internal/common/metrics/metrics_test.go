package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJobTimer_Success(t *testing.T) {
	before := testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("test-success"))

	job := StartJob("test-success")
	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerJobsActive.WithLabelValues("test-success")))
	job.Done("")

	assert.Equal(t, before+1, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("test-success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(WorkerJobsActive.WithLabelValues("test-success")))
}

func TestJobTimer_Failure(t *testing.T) {
	StartJob("test-failure").Done("SWEEP_IN_PROGRESS")

	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("test-failure", "SWEEP_IN_PROGRESS")))
	assert.Equal(t, float64(0), testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("test-failure")))
}

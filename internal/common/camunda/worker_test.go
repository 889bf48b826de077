package camunda

import (
	"testing"

	"application-workers/internal/common/config"
	"application-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
)

type noopHandler struct{}

func (noopHandler) Handle(worker.JobClient, entities.Job) {}

func TestWorkerSet_SkipsDisabledWorker(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		"expire-applications": {Enabled: false, MaxJobsActive: 1, Timeout: 1000},
	}}

	// The Zeebe client is never touched for a disabled worker.
	set := NewWorkerSet(nil, logger.NewTestLogger(t))
	set.Start(cfg, "expire-applications", noopHandler{})

	assert.Empty(t, set.Running())
	set.Close()
}

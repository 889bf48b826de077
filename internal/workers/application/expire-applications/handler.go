// internal/workers/application/expire-applications/handler.go
package expireapplications

import (
	"context"
	"time"

	"application-workers/internal/application"
	apperrors "application-workers/internal/common/errors"
	"application-workers/internal/common/logger"
	"application-workers/internal/common/metrics"
	"application-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "expire-applications"
)

// Sweeper runs one expiry sweep.
type Sweeper interface {
	ExpireApplications(ctx context.Context) (application.SweepResult, error)
}

type Handler struct {
	config       *Config
	service      Sweeper
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, service Sweeper, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	timer := metrics.StartJob(TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &Input{})
	if err != nil {
		timer.Done(string(apperrors.Normalize(err).Code))
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(started), "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	timer.Done("")
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(started), "completed")
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, _ *Input) (*Output, error) {
	result, err := h.service.ExpireApplications(ctx)
	// A sweep aborted part way still removed some applications.
	metrics.ApplicationsExpired.Add(float64(len(result.Expired)))
	metrics.ExpiryNotificationFailures.Add(float64(result.NotificationFailures))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Expired))
	for _, app := range result.Expired {
		ids = append(ids, app.ID())
	}

	return &Output{
		ExpiredCount:          len(ids),
		ExpiredApplicationIDs: ids,
		NotificationFailures:  result.NotificationFailures,
		SweptAt:               result.SweptAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":       job.Key,
		"expiredCount": output.ExpiredCount,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// internal/workers/application/register-application/handler.go
package registerapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"application-workers/internal/application"
	apperrors "application-workers/internal/common/errors"
	"application-workers/internal/common/logger"
	"application-workers/internal/common/metrics"
	"application-workers/internal/common/observability"
	"application-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "register-application"
)

var schema = validation.MustCompile(inputSchema)

// Registrar is the part of the application service this worker needs.
type Registrar interface {
	RegisterInitialApplication(ctx context.Context, app application.Application) error
	RegisterCustomerFor(ctx context.Context, app application.Application) error
	ApplicationsForName(ctx context.Context, name string) ([]application.Application, error)
}

type Handler struct {
	config       *Config
	service      Registrar
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
	clock        func() time.Time
}

func NewHandler(config *Config, service Registrar, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
		clock:        time.Now,
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

	output, err := h.run(ctx, job)
	if err != nil {
		code := string(apperrors.Normalize(err).Code)
		timer.Done(code)
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

func (h *Handler) run(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := ParseInput(job.Variables)
	if err != nil {
		return nil, err
	}
	if input.ApplicationID == "" {
		input.ApplicationID = JobApplicationID(job.ElementInstanceKey)
	}
	return h.execute(ctx, input)
}

// JobApplicationID derives the application id for a job that did not
// supply one. Every retry of a service task shares its element instance
// key, so retries register the same id.
func JobApplicationID(elementInstanceKey int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strconv.FormatInt(elementInstanceKey, 10))).String()
}

// ParseInput validates job variables against the input schema and decodes
// them.
func ParseInput(variables string) (*Input, error) {
	result, err := schema.ValidateJSON(variables)
	if err != nil {
		return nil, apperrors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	if !result.Valid {
		return nil, apperrors.NewApplicationValidationFailedError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	opts := []application.Option{application.WithClock(h.clock)}
	if input.ApplicationID != "" {
		opts = append(opts, application.WithID(input.ApplicationID))
	}
	if input.CreatedAt != "" {
		createdAt, err := time.Parse(time.RFC3339, input.CreatedAt)
		if err != nil {
			return nil, apperrors.NewApplicationValidationFailedError(fmt.Sprintf("createdAt: %v", err))
		}
		opts = append(opts, application.WithCreatedAt(createdAt))
	}

	app, err := application.New(input.Name, opts...)
	if err != nil {
		return nil, apperrors.NewApplicationValidationFailedError(err.Error())
	}

	stored, err := h.isStored(ctx, app, input.ApplicationID != "")
	if err != nil {
		return nil, err
	}
	if stored {
		// A retry after the customer step failed: the row is already there.
		if err := h.service.RegisterCustomerFor(ctx, app); err != nil {
			return nil, err
		}
	} else {
		if err := h.service.RegisterInitialApplication(ctx, app); err != nil {
			return nil, err
		}
		metrics.ApplicationsRegistered.Inc()
	}

	return &Output{
		ApplicationID: app.ID(),
		Name:          app.Name(),
		CreatedAt:     app.CreatedAt().Format(time.RFC3339),
		Status:        StatusRegistered,
	}, nil
}

// isStored reports whether app's id is already stored for its applicant.
// Generated ids are never stored yet, so the lookup is skipped for them.
func (h *Handler) isStored(ctx context.Context, app application.Application, callerID bool) (bool, error) {
	if !callerID {
		return false, nil
	}
	existing, err := h.service.ApplicationsForName(ctx, app.Name())
	if err != nil {
		return false, err
	}
	for _, a := range existing {
		if a.ID() == app.ID() {
			return true, nil
		}
	}
	return false, nil
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
		"jobKey":        job.Key,
		"applicationId": output.ApplicationID,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

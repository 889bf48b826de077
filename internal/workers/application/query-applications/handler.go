// internal/workers/application/query-applications/handler.go
package queryapplications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"application-workers/internal/application"
	apperrors "application-workers/internal/common/errors"
	"application-workers/internal/common/logger"
	"application-workers/internal/common/metrics"
	"application-workers/internal/common/observability"
	"application-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "query-applications"
)

var schema = validation.MustCompile(inputSchema)

// Reader is the read side of the application service.
type Reader interface {
	ApplicationsForName(ctx context.Context, name string) ([]application.Application, error)
	OpenApplicationsFor(ctx context.Context, name string) ([]application.Application, error)
}

// CustomerLookup answers whether an applicant has registered before.
type CustomerLookup interface {
	Exists(ctx context.Context, name string) (bool, error)
}

type Handler struct {
	config       *Config
	service      Reader
	customers    CustomerLookup
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, service Reader, customers CustomerLookup, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		customers:    customers,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	timer := metrics.StartJob(TaskType)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.run(ctx, job.Variables)
	h.record(ctx, timer, started, err)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

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
	}
}

// record reports one finished job to the prometheus and otel metrics.
func (h *Handler) record(ctx context.Context, timer *metrics.JobTimer, started time.Time, err error) {
	status, code := "completed", ""
	if err != nil {
		status, code = "failed", string(apperrors.Normalize(err).Code)
	}
	timer.Done(code)
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(started), status)
}

func (h *Handler) run(ctx context.Context, variables string) (*Output, error) {
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
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewApplicationValidationFailedError("name: is required")
	}

	var (
		apps []application.Application
		err  error
	)
	if input.OpenOnly {
		apps, err = h.service.OpenApplicationsFor(ctx, name)
	} else {
		apps, err = h.service.ApplicationsForName(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	isCustomer, err := h.customers.Exists(ctx, name)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("customer_exists", err)
	}

	views := make([]ApplicationView, 0, len(apps))
	for _, app := range apps {
		views = append(views, ApplicationView{
			ApplicationID: app.ID(),
			Name:          app.Name(),
			CreatedAt:     app.CreatedAt().Format(time.RFC3339),
		})
	}

	h.logger.Debug("applications queried", map[string]interface{}{
		"name":     name,
		"openOnly": input.OpenOnly,
		"count":    len(views),
	})

	return &Output{
		Name:         name,
		Applications: views,
		Count:        len(views),
		IsCustomer:   isCustomer,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

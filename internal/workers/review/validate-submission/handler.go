// internal/workers/review/validate-submission/handler.go
package validatesubmission

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/common/metrics"
	"fishery-permit/internal/common/validation"
	"fishery-permit/internal/models"
	"fishery-permit/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-submission"
)

type ApplicationStore interface {
	Get(ctx context.Context, id string) (*models.FisheryApplication, error)
}

type Handler struct {
	config *Config
	store  ApplicationStore
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return newHandler(config, store.NewPostgresRepository(db), log)
}

func newHandler(config *Config, s ApplicationStore, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  s,
		errors: errors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job,
			errors.NewApplicationValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	start := time.Now()
	output, err := h.execute(ctx, &input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandard(err).Code)).Inc()
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" {
		return nil, errors.NewApplicationValidationFailedError("applicationId is required")
	}

	app, err := h.store.Get(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	result, err := validation.ValidateApplication(app)
	if err != nil {
		return nil, errors.NewApplicationValidationFailedError(err.Error())
	}

	output := &Output{
		ApplicationNumber: app.ApplicationNumber,
		SubmissionValid:   result.Valid,
		ValidationErrors:  result.GetErrorMessages(),
		ValidatedAt:       h.now().UTC().Format(time.RFC3339),
	}

	if !result.Valid {
		h.logger.Warn("stored submission failed validation", map[string]interface{}{
			"applicationNumber": app.ApplicationNumber,
			"errors":            output.ValidationErrors,
		})
	}
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// internal/workers/review/verify-documents/handler.go
package verifydocuments

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/common/metrics"
	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/attachments"
	"fishery-permit/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "verify-documents"
)

type ApplicationStore interface {
	Get(ctx context.Context, id string) (*models.FisheryApplication, error)
	UpdateDocuments(ctx context.Context, id string, docs []models.Document) error
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.FisheryApplication, error)
}

type Handler struct {
	config *Config
	store  ApplicationStore
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store.NewPostgresRepository(db),
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

	docs := input.Documents
	if len(docs) == 0 {
		app, err := h.store.Get(ctx, input.ApplicationID)
		if err != nil {
			return nil, err
		}
		docs = app.Documents
	}

	output := &Output{
		Documents:    make([]models.Document, 0, len(docs)),
		MissingTypes: missingTypes(docs),
	}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewDocumentVerificationFailedError(err)
		}
		doc.Issues = attachments.InspectDocument(doc, h.config.Limits)
		if len(doc.Issues) > 0 {
			doc.Status = models.DocumentRejected
			output.RejectedCount++
		} else {
			doc.Status = models.DocumentVerified
			output.VerifiedCount++
		}
		output.Documents = append(output.Documents, doc)
	}
	output.AllVerified = len(docs) > 0 && output.RejectedCount == 0

	if err := h.store.UpdateDocuments(ctx, input.ApplicationID, output.Documents); err != nil {
		return nil, err
	}
	app, err := h.store.UpdateStatus(ctx, input.ApplicationID, models.StatusDocumentReview)
	if err != nil {
		return nil, err
	}

	output.Status = app.Status
	output.VerifiedAt = h.now().UTC().Format(time.RFC3339)

	h.logger.Info("documents verified", map[string]interface{}{
		"applicationNumber": app.ApplicationNumber,
		"verified":          output.VerifiedCount,
		"rejected":          output.RejectedCount,
		"missingTypes":      output.MissingTypes,
	})
	return output, nil
}

func missingTypes(docs []models.Document) []models.DocumentType {
	present := make(map[models.DocumentType]bool, len(docs))
	for _, d := range docs {
		present[d.Type] = true
	}
	missing := []models.DocumentType{}
	for _, t := range RequiredTypes {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing
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
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

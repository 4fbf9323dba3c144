package camunda

import (
	"context"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"
)

const DefaultReviewProcessID = "fishery-permit-review"

// InstanceCreator starts process instances. *Client implements it.
type InstanceCreator interface {
	CreateInstance(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// ReviewVariables are the process variables every review worker reads.
type ReviewVariables struct {
	ApplicationID     string             `json:"applicationId"`
	ApplicationNumber string             `json:"applicationNumber"`
	ApplicantName     string             `json:"applicantName"`
	ApplicantPhone    string             `json:"applicantPhone"`
	ApplicantEmail    string             `json:"applicantEmail,omitempty"`
	FisheryType       models.FisheryType `json:"fisheryType"`
	VesselName        string             `json:"vesselName"`
	VesselTonnage     string             `json:"vesselTonnage"`
	FishingArea       string             `json:"fishingArea"`
	EstimatedHours    int                `json:"estimatedHours,omitempty"`
	Documents         []models.Document  `json:"documents"`
}

func NewReviewVariables(app *models.FisheryApplication) ReviewVariables {
	vars := ReviewVariables{
		ApplicationID:     app.ID,
		ApplicationNumber: app.ApplicationNumber,
		ApplicantName:     app.ApplicantName,
		ApplicantPhone:    app.ApplicantPhone,
		FisheryType:       app.FisheryType,
		VesselName:        app.VesselName,
		VesselTonnage:     app.VesselTonnage.String(),
		FishingArea:       app.FishingArea,
		Documents:         app.Documents,
	}
	if app.ApplicantEmail != nil {
		vars.ApplicantEmail = *app.ApplicantEmail
	}
	if app.EstimatedHours != nil {
		vars.EstimatedHours = *app.EstimatedHours
	}
	if vars.Documents == nil {
		vars.Documents = []models.Document{}
	}
	return vars
}

// ReviewLauncher starts the review process for submitted applications.
type ReviewLauncher struct {
	creator   InstanceCreator
	processID string
	retry     *RetryConfig
	logger    logger.Logger
}

func NewReviewLauncher(creator InstanceCreator, processID string, retry *RetryConfig, log logger.Logger) *ReviewLauncher {
	if processID == "" {
		processID = DefaultReviewProcessID
	}
	if retry == nil {
		retry = DefaultRetryConfig
	}
	return &ReviewLauncher{
		creator:   creator,
		processID: processID,
		retry:     retry,
		logger:    log.WithFields(map[string]interface{}{"component": "review-launcher", "processId": processID}),
	}
}

func (l *ReviewLauncher) Start(ctx context.Context, app *models.FisheryApplication) (int64, error) {
	vars := NewReviewVariables(app)

	result, err := executeWithRetry(ctx, l.retry, func(ctx context.Context) (interface{}, error) {
		return l.creator.CreateInstance(ctx, l.processID, vars)
	}, "create-instance")
	if err != nil {
		l.logger.Error("failed to start review process", map[string]interface{}{
			"applicationNumber": app.ApplicationNumber,
			"error":             err.Error(),
		})
		return 0, err
	}

	key := result.(int64)
	l.logger.Info("review process started", map[string]interface{}{
		"applicationNumber":  app.ApplicationNumber,
		"processInstanceKey": key,
	})
	return key, nil
}

// internal/workers/review/update-application-status/models.go
package updateapplicationstatus

import "fishery-permit/internal/models"

type Input struct {
	ApplicationID string                   `json:"applicationId"`
	TargetStatus  models.ApplicationStatus `json:"targetStatus"`
}

type Output struct {
	ApplicationNumber string                   `json:"applicationNumber"`
	PreviousStatus    models.ApplicationStatus `json:"previousStatus"`
	Status            models.ApplicationStatus `json:"status"`
	UpdatedAt         string                   `json:"updatedAt"`             // ISO 8601
	CompletedAt       string                   `json:"completedAt,omitempty"` // ISO 8601
}

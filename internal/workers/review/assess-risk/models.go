// internal/workers/review/assess-risk/models.go
package assessrisk

import "fishery-permit/internal/models"

type Input struct {
	ApplicationID string             `json:"applicationId"`
	FisheryType   models.FisheryType `json:"fisheryType"`
	VesselTonnage string             `json:"vesselTonnage"`
	Documents     []models.Document  `json:"documents"`
}

type Output struct {
	RiskLevel            models.RiskLevel         `json:"riskLevel"`
	RiskReasons          []string                 `json:"riskReasons"`
	RequiresManualReview bool                     `json:"requiresManualReview"`
	Status               models.ApplicationStatus `json:"status"`
	AssessedAt           string                   `json:"assessedAt"` // ISO 8601
}

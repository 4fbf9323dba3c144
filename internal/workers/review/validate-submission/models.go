// internal/workers/review/validate-submission/models.go
package validatesubmission

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationNumber string   `json:"applicationNumber"`
	SubmissionValid   bool     `json:"submissionValid"`
	ValidationErrors  []string `json:"validationErrors"`
	ValidatedAt       string   `json:"validatedAt"` // ISO 8601
}

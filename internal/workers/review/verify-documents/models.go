// internal/workers/review/verify-documents/models.go
package verifydocuments

import "fishery-permit/internal/models"

type Input struct {
	ApplicationID string            `json:"applicationId"`
	Documents     []models.Document `json:"documents"`
}

type Output struct {
	Documents     []models.Document        `json:"documents"`
	VerifiedCount int                      `json:"verifiedCount"`
	RejectedCount int                      `json:"rejectedCount"`
	AllVerified   bool                     `json:"allVerified"`
	MissingTypes  []models.DocumentType    `json:"missingTypes"`
	Status        models.ApplicationStatus `json:"status"`
	VerifiedAt    string                   `json:"verifiedAt"` // ISO 8601
}

// RequiredTypes are the certificates every application must carry.
var RequiredTypes = []models.DocumentType{
	models.DocVesselInspection,
	models.DocVesselRegistration,
}

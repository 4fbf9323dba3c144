package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FisheryType string

const (
	FisheryCoastal      FisheryType = "coastal"
	FisheryOffshore     FisheryType = "offshore"
	FisheryDemarcated   FisheryType = "demarcated"
	FisheryDistantWater FisheryType = "distant_water"
)

var fisheryInfo = map[FisheryType]struct {
	label string
	days  int
}{
	FisheryCoastal:      {"연안어업", 2},
	FisheryOffshore:     {"근해어업", 3},
	FisheryDemarcated:   {"구획어업", 1},
	FisheryDistantWater: {"원양어업", 5},
}

func (f FisheryType) Valid() bool {
	_, ok := fisheryInfo[f]
	return ok
}

func (f FisheryType) Label() string {
	if info, ok := fisheryInfo[f]; ok {
		return info.label
	}
	return string(f)
}

// StandardProcessingDays is the published handling time for a manual review.
func (f FisheryType) StandardProcessingDays() int {
	return fisheryInfo[f].days
}

func FisheryTypes() []FisheryType {
	return []FisheryType{FisheryCoastal, FisheryOffshore, FisheryDemarcated, FisheryDistantWater}
}

type ApplicationStatus string

const (
	StatusPending        ApplicationStatus = "pending"
	StatusDocumentReview ApplicationStatus = "document_review"
	StatusAIProcessing   ApplicationStatus = "ai_processing"
	StatusManualReview   ApplicationStatus = "manual_review"
	StatusApproved       ApplicationStatus = "approved"
	StatusRejected       ApplicationStatus = "rejected"
	StatusCompleted      ApplicationStatus = "completed"
)

func ApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{
		StatusPending, StatusDocumentReview, StatusAIProcessing, StatusManualReview,
		StatusApproved, StatusRejected, StatusCompleted,
	}
}

func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the review has reached a decision.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCompleted
}

// CanTransition allows any move between open statuses and from a decision to
// completed. Nothing leaves completed.
func (s ApplicationStatus) CanTransition(to ApplicationStatus) bool {
	if !to.Valid() {
		return false
	}
	if s == to {
		return true
	}
	switch s {
	case StatusCompleted:
		return false
	case StatusApproved, StatusRejected:
		return to == StatusCompleted
	}
	return true
}

type DocumentType string

const (
	DocVesselInspection      DocumentType = "vessel_inspection"
	DocVesselRegistration    DocumentType = "vessel_registration"
	DocBusinessLicense       DocumentType = "business_license"
	DocLeaseAgreement        DocumentType = "lease_agreement"
	DocCorporateRegistration DocumentType = "corporate_registration"
	DocOther                 DocumentType = "other"
)

func (d DocumentType) Valid() bool {
	switch d {
	case DocVesselInspection, DocVesselRegistration, DocBusinessLicense,
		DocLeaseAgreement, DocCorporateRegistration, DocOther:
		return true
	}
	return false
}

type DocumentStatus string

const (
	DocumentReceived DocumentStatus = "received"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Document is the stored metadata of an attachment. File contents are never kept.
type Document struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      DocumentType   `json:"type"`
	SizeBytes int64          `json:"sizeBytes"`
	Status    DocumentStatus `json:"status"`
	Issues    []string       `json:"issues,omitempty"`
	AddedAt   time.Time      `json:"addedAt"`
}

type FisheryApplication struct {
	ID                     string            `json:"id"`
	ApplicationNumber      string            `json:"applicationNumber"`
	ApplicantName          string            `json:"applicantName"`
	ApplicantPhone         string            `json:"applicantPhone"`
	ApplicantEmail         *string           `json:"applicantEmail,omitempty"`
	FisheryType            FisheryType       `json:"fisheryType"`
	VesselName             string            `json:"vesselName"`
	VesselTonnage          decimal.Decimal   `json:"vesselTonnage"`
	FishingArea            string            `json:"fishingArea"`
	Status                 ApplicationStatus `json:"status"`
	RiskLevel              *RiskLevel        `json:"riskLevel,omitempty"`
	EstimatedHours         *int              `json:"estimatedHours,omitempty"`
	Documents              []Document        `json:"documents"`
	SubmittedAt            time.Time         `json:"submittedAt"`
	ExpectedCompletionDate *time.Time        `json:"expectedCompletionDate,omitempty"`
	CompletedAt            *time.Time        `json:"completedAt,omitempty"`
	Notes                  *string           `json:"notes,omitempty"`
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
}

// DashboardStats summarises the stored applications for the admin view.
type DashboardStats struct {
	Total                 int                       `json:"total"`
	ByStatus              map[ApplicationStatus]int `json:"byStatus"`
	ByFisheryType         map[FisheryType]int       `json:"byFisheryType"`
	Pending               int                       `json:"pending"`
	Approved              int                       `json:"approved"`
	Rejected              int                       `json:"rejected"`
	AverageEstimatedHours float64                   `json:"averageEstimatedHours"`
	AverageStandardDays   float64                   `json:"averageStandardDays"`
}

// ComputeStats aggregates a list of applications.
func ComputeStats(apps []FisheryApplication) DashboardStats {
	stats := DashboardStats{
		Total:         len(apps),
		ByStatus:      make(map[ApplicationStatus]int),
		ByFisheryType: make(map[FisheryType]int),
	}

	var estimated, estimatedCount, standardDays int
	for _, app := range apps {
		stats.ByStatus[app.Status]++
		stats.ByFisheryType[app.FisheryType]++
		if app.EstimatedHours != nil {
			estimated += *app.EstimatedHours
			estimatedCount++
		}
		standardDays += app.FisheryType.StandardProcessingDays()
	}

	stats.Pending = stats.ByStatus[StatusPending] + stats.ByStatus[StatusDocumentReview] +
		stats.ByStatus[StatusAIProcessing] + stats.ByStatus[StatusManualReview]
	stats.Approved = stats.ByStatus[StatusApproved] + stats.ByStatus[StatusCompleted]
	stats.Rejected = stats.ByStatus[StatusRejected]

	if estimatedCount > 0 {
		stats.AverageEstimatedHours = float64(estimated) / float64(estimatedCount)
	}
	if len(apps) > 0 {
		stats.AverageStandardDays = float64(standardDays) / float64(len(apps))
	}
	return stats
}

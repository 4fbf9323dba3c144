// Package demo provides the sample data used when the service runs without a
// database and when an applicant asks for the form to be filled in.
package demo

import (
	"time"

	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/attachments"
	"fishery-permit/internal/permit/form"

	"github.com/shopspring/decimal"
)

// Fixtures is the built-in demo data set.
type Fixtures struct{}

func (Fixtures) Form() map[form.Field]string {
	return map[form.Field]string{
		form.ApplicantName:  "박용환",
		form.ApplicantPhone: "010-7939-3123",
		form.ApplicantEmail: "sanoramyun8@gmail.com",
		form.VesselName:     "희망찬바다호",
		form.VesselTonnage:  "8.5",
		form.FishingArea:    "부산 연안",
		form.FisheryType:    string(models.FisheryCoastal),
		form.BusinessType:   "individual",
		form.Experience:     "experienced",
	}
}

func (Fixtures) Files() []attachments.FileMeta {
	return []attachments.FileMeta{
		{Name: "어선검사증서.pdf", SizeBytes: 2202009, Type: models.DocVesselInspection},
		{Name: "선박국적증서.pdf", SizeBytes: 1887436, Type: models.DocVesselRegistration},
		{Name: "사업자등록증.pdf", SizeBytes: 1258291, Type: models.DocBusinessLicense},
	}
}

// Applications returns the seed records of the mock store, newest first.
func (Fixtures) Applications() []models.FisheryApplication {
	kst := time.FixedZone("KST", 9*60*60)
	at := func(y int, m time.Month, d, hh, mm int) time.Time {
		return time.Date(y, m, d, hh, mm, 0, 0, kst)
	}
	ptr := func(t time.Time) *time.Time { return &t }
	risk := func(r models.RiskLevel) *models.RiskLevel { return &r }
	email := "kim.fisher@email.com"

	return []models.FisheryApplication{
		{
			ID:                     "app_001",
			ApplicationNumber:      "F2025060001",
			ApplicantName:          "김어부",
			ApplicantPhone:         "010-1234-5678",
			ApplicantEmail:         &email,
			FisheryType:            models.FisheryCoastal,
			VesselName:             "바다의꿈호",
			VesselTonnage:          decimal.RequireFromString("5.5"),
			FishingArea:            "부산 연안",
			Status:                 models.StatusAIProcessing,
			RiskLevel:              risk(models.RiskLow),
			SubmittedAt:            at(2025, time.June, 1, 9, 30),
			ExpectedCompletionDate: ptr(at(2025, time.June, 3, 17, 0)),
			Documents: []models.Document{
				{ID: "doc_001", Name: "어선검사증서.pdf", Type: models.DocVesselInspection, SizeBytes: 2048576, Status: models.DocumentVerified, AddedAt: at(2025, time.June, 1, 9, 30)},
				{ID: "doc_002", Name: "선박국적증서.pdf", Type: models.DocVesselRegistration, SizeBytes: 1856432, Status: models.DocumentVerified, AddedAt: at(2025, time.June, 1, 9, 31)},
			},
			CreatedAt: at(2025, time.June, 1, 9, 30),
			UpdatedAt: at(2025, time.June, 1, 9, 35),
		},
		{
			ID:                     "app_002",
			ApplicationNumber:      "F2025060002",
			ApplicantName:          "이선장",
			ApplicantPhone:         "010-9876-5432",
			FisheryType:            models.FisheryOffshore,
			VesselName:             "태평양호",
			VesselTonnage:          decimal.RequireFromString("25.8"),
			FishingArea:            "제주 근해",
			Status:                 models.StatusManualReview,
			RiskLevel:              risk(models.RiskMedium),
			SubmittedAt:            at(2025, time.May, 28, 14, 20),
			ExpectedCompletionDate: ptr(at(2025, time.June, 2, 17, 0)),
			Documents: []models.Document{
				{ID: "doc_003", Name: "어선검사증서_태평양호.pdf", Type: models.DocVesselInspection, SizeBytes: 3145728, Status: models.DocumentVerified, AddedAt: at(2025, time.May, 28, 14, 20)},
				{ID: "doc_004", Name: "선박국적증서_태평양호.pdf", Type: models.DocVesselRegistration, SizeBytes: 2097152, Status: models.DocumentReceived, AddedAt: at(2025, time.May, 28, 14, 22)},
			},
			CreatedAt: at(2025, time.May, 28, 14, 20),
			UpdatedAt: at(2025, time.May, 28, 14, 30),
		},
		{
			ID:                     "app_003",
			ApplicationNumber:      "F2025060003",
			ApplicantName:          "박사장",
			ApplicantPhone:         "010-5555-7777",
			FisheryType:            models.FisheryDemarcated,
			VesselName:             "금강호",
			VesselTonnage:          decimal.RequireFromString("12.3"),
			FishingArea:            "서해 구획어업",
			Status:                 models.StatusApproved,
			RiskLevel:              risk(models.RiskLow),
			SubmittedAt:            at(2025, time.May, 25, 11, 15),
			ExpectedCompletionDate: ptr(at(2025, time.May, 28, 17, 0)),
			CompletedAt:            ptr(at(2025, time.May, 27, 16, 30)),
			Documents: []models.Document{
				{ID: "doc_005", Name: "어선검사증서.pdf", Type: models.DocVesselInspection, SizeBytes: 1966080, Status: models.DocumentVerified, AddedAt: at(2025, time.May, 25, 11, 15)},
			},
			CreatedAt: at(2025, time.May, 25, 11, 15),
			UpdatedAt: at(2025, time.May, 27, 16, 30),
		},
	}
}

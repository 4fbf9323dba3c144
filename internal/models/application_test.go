package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFisheryType(t *testing.T) {
	assert.True(t, FisheryCoastal.Valid())
	assert.False(t, FisheryType("river").Valid())
	assert.Equal(t, "근해어업", FisheryOffshore.Label())
	assert.Equal(t, "river", FisheryType("river").Label())
	assert.Equal(t, 5, FisheryDistantWater.StandardProcessingDays())
	assert.Len(t, FisheryTypes(), 4)
}

func TestApplicationStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to ApplicationStatus
		allowed  bool
	}{
		{StatusPending, StatusDocumentReview, true},
		{StatusManualReview, StatusPending, true},
		{StatusAIProcessing, StatusApproved, true},
		{StatusApproved, StatusCompleted, true},
		{StatusRejected, StatusCompleted, true},
		{StatusApproved, StatusPending, false},
		{StatusCompleted, StatusApproved, false},
		{StatusCompleted, StatusCompleted, true},
		{StatusPending, ApplicationStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestDocumentTypeAndRisk(t *testing.T) {
	assert.True(t, DocLeaseAgreement.Valid())
	assert.False(t, DocumentType("passport").Valid())
	assert.True(t, RiskMedium.Valid())
	assert.False(t, RiskLevel("extreme").Valid())
}

func TestComputeStats(t *testing.T) {
	ten, twenty := 10, 20
	apps := []FisheryApplication{
		{FisheryType: FisheryCoastal, Status: StatusPending, EstimatedHours: &ten},
		{FisheryType: FisheryCoastal, Status: StatusApproved, EstimatedHours: &twenty},
		{FisheryType: FisheryOffshore, Status: StatusRejected},
		{FisheryType: FisheryDemarcated, Status: StatusCompleted},
	}

	stats := ComputeStats(apps)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 2, stats.ByFisheryType[FisheryCoastal])
	assert.InDelta(t, 15.0, stats.AverageEstimatedHours, 0.001)
	assert.InDelta(t, 2.0, stats.AverageStandardDays, 0.001)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AverageEstimatedHours)
}

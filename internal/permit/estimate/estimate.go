// Package estimate derives the expected processing time of an application
// from its fishery type and vessel tonnage.
package estimate

import (
	"math"
	"strconv"
	"strings"

	"fishery-permit/internal/models"
)

const (
	// LargeVesselTonnage is the tonnage above which extra documents are reviewed.
	LargeVesselTonnage = 10.0

	largeVesselSurcharge = 24
	aiSpeedup            = 0.2
	defaultBaseHours     = 72
)

var baseHours = map[models.FisheryType]int{
	models.FisheryCoastal:    48,
	models.FisheryDemarcated: 24,
}

// BaseHours is the manual-review baseline for a fishery type. Unknown and unset
// types take the default of 72 hours.
func BaseHours(fisheryType string) int {
	if h, ok := baseHours[models.FisheryType(fisheryType)]; ok {
		return h
	}
	return defaultBaseHours
}

// ParseTonnage accepts positive finite numbers only.
func ParseTonnage(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Hours returns the estimated processing time in hours, or nil when either input
// is missing or the tonnage is not a usable number.
func Hours(fisheryType, tonnage string) *int {
	if strings.TrimSpace(fisheryType) == "" || strings.TrimSpace(tonnage) == "" {
		return nil
	}
	t, ok := ParseTonnage(tonnage)
	if !ok {
		return nil
	}

	base := BaseHours(strings.TrimSpace(fisheryType))
	if t > LargeVesselTonnage {
		base += largeVesselSurcharge
	}
	hours := int(math.Round(float64(base) * aiSpeedup))
	return &hours
}

// internal/workers/review/assess-risk/risk.go
package assessrisk

import (
	"fmt"

	"fishery-permit/internal/models"

	"github.com/shopspring/decimal"
)

// Assess grades an application. Any rejected document makes it high risk;
// a large vessel or an offshore or distant-water fishery makes it medium.
func Assess(fisheryType models.FisheryType, tonnage, threshold decimal.Decimal, docs []models.Document) (models.RiskLevel, []string) {
	var reasons []string
	for _, d := range docs {
		if d.Status == models.DocumentRejected {
			reasons = append(reasons, fmt.Sprintf("서류 반려: %s", d.Name))
		}
	}
	if len(reasons) > 0 {
		return models.RiskHigh, reasons
	}

	if tonnage.GreaterThan(threshold) {
		reasons = append(reasons, fmt.Sprintf("선박 톤수 %s톤이 기준 %s톤을 초과합니다", tonnage.String(), threshold.String()))
	}
	if fisheryType == models.FisheryOffshore || fisheryType == models.FisheryDistantWater {
		reasons = append(reasons, fmt.Sprintf("%s은 추가 심사 대상입니다", fisheryType.Label()))
	}
	if len(reasons) > 0 {
		return models.RiskMedium, reasons
	}
	return models.RiskLow, []string{}
}

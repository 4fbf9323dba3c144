// internal/workers/review/assess-risk/config.go
package assessrisk

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// Vessels above this tonnage are reviewed with medium risk.
	TonnageThreshold decimal.Decimal
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		TonnageThreshold: decimal.NewFromInt(10),
		Timeout:          10 * time.Second,
	}
}

// internal/workers/review/verify-documents/config.go
package verifydocuments

import (
	"time"

	"fishery-permit/internal/permit/attachments"
)

type Config struct {
	Limits  attachments.Limits
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Limits:  attachments.DefaultLimits(),
		Timeout: 30 * time.Second,
	}
}

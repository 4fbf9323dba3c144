// internal/workers/review/notify-applicant/config.go
package notifyapplicant

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AWSRegion: "ap-northeast-2",
		Timeout:   30 * time.Second,
	}
}

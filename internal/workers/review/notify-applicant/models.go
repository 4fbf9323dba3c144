// internal/workers/review/notify-applicant/models.go
package notifyapplicant

import "fishery-permit/internal/models"

type Input struct {
	ApplicationID     string                   `json:"applicationId"`
	ApplicationNumber string                   `json:"applicationNumber"`
	ApplicantName     string                   `json:"applicantName"`
	ApplicantPhone    string                   `json:"applicantPhone"`
	ApplicantEmail    string                   `json:"applicantEmail,omitempty"`
	Status            models.ApplicationStatus `json:"status"`
	RiskReasons       []string                 `json:"riskReasons,omitempty"`
}

type Output struct {
	NotificationID     string   `json:"notificationId"`
	NotificationStatus string   `json:"notificationStatus"` // "sent" or "disabled"
	Channels           []string `json:"channels"`
	SentAt             string   `json:"sentAt"` // ISO 8601
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

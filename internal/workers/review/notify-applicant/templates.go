// internal/workers/review/notify-applicant/templates.go
package notifyapplicant

import (
	"fmt"
	"strings"

	"fishery-permit/internal/models"
)

type template struct {
	Subject string
	Body    string
}

var templates = map[models.ApplicationStatus]template{
	models.StatusPending: {
		Subject: "[어업허가] 신청이 접수되었습니다",
		Body:    "{{applicantName}}님, 신청번호 {{applicationNumber}}의 어업 허가 신청이 접수되었습니다.",
	},
	models.StatusDocumentReview: {
		Subject: "[어업허가] 서류 검토가 시작되었습니다",
		Body:    "{{applicantName}}님, 신청번호 {{applicationNumber}}의 제출 서류를 검토하고 있습니다.",
	},
	models.StatusAIProcessing: {
		Subject: "[어업허가] AI 심사가 진행 중입니다",
		Body:    "{{applicantName}}님, 신청번호 {{applicationNumber}}의 AI 심사가 진행 중입니다.",
	},
	models.StatusManualReview: {
		Subject: "[어업허가] 담당자 검토가 진행됩니다",
		Body:    "{{applicantName}}님, 신청번호 {{applicationNumber}}는 담당자가 추가로 검토합니다. {{reasons}}",
	},
	models.StatusApproved: {
		Subject: "[어업허가] 허가 신청이 승인되었습니다",
		Body:    "{{applicantName}}님, 신청번호 {{applicationNumber}}의 어업 허가가 승인되었습니다.",
	},
	models.StatusRejected: {
		Subject: "[어업허가] 허가 신청이 반려되었습니다",
		Body:    "{{applicantName}}님, 신청번호 {{applicationNumber}}의 신청이 반려되었습니다. {{reasons}}",
	},
	models.StatusCompleted: {
		Subject: "[어업허가] 허가증 발급이 완료되었습니다",
		Body:    "{{applicantName}}님, 신청번호 {{applicationNumber}}의 허가증이 발급되었습니다.",
	},
}

// renderTemplate replaces {{key}} placeholders and drops any left unfilled.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return strings.TrimSpace(result)
}

// toE164 converts a domestic mobile number such as 010-7939-3123 to +821079393123.
func toE164(phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) != 11 || !strings.HasPrefix(digits, "010") {
		return "", fmt.Errorf("not a mobile number: %q", phone)
	}
	return "+82" + digits[1:], nil
}

package fieldcheck

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"fishery-permit/internal/common/validation"
	"fishery-permit/internal/permit/estimate"
	"fishery-permit/internal/permit/feed"
	"fishery-permit/internal/permit/form"
)

type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusWarning Status = "warning"
)

type Result struct {
	Field       form.Field `json:"field"`
	Status      Status     `json:"status"`
	Message     string     `json:"message"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// Outcome is a result together with the advisories it produces.
type Outcome struct {
	Result          Result
	Recommendations []feed.Recommendation
}

// PhoneSuggestions are offered when a phone number does not match the mobile format.
var PhoneSuggestions = []string{"010-1234-5678", "010-9876-5432"}

// Check applies the rule for field to a non-empty value.
func Check(field form.Field, value string) Outcome {
	value = strings.TrimSpace(value)

	switch field {
	case form.ApplicantName:
		return checkName(value)
	case form.ApplicantPhone:
		return checkPhone(value)
	case form.ApplicantEmail:
		return checkEmail(value)
	case form.VesselName:
		return checkVesselName(value)
	case form.VesselTonnage:
		return checkTonnage(value)
	}

	return Outcome{Result: Result{Field: field, Status: StatusValid, Message: "입력 완료"}}
}

func checkName(value string) Outcome {
	if utf8.RuneCountInString(value) < 2 {
		return invalid(form.ApplicantName, "이름은 2글자 이상이어야 합니다")
	}
	if strings.IndexFunc(value, unicode.IsDigit) >= 0 {
		return invalid(form.ApplicantName, "이름에는 숫자가 포함될 수 없습니다")
	}
	return Outcome{
		Result: Result{Field: form.ApplicantName, Status: StatusValid, Message: "유효한 이름입니다"},
		Recommendations: []feed.Recommendation{{
			Type:    feed.KindInfo,
			Title:   "AI 검증 완료",
			Message: "신청인 정보가 데이터베이스와 일치하는지 확인했습니다.",
		}},
	}
}

func checkPhone(value string) Outcome {
	if !validation.ValidateMobilePhone(value) {
		out := invalid(form.ApplicantPhone, "010-0000-0000 형식으로 입력해주세요")
		out.Result.Suggestions = append([]string(nil), PhoneSuggestions...)
		return out
	}
	return Outcome{Result: Result{Field: form.ApplicantPhone, Status: StatusValid, Message: "유효한 전화번호입니다"}}
}

func checkEmail(value string) Outcome {
	if !validation.ValidateEmail(value) {
		return invalid(form.ApplicantEmail, "올바른 이메일 주소를 입력해주세요")
	}
	return Outcome{Result: Result{Field: form.ApplicantEmail, Status: StatusValid, Message: "입력 완료"}}
}

func checkVesselName(value string) Outcome {
	if utf8.RuneCountInString(value) < 2 {
		return invalid(form.VesselName, "어선명은 2글자 이상이어야 합니다")
	}
	return Outcome{
		Result: Result{Field: form.VesselName, Status: StatusValid, Message: "사용 가능한 어선명입니다"},
		Recommendations: []feed.Recommendation{{
			Type:    feed.KindSuccess,
			Title:   "어선 정보 확인",
			Message: fmt.Sprintf("'%s'은(는) 등록 가능한 어선명입니다.", value),
		}},
	}
}

func checkTonnage(value string) Outcome {
	tonnage, ok := estimate.ParseTonnage(value)
	if !ok {
		return invalid(form.VesselTonnage, "유효한 톤수를 입력해주세요")
	}
	if tonnage > estimate.LargeVesselTonnage {
		return Outcome{
			Result: Result{Field: form.VesselTonnage, Status: StatusWarning, Message: "근해어업 대상 어선입니다 (추가 서류 필요)"},
			Recommendations: []feed.Recommendation{{
				Type:    feed.KindWarning,
				Title:   "추가 서류 안내",
				Message: "10톤 초과 어선은 근해어업 서류가 추가로 필요합니다.",
			}},
		}
	}
	return Outcome{
		Result: Result{Field: form.VesselTonnage, Status: StatusValid, Message: "연안어업 대상 어선입니다"},
		Recommendations: []feed.Recommendation{{
			Type:    feed.KindSuccess,
			Title:   "어업 분류 완료",
			Message: "연안어업으로 분류되어 처리시간이 단축됩니다.",
		}},
	}
}

func invalid(field form.Field, message string) Outcome {
	return Outcome{Result: Result{Field: field, Status: StatusInvalid, Message: message}}
}

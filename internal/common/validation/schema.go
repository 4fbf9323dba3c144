package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"fishery-permit/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// SubmissionSchema describes the payload of a submitted permit application.
const SubmissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["applicantName", "applicantPhone", "vesselName", "vesselTonnage", "fisheryType", "fishingArea"],
  "properties": {
    "applicantName":  {"type": "string", "minLength": 2, "pattern": "^[^0-9]+$"},
    "applicantPhone": {"type": "string", "pattern": "^010-[0-9]{4}-[0-9]{4}$"},
    "applicantEmail": {"type": "string", "format": "email"},
    "businessType":   {"type": "string"},
    "experience":     {"type": "string"},
    "vesselName":     {"type": "string", "minLength": 2},
    "vesselTonnage":  {"type": "number", "exclusiveMinimum": 0},
    "fisheryType":    {"type": "string", "enum": ["coastal", "offshore", "demarcated", "distant_water"]},
    "fishingArea":    {"type": "string", "minLength": 1},
    "documents": {
      "type": "array",
      "maxItems": 10,
      "items": {
        "type": "object",
        "required": ["name", "type", "sizeBytes"],
        "properties": {
          "name":      {"type": "string", "minLength": 1},
          "type":      {"type": "string", "enum": ["vessel_inspection", "vessel_registration", "business_license", "lease_agreement", "corporate_registration", "other"]},
          "sizeBytes": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

var (
	phonePattern = regexp.MustCompile(`^010-\d{4}-\d{4}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	submissionOnce   sync.Once
	submissionSchema *gojsonschema.Schema
	submissionErr    error
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func compiledSubmissionSchema() (*gojsonschema.Schema, error) {
	submissionOnce.Do(func() {
		submissionSchema, submissionErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(SubmissionSchema))
	})
	return submissionSchema, submissionErr
}

// ValidateSubmission checks a decoded application payload against SubmissionSchema.
func ValidateSubmission(document interface{}) (*ValidationResult, error) {
	schema, err := compiledSubmissionSchema()
	if err != nil {
		return nil, fmt.Errorf("compile submission schema: %w", err)
	}
	return validateWith(schema, gojsonschema.NewGoLoader(document))
}

// ValidateApplication checks a built application record.
func ValidateApplication(app *models.FisheryApplication) (*ValidationResult, error) {
	return ValidateSubmission(SubmissionDocument(app))
}

// SubmissionDocument renders an application in the shape checked by
// SubmissionSchema.
func SubmissionDocument(app *models.FisheryApplication) map[string]interface{} {
	tonnage, _ := app.VesselTonnage.Float64()
	docs := make([]interface{}, 0, len(app.Documents))
	for _, d := range app.Documents {
		docs = append(docs, map[string]interface{}{
			"name":      d.Name,
			"type":      string(d.Type),
			"sizeBytes": d.SizeBytes,
		})
	}

	doc := map[string]interface{}{
		"applicantName":  app.ApplicantName,
		"applicantPhone": app.ApplicantPhone,
		"vesselName":     app.VesselName,
		"vesselTonnage":  tonnage,
		"fisheryType":    string(app.FisheryType),
		"fishingArea":    app.FishingArea,
		"documents":      docs,
	}
	if app.ApplicantEmail != nil {
		doc["applicantEmail"] = *app.ApplicantEmail
	}
	return doc
}

// ValidateSubmissionJSON is ValidateSubmission for a raw JSON document.
func ValidateSubmissionJSON(raw []byte) (*ValidationResult, error) {
	schema, err := compiledSubmissionSchema()
	if err != nil {
		return nil, fmt.Errorf("compile submission schema: %w", err)
	}
	return validateWith(schema, gojsonschema.NewBytesLoader(raw))
}

func validateWith(schema *gojsonschema.Schema, document gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := schema.Validate(document)
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if property, ok := desc.Details()["property"].(string); ok {
				field = property
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out, nil
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateMobilePhone accepts the 010-XXXX-XXXX mobile format only.
func ValidateMobilePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

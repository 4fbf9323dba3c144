package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeSessionNotFound  ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeStepIncomplete   ErrorCode = "STEP_INCOMPLETE"
	ErrCodeUnknownField     ErrorCode = "UNKNOWN_FIELD"
	ErrCodeAlreadySubmitted ErrorCode = "APPLICATION_ALREADY_SUBMITTED"

	ErrCodeAttachmentRejected         ErrorCode = "ATTACHMENT_REJECTED"
	ErrCodeDocumentVerificationFailed ErrorCode = "DOCUMENT_VERIFICATION_FAILED"

	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeApplicationNotFound         ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeInvalidStatusTransition     ErrorCode = "INVALID_STATUS_TRANSITION"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeStatusUpdateFailed       ErrorCode = "STATUS_UPDATE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeReviewStartFailed      ErrorCode = "REVIEW_START_FAILED"
	ErrCodeConfigMissing          ErrorCode = "CONFIG_MISSING"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// HTTPStatus maps the code onto the status returned by the API.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound, ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case ErrCodeStepIncomplete, ErrCodeInvalidStatusTransition, ErrCodeAlreadySubmitted:
		return http.StatusConflict
	case ErrCodeUnknownField, ErrCodeAttachmentRejected, ErrCodeApplicationValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeDatabaseConnectionFailed, ErrCodeConfigMissing:
		return http.StatusServiceUnavailable
	case ErrCodeDatabaseInsertFailed, ErrCodeQueryExecutionFailed, ErrCodeStatusUpdateFailed,
		ErrCodeReviewStartFailed, ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Application session not found",
		fmt.Sprintf("sessionId: %s", sessionID), false)
}

func NewStepIncompleteError(step int, missing []string) *StandardError {
	return newError(ErrCodeStepIncomplete, "Current step has incomplete required fields",
		fmt.Sprintf("step: %d, fields: %s", step, strings.Join(missing, ",")), false).
		WithMetadata("missingFields", missing)
}

func NewUnknownFieldError(field string) *StandardError {
	return newError(ErrCodeUnknownField, "Unknown form field",
		fmt.Sprintf("field: %s", field), false)
}

func NewAlreadySubmittedError(sessionID, applicationNumber string) *StandardError {
	return newError(ErrCodeAlreadySubmitted, "Session has already been submitted",
		"applicationNumber: "+applicationNumber, false).WithMetadata("sessionId", sessionID)
}

func NewAttachmentRejectedError(reasons []string) *StandardError {
	return newError(ErrCodeAttachmentRejected, "Attachment batch rejected",
		strings.Join(reasons, "; "), false).
		WithMetadata("reasons", reasons)
}

func NewDocumentVerificationFailedError(err error) *StandardError {
	return newError(ErrCodeDocumentVerificationFailed, "Document verification failed",
		err.Error(), true)
}

func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Application data validation failed",
		details, false)
}

func NewApplicationNotFoundError(key string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found",
		fmt.Sprintf("key: %s", key), false)
}

func NewInvalidStatusTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatusTransition, "Status change not allowed",
		fmt.Sprintf("from: %s, to: %s", from, to), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error",
		err.Error(), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed",
		err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewStatusUpdateFailedError(applicationID string, err error) *StandardError {
	return newError(ErrCodeStatusUpdateFailed, "Application status update failed",
		fmt.Sprintf("applicationId: %s, error: %s", applicationID, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewReviewStartFailedError(err error) *StandardError {
	return newError(ErrCodeReviewStartFailed, "Review process could not be started",
		err.Error(), true)
}

func NewConfigMissingError(keys ...string) *StandardError {
	return newError(ErrCodeConfigMissing, "Required configuration is missing",
		strings.Join(keys, ", "), false)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Malformed request", details, false)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeApplicationValidationFailed: "APPLICATION_VALIDATION_FAILED",
	ErrCodeApplicationNotFound:         "APPLICATION_NOT_FOUND",
	ErrCodeInvalidStatusTransition:     "INVALID_STATUS_TRANSITION",
	ErrCodeDocumentVerificationFailed:  "DOCUMENT_VERIFICATION_FAILED",
	ErrCodeDatabaseConnectionFailed:    "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:        "DATABASE_INSERT_FAILED",
	ErrCodeQueryExecutionFailed:        "QUERY_EXECUTION_FAILED",
	ErrCodeStatusUpdateFailed:          "STATUS_UPDATE_FAILED",
	ErrCodeNotificationSendFailed:      "NOTIFICATION_SEND_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeStatusUpdateFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeDocumentVerificationFailed,
		ErrCodeReviewStartFailed:
		return 2

	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "STEP") || strings.Contains(codeStr, "FIELD") || strings.Contains(codeStr, "SUBMITTED"):
		return "WIZARD"
	case strings.Contains(codeStr, "ATTACHMENT") || strings.Contains(codeStr, "DOCUMENT"):
		return "DOCUMENT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "STATUS_UPDATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "REVIEW") || strings.Contains(codeStr, "CONFIG"):
		return "INTEGRATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// AsStandard returns err as a *StandardError, wrapping unknown errors as internal.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

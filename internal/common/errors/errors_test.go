package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err    *StandardError
		status int
	}{
		{NewInvalidRequestError("unexpected EOF"), http.StatusBadRequest},
		{NewSessionNotFoundError("s-1"), http.StatusNotFound},
		{NewApplicationNotFoundError("F2024010001"), http.StatusNotFound},
		{NewStepIncompleteError(1, []string{"applicantName"}), http.StatusConflict},
		{NewAttachmentRejectedError([]string{"too big"}), http.StatusUnprocessableEntity},
		{NewApplicationValidationFailedError("missing vesselName"), http.StatusUnprocessableEntity},
		{NewDatabaseInsertFailedError(New("boom")), http.StatusBadGateway},
		{NewConfigMissingError("DATABASE_POSTGRES_HOST"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewStatusUpdateFailedError("app-1", New("connection reset"))
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "STATUS_UPDATE_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "STATUS_UPDATE_FAILED", vars["errorCode"])
	assert.Equal(t, "STATUS_UPDATE_FAILED", vars["originalErrorCode"])
}

func TestConvertToBPMNError_BusinessErrorNoRetry(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewInvalidStatusTransitionError("approved", "pending"))

	assert.Equal(t, 0, bpmnErr.Retries)
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidStatusTransition))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "WIZARD", GetErrorCategory(ErrCodeStepIncomplete))
	assert.Equal(t, "DOCUMENT", GetErrorCategory(ErrCodeAttachmentRejected))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeStatusUpdateFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeApplicationNotFound))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestAsStandard(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NewApplicationNotFoundError("x"))
	stdErr := AsStandard(wrapped)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeApplicationNotFound, stdErr.Code)

	plain := AsStandard(New("whatever"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "whatever", plain.Details)
}

func TestStepIncompleteMetadata(t *testing.T) {
	err := NewStepIncompleteError(2, []string{"vesselName", "vesselTonnage"})
	assert.Equal(t, []string{"vesselName", "vesselTonnage"}, err.Metadata["missingFields"])
	assert.Contains(t, err.Details, "step: 2")
}

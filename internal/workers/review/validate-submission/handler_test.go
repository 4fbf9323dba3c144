// internal/workers/review/validate-submission/handler_test.go
package validatesubmission

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"
	"fishery-permit/internal/store/storetest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var submittedAt = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

func storedApplication() *models.FisheryApplication {
	return &models.FisheryApplication{
		ID:                "app-1",
		ApplicationNumber: "F2025060001",
		ApplicantName:     "박용환",
		ApplicantPhone:    "010-7939-3123",
		FisheryType:       models.FisheryCoastal,
		VesselName:        "희망찬바다호",
		VesselTonnage:     decimal.RequireFromString("8.5"),
		FishingArea:       "부산 연안",
		Status:            models.StatusPending,
		Documents: []models.Document{
			{ID: "d1", Name: "어선검사증서.pdf", Type: models.DocVesselInspection, SizeBytes: 2202009, Status: models.DocumentReceived},
		},
		SubmittedAt: submittedAt,
		CreatedAt:   submittedAt,
		UpdatedAt:   submittedAt,
	}
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), db, &testLogger{t: t})
	h.now = func() time.Time { return submittedAt.Add(time.Minute) }
	return h, mock
}

var selectByID = regexp.QuoteMeta("FROM fishery_applications")

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ValidSubmission(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.ExpectQuery(selectByID).WithArgs("app-1").WillReturnRows(storetest.Rows(storedApplication()))

	output, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1"})

	require.NoError(t, err)
	assert.True(t, output.SubmissionValid)
	assert.Empty(t, output.ValidationErrors)
	assert.Equal(t, "F2025060001", output.ApplicationNumber)
	assert.Equal(t, "2025-06-01T09:31:00Z", output.ValidatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InvalidStoredPayload(t *testing.T) {
	h, mock := newTestHandler(t)
	app := storedApplication()
	app.ApplicantPhone = "02-123-4567"
	app.VesselTonnage = decimal.Zero
	mock.ExpectQuery(selectByID).WithArgs("app-1").WillReturnRows(storetest.Rows(app))

	output, err := h.Execute(context.Background(), &Input{ApplicationID: "app-1"})

	require.NoError(t, err)
	assert.False(t, output.SubmissionValid)
	assert.Len(t, output.ValidationErrors, 2)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   *Input
		setup   func(mock sqlmock.Sqlmock)
		errCode errors.ErrorCode
	}{
		{
			name:    "missing application id",
			input:   &Input{},
			setup:   func(sqlmock.Sqlmock) {},
			errCode: errors.ErrCodeApplicationValidationFailed,
		},
		{
			name:  "application not found",
			input: &Input{ApplicationID: "missing"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectByID).WithArgs("missing").WillReturnRows(sqlmock.NewRows(storetest.Columns))
			},
			errCode: errors.ErrCodeApplicationNotFound,
		},
		{
			name:  "database failure",
			input: &Input{ApplicationID: "app-1"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectByID).WillReturnError(fmt.Errorf("connection reset by peer"))
			},
			errCode: errors.ErrCodeQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock := newTestHandler(t)
			tt.setup(mock)

			_, err := h.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Equal(t, tt.errCode, errors.AsStandard(err).Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

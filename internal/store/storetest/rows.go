// Package storetest builds sqlmock rows shaped like the fishery_applications table.
package storetest

import (
	"database/sql/driver"
	"encoding/json"

	"fishery-permit/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var Columns = []string{
	"id", "application_number", "applicant_name", "applicant_phone", "applicant_email",
	"fishery_type", "vessel_name", "vessel_tonnage", "fishing_area", "status", "risk_level",
	"estimated_hours", "documents", "submitted_at", "expected_completion_date", "completed_at",
	"notes", "created_at", "updated_at",
}

// Rows returns one row per application.
func Rows(apps ...*models.FisheryApplication) *sqlmock.Rows {
	rows := sqlmock.NewRows(Columns)
	for _, app := range apps {
		rows.AddRow(Values(app)...)
	}
	return rows
}

// Values lists an application's column values in table order.
func Values(app *models.FisheryApplication) []driver.Value {
	docs := app.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	encoded, _ := json.Marshal(docs)

	var email, risk, hours, expected, completed, notes driver.Value
	if app.ApplicantEmail != nil {
		email = *app.ApplicantEmail
	}
	if app.RiskLevel != nil {
		risk = string(*app.RiskLevel)
	}
	if app.EstimatedHours != nil {
		hours = int64(*app.EstimatedHours)
	}
	if app.ExpectedCompletionDate != nil {
		expected = *app.ExpectedCompletionDate
	}
	if app.CompletedAt != nil {
		completed = *app.CompletedAt
	}
	if app.Notes != nil {
		notes = *app.Notes
	}

	return []driver.Value{
		app.ID, app.ApplicationNumber, app.ApplicantName, app.ApplicantPhone, email,
		string(app.FisheryType), app.VesselName, app.VesselTonnage.String(), app.FishingArea,
		string(app.Status), risk, hours, encoded, app.SubmittedAt, expected, completed,
		notes, app.CreatedAt, app.UpdatedAt,
	}
}

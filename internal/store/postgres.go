package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/models"
)

const applicationColumns = `id, application_number, applicant_name, applicant_phone, applicant_email,
	fishery_type, vessel_name, vessel_tonnage, fishing_area, status, risk_level, estimated_hours,
	documents, submitted_at, expected_completion_date, completed_at, notes, created_at, updated_at`

var channelPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SchemaSQL returns the DDL for the applications table and the trigger that
// publishes every insert, update and delete on notifyChannel.
func SchemaSQL(notifyChannel string) (string, error) {
	if !channelPattern.MatchString(notifyChannel) {
		return "", fmt.Errorf("invalid notify channel %q", notifyChannel)
	}
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS fishery_applications (
	id                       TEXT PRIMARY KEY,
	application_number       TEXT NOT NULL UNIQUE,
	applicant_name           TEXT NOT NULL,
	applicant_phone          TEXT NOT NULL,
	applicant_email          TEXT,
	fishery_type             TEXT NOT NULL CHECK (fishery_type IN ('coastal', 'offshore', 'demarcated', 'distant_water')),
	vessel_name              TEXT NOT NULL,
	vessel_tonnage           NUMERIC(10, 2) NOT NULL,
	fishing_area             TEXT NOT NULL,
	status                   TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'document_review', 'ai_processing', 'manual_review', 'approved', 'rejected', 'completed')),
	risk_level               TEXT CHECK (risk_level IN ('low', 'medium', 'high')),
	estimated_hours          INTEGER,
	documents                JSONB NOT NULL DEFAULT '[]',
	submitted_at             TIMESTAMPTZ NOT NULL,
	expected_completion_date TIMESTAMPTZ,
	completed_at             TIMESTAMPTZ,
	notes                    TEXT,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_fishery_applications_submitted_at ON fishery_applications (submitted_at DESC);

CREATE OR REPLACE FUNCTION notify_fishery_applications_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%[1]s', json_build_object(
		'op', TG_OP,
		'id', COALESCE(NEW.id, OLD.id),
		'at', now()
	)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS fishery_applications_changed ON fishery_applications;
CREATE TRIGGER fishery_applications_changed
	AFTER INSERT OR UPDATE OR DELETE ON fishery_applications
	FOR EACH ROW EXECUTE FUNCTION notify_fishery_applications_changed();
`, notifyChannel), nil
}

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Migrate creates the schema if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context, notifyChannel string) error {
	schema, err := SchemaSQL(notifyChannel)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return errors.NewQueryExecutionFailedError("migrate", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, app *models.FisheryApplication) error {
	documents, err := json.Marshal(nonNilDocuments(app.Documents))
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("marshal documents: %w", err))
	}

	var riskLevel *string
	if app.RiskLevel != nil {
		level := string(*app.RiskLevel)
		riskLevel = &level
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO fishery_applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		app.ID,
		app.ApplicationNumber,
		app.ApplicantName,
		app.ApplicantPhone,
		app.ApplicantEmail,
		string(app.FisheryType),
		app.VesselName,
		app.VesselTonnage,
		app.FishingArea,
		string(app.Status),
		riskLevel,
		app.EstimatedHours,
		documents,
		app.SubmittedAt,
		app.ExpectedCompletionDate,
		app.CompletedAt,
		app.Notes,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.FisheryApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM fishery_applications
		ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list", err)
	}
	defer rows.Close()

	apps := []models.FisheryApplication{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list", err)
	}
	return apps, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.FisheryApplication, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) GetByNumber(ctx context.Context, number string) (*models.FisheryApplication, error) {
	return r.getBy(ctx, "application_number", number)
}

// column is one of two constants above, never caller input.
func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*models.FisheryApplication, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM fishery_applications
		WHERE `+column+` = $1`, value)

	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewApplicationNotFoundError(value)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get", err)
	}
	return app, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.FisheryApplication, error) {
	now := r.now().UTC()
	row := r.db.QueryRowContext(ctx, `
		UPDATE fishery_applications
		SET status = $2,
			updated_at = $3,
			completed_at = CASE WHEN $2::text = 'completed' THEN $3 ELSE completed_at END
		WHERE id = $1
		RETURNING `+applicationColumns,
		id, string(status), now)

	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewStatusUpdateFailedError(id, err)
	}
	return app, nil
}

func (r *PostgresRepository) UpdateDocuments(ctx context.Context, id string, docs []models.Document) error {
	documents, err := json.Marshal(nonNilDocuments(docs))
	if err != nil {
		return errors.NewStatusUpdateFailedError(id, err)
	}
	return r.execUpdate(ctx, id, `
		UPDATE fishery_applications
		SET documents = $2, updated_at = $3
		WHERE id = $1`, id, documents, r.now().UTC())
}

func (r *PostgresRepository) SetRiskLevel(ctx context.Context, id string, level models.RiskLevel, notes string) error {
	var notesArg *string
	if notes != "" {
		notesArg = &notes
	}
	return r.execUpdate(ctx, id, `
		UPDATE fishery_applications
		SET risk_level = $2, notes = COALESCE($3, notes), updated_at = $4
		WHERE id = $1`, id, string(level), notesArg, r.now().UTC())
}

func (r *PostgresRepository) execUpdate(ctx context.Context, id, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewStatusUpdateFailedError(id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStatusUpdateFailedError(id, err)
	}
	if affected == 0 {
		return errors.NewApplicationNotFoundError(id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.FisheryApplication, error) {
	var (
		app            models.FisheryApplication
		email          sql.NullString
		riskLevel      sql.NullString
		estimatedHours sql.NullInt64
		documents      []byte
		expected       sql.NullTime
		completed      sql.NullTime
		notes          sql.NullString
		fisheryType    string
		status         string
	)

	err := row.Scan(
		&app.ID,
		&app.ApplicationNumber,
		&app.ApplicantName,
		&app.ApplicantPhone,
		&email,
		&fisheryType,
		&app.VesselName,
		&app.VesselTonnage,
		&app.FishingArea,
		&status,
		&riskLevel,
		&estimatedHours,
		&documents,
		&app.SubmittedAt,
		&expected,
		&completed,
		&notes,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.FisheryType = models.FisheryType(fisheryType)
	app.Status = models.ApplicationStatus(status)
	if email.Valid {
		app.ApplicantEmail = &email.String
	}
	if riskLevel.Valid {
		level := models.RiskLevel(riskLevel.String)
		app.RiskLevel = &level
	}
	if estimatedHours.Valid {
		hours := int(estimatedHours.Int64)
		app.EstimatedHours = &hours
	}
	if expected.Valid {
		app.ExpectedCompletionDate = &expected.Time
	}
	if completed.Valid {
		app.CompletedAt = &completed.Time
	}
	if notes.Valid {
		app.Notes = &notes.String
	}

	app.Documents = []models.Document{}
	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &app.Documents); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
	}
	return &app, nil
}

func nonNilDocuments(docs []models.Document) []models.Document {
	if docs == nil {
		return []models.Document{}
	}
	return docs
}

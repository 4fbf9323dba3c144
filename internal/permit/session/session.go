// Package session binds the wizard, form, validator, feed and attachments of
// one applicant together and turns a finished form into a stored application.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/common/metrics"
	"fishery-permit/internal/common/validation"
	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/attachments"
	"fishery-permit/internal/permit/estimate"
	"fishery-permit/internal/permit/feed"
	"fishery-permit/internal/permit/fieldcheck"
	"fishery-permit/internal/permit/form"
	"fishery-permit/internal/permit/wizard"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository persists submitted applications.
type Repository interface {
	Create(ctx context.Context, app *models.FisheryApplication) error
}

// Launcher starts the back-office review of a stored application.
type Launcher interface {
	Start(ctx context.Context, app *models.FisheryApplication) (int64, error)
}

// DemoData supplies the sample values used by FillDemo.
type DemoData interface {
	Form() map[form.Field]string
	Files() []attachments.FileMeta
}

type Options struct {
	Steps                 []wizard.Step
	StrictAdvance         bool
	Debounce              time.Duration
	ValidationDelay       time.Duration
	FeedCapacity          int
	RecentRecommendations int
	Limits                attachments.Limits
	Verifier              attachments.Verifier
	NumberGenerator       NumberGenerator
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = fieldcheck.DefaultDebounce
	}
	if o.ValidationDelay <= 0 {
		o.ValidationDelay = fieldcheck.DefaultLatency
	}
	if o.FeedCapacity <= 0 {
		o.FeedCapacity = feed.DefaultCapacity
	}
	if o.RecentRecommendations <= 0 {
		o.RecentRecommendations = 3
	}
	if o.Verifier == nil {
		o.Verifier = attachments.NewMetadataVerifier(o.Limits, 0)
	}
	if o.NumberGenerator == nil {
		o.NumberGenerator = RandomNumber
	}
	return o
}

// submissionRequired are the fields every stored application must carry.
var submissionRequired = []form.Field{
	form.ApplicantName, form.ApplicantPhone,
	form.VesselName, form.VesselTonnage,
	form.FisheryType, form.FishingArea,
}

type Session struct {
	ID        string
	CreatedAt time.Time

	opts      Options
	form      *form.State
	wizard    *wizard.Controller
	validator *fieldcheck.Validator
	feed      *feed.Feed
	files     *attachments.Registry
	repo      Repository
	launcher  Launcher
	demo      DemoData
	logger    logger.Logger
	now       func() time.Time

	submitMu sync.Mutex
	// fieldMu orders a field write with its validation and estimate.
	fieldMu sync.Mutex

	mu         sync.Mutex
	estimate   *int
	lastActive time.Time
	submitted  *models.FisheryApplication
}

type deps struct {
	repo     Repository
	launcher Launcher
	demo     DemoData
	logger   logger.Logger
	now      func() time.Time
}

func newSession(opts Options, d deps) *Session {
	opts = opts.withDefaults()
	id := uuid.New().String()
	now := d.now()

	s := &Session{
		ID:         id,
		CreatedAt:  now,
		opts:       opts,
		form:       form.NewState(),
		feed:       feed.New(opts.FeedCapacity),
		repo:       d.repo,
		launcher:   d.launcher,
		demo:       d.demo,
		logger:     d.logger.WithFields(map[string]interface{}{"sessionId": id}),
		now:        d.now,
		lastActive: now,
	}

	s.files = attachments.NewRegistry(opts.Limits, s.feed)
	delay := opts.ValidationDelay
	s.validator = fieldcheck.NewValidator(s.feed, s.logger,
		fieldcheck.WithDebounce(opts.Debounce),
		fieldcheck.WithLatency(func(form.Field, string) time.Duration { return delay }),
	)

	var guard wizard.Guard = wizard.AlwaysAllow
	if opts.StrictAdvance {
		guard = wizard.RequiredFieldsGuard(s)
	}
	s.wizard = wizard.NewController(opts.Steps, guard)
	return s
}

// Value implements wizard.FieldLookup.
func (s *Session) Value(field form.Field) string {
	return strings.TrimSpace(s.form.Get(field))
}

// Invalid implements wizard.FieldLookup.
func (s *Session) Invalid(field form.Field) bool {
	return s.validator.Invalid(field)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// LastActive is the time of the most recent call that changed the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// UpdateField stores value and schedules its validation.
func (s *Session) UpdateField(name, value string) error {
	field, err := form.ParseField(name)
	if err != nil {
		return err
	}
	s.touch()

	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()
	s.form.Set(field, value)
	s.validator.Submit(field, value)
	if field == form.FisheryType || field == form.VesselTonnage {
		s.recomputeEstimate()
	}
	return nil
}

// recomputeEstimate runs only when both inputs are present; otherwise the
// previous estimate stays.
func (s *Session) recomputeEstimate() {
	fisheryType := s.Value(form.FisheryType)
	tonnage := s.Value(form.VesselTonnage)
	if fisheryType == "" || tonnage == "" {
		return
	}

	hours := estimate.Hours(fisheryType, tonnage)
	s.mu.Lock()
	s.estimate = hours
	s.mu.Unlock()
}

// Estimate returns the processing time estimate in hours, or nil.
func (s *Session) Estimate() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.estimate == nil {
		return nil
	}
	h := *s.estimate
	return &h
}

func (s *Session) Advance() error {
	s.touch()
	return s.wizard.Advance()
}

func (s *Session) Retreat() {
	s.touch()
	s.wizard.Retreat()
}

// FillDemo replaces every field with the demo values and validates them at once.
func (s *Session) FillDemo() error {
	if s.demo == nil {
		return errors.NewConfigMissingError("demo fixtures")
	}
	s.touch()

	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()
	values := s.demo.Form()
	for _, field := range form.Fields() {
		value, ok := values[field]
		if !ok {
			continue
		}
		s.form.Set(field, value)
		s.validator.Flush(field, value)
	}
	s.recomputeEstimate()

	s.feed.Append(feed.Recommendation{
		Type:    feed.KindSuccess,
		Title:   "데모 데이터 자동 입력",
		Message: "AI가 예시 데이터로 모든 필드를 자동 입력했습니다.",
	})
	return nil
}

// AttachDemoFiles registers the demo documents when none have been added yet.
func (s *Session) AttachDemoFiles() error {
	if s.demo == nil || s.files.Len() > 0 {
		return nil
	}
	_, err := s.files.Add(s.demo.Files())
	return err
}

func (s *Session) AddFiles(batch []attachments.FileMeta) ([]models.Document, error) {
	s.touch()
	docs, err := s.files.Add(batch)
	if err != nil {
		s.logger.Warn("attachment batch rejected", map[string]interface{}{
			"files": len(batch),
			"error": err.Error(),
		})
		return nil, err
	}
	return docs, nil
}

func (s *Session) VerifyFiles(ctx context.Context) ([]models.Document, error) {
	s.touch()
	return s.files.Verify(ctx, s.opts.Verifier)
}

// View is a consistent picture of the session for presentation.
type View struct {
	ID              string                     `json:"id"`
	CurrentStep     int                        `json:"currentStep"`
	Steps           []wizard.Step              `json:"steps"`
	Form            map[form.Field]string      `json:"form"`
	Validation      []fieldcheck.Result        `json:"validation"`
	EstimatedHours  *int                       `json:"estimatedHours"`
	Recommendations []feed.Recommendation      `json:"recommendations"`
	Files           []models.Document          `json:"files"`
	Submitted       *models.FisheryApplication `json:"submitted,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	submitted := s.submitted
	s.mu.Unlock()

	return View{
		ID:              s.ID,
		CurrentStep:     s.wizard.Current(),
		Steps:           s.wizard.Steps(),
		Form:            s.form.Snapshot(),
		Validation:      s.validator.Results(),
		EstimatedHours:  s.Estimate(),
		Recommendations: s.feed.Latest(s.opts.RecentRecommendations),
		Files:           s.files.Files(),
		Submitted:       submitted,
	}
}

// Submit validates the form, stores the application and, when a launcher is
// configured, starts its review. A failed launch is reported in the feed but
// does not undo the stored application.
func (s *Session) Submit(ctx context.Context) (*models.FisheryApplication, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.mu.Lock()
	if s.submitted != nil {
		number := s.submitted.ApplicationNumber
		s.mu.Unlock()
		return nil, errors.NewAlreadySubmittedError(s.ID, number)
	}
	s.mu.Unlock()
	s.touch()

	values := s.form.Snapshot()
	fisheryType := strings.TrimSpace(values[form.FisheryType])

	if err := s.checkFields(values); err != nil {
		metrics.Submissions.WithLabelValues(fisheryType, "invalid").Inc()
		return nil, err
	}

	app, err := s.buildApplication(values)
	if err != nil {
		metrics.Submissions.WithLabelValues(fisheryType, "invalid").Inc()
		return nil, err
	}

	if err := s.checkSchema(app); err != nil {
		metrics.Submissions.WithLabelValues(fisheryType, "invalid").Inc()
		return nil, err
	}

	if err := s.repo.Create(ctx, app); err != nil {
		metrics.Submissions.WithLabelValues(fisheryType, "failed").Inc()
		s.logger.Error("failed to store application", map[string]interface{}{
			"applicationNumber": app.ApplicationNumber,
			"error":             err.Error(),
		})
		return nil, err
	}

	s.mu.Lock()
	s.submitted = app
	s.mu.Unlock()
	metrics.Submissions.WithLabelValues(fisheryType, "stored").Inc()

	s.logger.Info("application submitted", map[string]interface{}{
		"applicationId":     app.ID,
		"applicationNumber": app.ApplicationNumber,
		"fisheryType":       app.FisheryType,
	})

	s.feed.Append(feed.Recommendation{
		Type:    feed.KindSuccess,
		Title:   "신청 접수 완료",
		Message: fmt.Sprintf("신청번호 %s로 접수되었습니다.", app.ApplicationNumber),
	})

	if s.launcher != nil {
		if key, err := s.launcher.Start(ctx, app); err != nil {
			s.logger.Warn("review process not started", map[string]interface{}{
				"applicationNumber": app.ApplicationNumber,
				"error":             err.Error(),
			})
			s.feed.Append(feed.Recommendation{
				Type:    feed.KindWarning,
				Title:   "심사 대기",
				Message: "AI 심사 시작이 지연되고 있습니다. 담당자가 곧 확인합니다.",
			})
		} else {
			s.logger.Info("review process started", map[string]interface{}{
				"applicationNumber":  app.ApplicationNumber,
				"processInstanceKey": key,
			})
		}
	}
	return app, nil
}

// checkFields re-runs the field rules synchronously so a pending debounced
// check cannot let an invalid value through.
func (s *Session) checkFields(values map[form.Field]string) error {
	var problems []string
	for _, field := range submissionRequired {
		value := strings.TrimSpace(values[field])
		if value == "" {
			problems = append(problems, fmt.Sprintf("%s: required", field))
			continue
		}
		if out := fieldcheck.Check(field, value); out.Result.Status == fieldcheck.StatusInvalid {
			problems = append(problems, fmt.Sprintf("%s: %s", field, out.Result.Message))
		}
	}
	if email := strings.TrimSpace(values[form.ApplicantEmail]); email != "" {
		if out := fieldcheck.Check(form.ApplicantEmail, email); out.Result.Status == fieldcheck.StatusInvalid {
			problems = append(problems, fmt.Sprintf("%s: %s", form.ApplicantEmail, out.Result.Message))
		}
	}
	if len(problems) > 0 {
		return errors.NewApplicationValidationFailedError(strings.Join(problems, "; ")).
			WithMetadata("problems", problems)
	}
	return nil
}

func (s *Session) buildApplication(values map[form.Field]string) (*models.FisheryApplication, error) {
	tonnage, err := decimal.NewFromString(strings.TrimSpace(values[form.VesselTonnage]))
	if err != nil {
		return nil, errors.NewApplicationValidationFailedError(fmt.Sprintf("vesselTonnage: %v", err))
	}

	now := s.now().UTC()
	app := &models.FisheryApplication{
		ID:                uuid.New().String(),
		ApplicationNumber: s.opts.NumberGenerator(now),
		ApplicantName:     strings.TrimSpace(values[form.ApplicantName]),
		ApplicantPhone:    strings.TrimSpace(values[form.ApplicantPhone]),
		FisheryType:       models.FisheryType(strings.TrimSpace(values[form.FisheryType])),
		VesselName:        strings.TrimSpace(values[form.VesselName]),
		VesselTonnage:     tonnage,
		FishingArea:       strings.TrimSpace(values[form.FishingArea]),
		Status:            models.StatusPending,
		Documents:         s.files.Files(),
		SubmittedAt:       now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if email := strings.TrimSpace(values[form.ApplicantEmail]); email != "" {
		app.ApplicantEmail = &email
	}
	if hours := estimate.Hours(values[form.FisheryType], values[form.VesselTonnage]); hours != nil {
		app.EstimatedHours = hours
		expected := now.Add(time.Duration(*hours) * time.Hour)
		app.ExpectedCompletionDate = &expected
	}
	return app, nil
}

func (s *Session) checkSchema(app *models.FisheryApplication) error {
	result, err := validation.ValidateApplication(app)
	if err != nil {
		return errors.NewApplicationValidationFailedError(err.Error())
	}
	if !result.Valid {
		messages := result.GetErrorMessages()
		return errors.NewApplicationValidationFailedError(strings.Join(messages, "; ")).
			WithMetadata("problems", messages)
	}
	return nil
}

// Close stops pending validations. The session must not be used afterwards.
func (s *Session) Close() {
	s.validator.Close()
}

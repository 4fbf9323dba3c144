package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/models"
)

// MemoryRepository is the store used in mock mode. It announces every change
// on its Broadcaster so live views behave as they do against PostgreSQL.
type MemoryRepository struct {
	mu   sync.RWMutex
	apps map[string]*models.FisheryApplication
	now  func() time.Time

	changes *Broadcaster
}

func NewMemoryRepository(fixtures FixtureProvider) *MemoryRepository {
	r := &MemoryRepository{
		apps:    make(map[string]*models.FisheryApplication),
		now:     time.Now,
		changes: NewBroadcaster(),
	}
	if fixtures != nil {
		seed := fixtures.Applications()
		for i := range seed {
			r.apps[seed[i].ID] = cloneApplication(&seed[i])
		}
	}
	return r
}

// Changes is the watcher fed by this repository's writes.
func (r *MemoryRepository) Changes() *Broadcaster {
	return r.changes
}

func (r *MemoryRepository) Create(ctx context.Context, app *models.FisheryApplication) error {
	r.mu.Lock()
	for _, existing := range r.apps {
		if existing.ID == app.ID || existing.ApplicationNumber == app.ApplicationNumber {
			r.mu.Unlock()
			return errors.NewDatabaseInsertFailedError(errors.New("duplicate application " + app.ApplicationNumber))
		}
	}
	r.apps[app.ID] = cloneApplication(app)
	r.mu.Unlock()

	r.changes.Publish(Change{Op: OpInsert, ID: app.ID, At: r.now().UTC()})
	return nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.FisheryApplication, error) {
	r.mu.RLock()
	out := make([]models.FisheryApplication, 0, len(r.apps))
	for _, app := range r.apps {
		out = append(out, *cloneApplication(app))
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.FisheryApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return nil, errors.NewApplicationNotFoundError(id)
	}
	return cloneApplication(app), nil
}

func (r *MemoryRepository) GetByNumber(ctx context.Context, number string) (*models.FisheryApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, app := range r.apps {
		if app.ApplicationNumber == number {
			return cloneApplication(app), nil
		}
	}
	return nil, errors.NewApplicationNotFoundError(number)
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.FisheryApplication, error) {
	var updated *models.FisheryApplication
	err := r.update(id, func(app *models.FisheryApplication, now time.Time) {
		app.Status = status
		if status == models.StatusCompleted {
			app.CompletedAt = &now
		}
		updated = cloneApplication(app)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *MemoryRepository) UpdateDocuments(ctx context.Context, id string, docs []models.Document) error {
	return r.update(id, func(app *models.FisheryApplication, _ time.Time) {
		app.Documents = cloneDocuments(docs)
	})
}

func (r *MemoryRepository) SetRiskLevel(ctx context.Context, id string, level models.RiskLevel, notes string) error {
	return r.update(id, func(app *models.FisheryApplication, _ time.Time) {
		app.RiskLevel = &level
		if notes != "" {
			app.Notes = &notes
		}
	})
}

func (r *MemoryRepository) update(id string, apply func(app *models.FisheryApplication, now time.Time)) error {
	now := r.now().UTC()

	r.mu.Lock()
	app, ok := r.apps[id]
	if !ok {
		r.mu.Unlock()
		return errors.NewApplicationNotFoundError(id)
	}
	app.UpdatedAt = now
	apply(app, now)
	r.mu.Unlock()

	r.changes.Publish(Change{Op: OpUpdate, ID: id, At: now})
	return nil
}

func cloneApplication(app *models.FisheryApplication) *models.FisheryApplication {
	c := *app
	c.Documents = cloneDocuments(app.Documents)
	if app.ApplicantEmail != nil {
		v := *app.ApplicantEmail
		c.ApplicantEmail = &v
	}
	if app.RiskLevel != nil {
		v := *app.RiskLevel
		c.RiskLevel = &v
	}
	if app.EstimatedHours != nil {
		v := *app.EstimatedHours
		c.EstimatedHours = &v
	}
	if app.ExpectedCompletionDate != nil {
		v := *app.ExpectedCompletionDate
		c.ExpectedCompletionDate = &v
	}
	if app.CompletedAt != nil {
		v := *app.CompletedAt
		c.CompletedAt = &v
	}
	if app.Notes != nil {
		v := *app.Notes
		c.Notes = &v
	}
	return &c
}

func cloneDocuments(docs []models.Document) []models.Document {
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		d.Issues = append([]string(nil), d.Issues...)
		out[i] = d
	}
	return out
}

// Package store persists submitted fishery permit applications.
package store

import (
	"context"
	"time"

	"fishery-permit/internal/models"
)

// Repository is the application store. Writes are last-write-wins; there is
// no optimistic concurrency.
type Repository interface {
	Create(ctx context.Context, app *models.FisheryApplication) error
	// List returns every application, most recently submitted first.
	List(ctx context.Context) ([]models.FisheryApplication, error)
	Get(ctx context.Context, id string) (*models.FisheryApplication, error)
	GetByNumber(ctx context.Context, number string) (*models.FisheryApplication, error)
	// UpdateStatus sets status and updated_at, and completed_at when the
	// status is completed. It returns the updated record.
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.FisheryApplication, error)
	UpdateDocuments(ctx context.Context, id string, docs []models.Document) error
	SetRiskLevel(ctx context.Context, id string, level models.RiskLevel, notes string) error
}

// FixtureProvider seeds a MemoryRepository.
type FixtureProvider interface {
	Applications() []models.FisheryApplication
}

// Change is the signal emitted when the applications table changes. It carries
// no data beyond what changed; consumers re-fetch.
type Change struct {
	Op string    `json:"op"`
	ID string    `json:"id,omitempty"`
	At time.Time `json:"at"`
}

const (
	OpInsert    = "INSERT"
	OpUpdate    = "UPDATE"
	OpDelete    = "DELETE"
	OpReconnect = "RECONNECT"
)

// Watcher delivers change signals until ctx is done.
type Watcher interface {
	Watch(ctx context.Context) <-chan Change
}

// Streamer delivers every change in order, for consumers that act per row.
type Streamer interface {
	Stream(ctx context.Context) <-chan Change
}

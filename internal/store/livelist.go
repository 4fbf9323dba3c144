package store

import (
	"context"
	"sync"
	"time"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"
)

type refreshFunc func(apps []models.FisheryApplication, cause Change)

// LiveList keeps the full application list current by re-fetching it on every
// change signal. There is no incremental merge.
type LiveList struct {
	repo    Repository
	watcher Watcher
	logger  logger.Logger

	mu        sync.RWMutex
	apps      []models.FisheryApplication
	fetchedAt time.Time
	loaded    bool

	listenersMu sync.Mutex
	listeners   []refreshFunc
}

func NewLiveList(repo Repository, watcher Watcher, log logger.Logger) *LiveList {
	return &LiveList{
		repo:    repo,
		watcher: watcher,
		logger:  log.WithFields(map[string]interface{}{"component": "live-list"}),
	}
}

// OnRefresh registers fn to be called after every successful re-fetch caused
// by a change.
func (l *LiveList) OnRefresh(fn func(apps []models.FisheryApplication, cause Change)) {
	l.listenersMu.Lock()
	l.listeners = append(l.listeners, fn)
	l.listenersMu.Unlock()
}

// Run loads the list once and then re-fetches on every signal until ctx is
// done. The subscription is opened before the first load so no change is missed.
func (l *LiveList) Run(ctx context.Context) {
	changes := l.watcher.Watch(ctx)

	if err := l.Refresh(ctx); err != nil {
		l.logger.Warn("initial application load failed", map[string]interface{}{"error": err.Error()})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := l.Refresh(ctx); err != nil {
				l.logger.Warn("application refresh failed", map[string]interface{}{
					"op":    c.Op,
					"error": err.Error(),
				})
				continue
			}
			l.notify(c)
		}
	}
}

// Refresh replaces the cached list with a fresh copy from the repository.
func (l *LiveList) Refresh(ctx context.Context) error {
	apps, err := l.repo.List(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.apps = apps
	l.fetchedAt = time.Now().UTC()
	l.loaded = true
	l.mu.Unlock()
	return nil
}

func (l *LiveList) notify(c Change) {
	apps, _ := l.Snapshot()

	l.listenersMu.Lock()
	listeners := append([]refreshFunc(nil), l.listeners...)
	l.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(apps, c)
	}
}

// Snapshot returns a copy of the current list and whether it has been loaded.
func (l *LiveList) Snapshot() ([]models.FisheryApplication, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.FisheryApplication, len(l.apps))
	copy(out, l.apps)
	return out, l.loaded
}

func (l *LiveList) FetchedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fetchedAt
}

package store

import (
	"context"
	"encoding/json"
	"time"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyByID     = "fishery:application:id:"
	cacheKeyByNumber = "fishery:application:number:"

	DefaultCacheTTL = 5 * time.Minute
)

// CachedRepository serves single-application lookups from Redis and falls back
// to the wrapped repository on a miss or a cache error. Writes go straight to
// the repository and evict the affected keys.
type CachedRepository struct {
	Repository
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRepository(repo Repository, client redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		Repository: repo,
		client:     client,
		ttl:        ttl,
		logger:     log.WithFields(map[string]interface{}{"component": "application-cache"}),
	}
}

func (c *CachedRepository) Get(ctx context.Context, id string) (*models.FisheryApplication, error) {
	return c.cached(ctx, cacheKeyByID+id, func() (*models.FisheryApplication, error) {
		return c.Repository.Get(ctx, id)
	})
}

func (c *CachedRepository) GetByNumber(ctx context.Context, number string) (*models.FisheryApplication, error) {
	return c.cached(ctx, cacheKeyByNumber+number, func() (*models.FisheryApplication, error) {
		return c.Repository.GetByNumber(ctx, number)
	})
}

func (c *CachedRepository) cached(ctx context.Context, key string, load func() (*models.FisheryApplication, error)) (*models.FisheryApplication, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var app models.FisheryApplication
		if err := json.Unmarshal(raw, &app); err == nil {
			return &app, nil
		}
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
	case err != redis.Nil:
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	app, err := load()
	if err != nil {
		return nil, err
	}
	c.store(ctx, app)
	return app, nil
}

func (c *CachedRepository) store(ctx context.Context, app *models.FisheryApplication) {
	payload, err := json.Marshal(app)
	if err != nil {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, cacheKeyByID+app.ID, payload, c.ttl)
	pipe.Set(ctx, cacheKeyByNumber+app.ApplicationNumber, payload, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}
}

func (c *CachedRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.FisheryApplication, error) {
	app, err := c.Repository.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, app.ID, app.ApplicationNumber)
	return app, nil
}

func (c *CachedRepository) UpdateDocuments(ctx context.Context, id string, docs []models.Document) error {
	if err := c.Repository.UpdateDocuments(ctx, id, docs); err != nil {
		return err
	}
	c.evictByID(ctx, id)
	return nil
}

func (c *CachedRepository) SetRiskLevel(ctx context.Context, id string, level models.RiskLevel, notes string) error {
	if err := c.Repository.SetRiskLevel(ctx, id, level, notes); err != nil {
		return err
	}
	c.evictByID(ctx, id)
	return nil
}

// evictByID drops the id key and, when the cached copy names it, the number key.
func (c *CachedRepository) evictByID(ctx context.Context, id string) {
	number := ""
	if raw, err := c.client.Get(ctx, cacheKeyByID+id).Bytes(); err == nil {
		var app models.FisheryApplication
		if json.Unmarshal(raw, &app) == nil {
			number = app.ApplicationNumber
		}
	}
	c.evict(ctx, id, number)
}

func (c *CachedRepository) evict(ctx context.Context, id, number string) {
	keys := []string{cacheKeyByID + id}
	if number != "" {
		keys = append(keys, cacheKeyByNumber+number)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache eviction failed", map[string]interface{}{
			"applicationId": id,
			"error":         err.Error(),
		})
	}
}

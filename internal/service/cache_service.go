package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Maverics-Seneca/auth-service/internal/models"
	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

const (
	organizationKeyPrefix    = "auth:organizations:"
	organizationDirectoryKey = organizationKeyPrefix + "all"
	organizationOwnerPrefix  = organizationKeyPrefix + "owner:"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// OrganizationCache keeps the organization directory and the per-owner
// listings in Redis. Every organization write drops the whole namespace.
type OrganizationCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewOrganizationCache constructs the cache. A nil repo disables it.
func NewOrganizationCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *OrganizationCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (c *OrganizationCache) Enabled() bool {
	return c != nil && c.enabled && c.repo != nil
}

// Directory returns the cached id/name directory, if present.
func (c *OrganizationCache) Directory(ctx context.Context) ([]models.OrganizationRef, bool) {
	var refs []models.OrganizationRef
	return refs, c.get(ctx, organizationDirectoryKey, &refs)
}

// StoreDirectory caches the id/name directory.
func (c *OrganizationCache) StoreDirectory(ctx context.Context, refs []models.OrganizationRef) {
	c.set(ctx, organizationDirectoryKey, refs)
}

// OwnedBy returns the cached organizations of one owner, if present.
func (c *OrganizationCache) OwnedBy(ctx context.Context, ownerID string) ([]models.Organization, bool) {
	var orgs []models.Organization
	return orgs, c.get(ctx, ownerKey(ownerID), &orgs)
}

// StoreOwnedBy caches the organizations of one owner.
func (c *OrganizationCache) StoreOwnedBy(ctx context.Context, ownerID string, orgs []models.Organization) {
	c.set(ctx, ownerKey(ownerID), orgs)
}

// Invalidate drops the directory and every per-owner listing.
func (c *OrganizationCache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	pattern := organizationKeyPrefix + "*"
	if err := c.repo.DeleteByPattern(ctx, pattern); err != nil {
		c.logger.Warn("organization cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

func ownerKey(ownerID string) string {
	return organizationOwnerPrefix + ownerID
}

// get reports a hit. Backend errors count as misses so reads fall through to Postgres.
func (c *OrganizationCache) get(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	start := time.Now()
	err := c.repo.Get(ctx, key, dest)
	c.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		c.logger.Warn("organization cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

func (c *OrganizationCache) set(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}
	start := time.Now()
	err := c.repo.Set(ctx, key, value, c.ttl)
	c.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		c.logger.Warn("organization cache set failed", zap.String("key", key), zap.Error(err))
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ValidationCacheKey is the cache key of the full validation report of a version.
func ValidationCacheKey(ownerID, scheduleID int64) string {
	return fmt.Sprintf("timetable:validation:%d:%d", ownerID, scheduleID)
}

// ValidationCachePattern matches every cached report of an owner.
func ValidationCachePattern(ownerID int64) string {
	return fmt.Sprintf("timetable:validation:%d:*", ownerID)
}

// CacheService fronts the Redis cache of validation reports and records hit
// metrics. A nil or disabled service behaves as a permanent miss, and cache
// failures never fail the caller's request.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// ValidationReport returns the cached report of a version, if any.
func (s *CacheService) ValidationReport(ctx context.Context, ownerID, scheduleID int64) (*timetable.ValidationResult, bool) {
	var cached timetable.ValidationResult
	hit, err := s.Get(ctx, ValidationCacheKey(ownerID, scheduleID), &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

// StoreValidationReport caches a freshly computed report. A zero ttl uses the default.
func (s *CacheService) StoreValidationReport(ctx context.Context, ownerID, scheduleID int64, report timetable.ValidationResult, ttl time.Duration) {
	_ = s.Set(ctx, ValidationCacheKey(ownerID, scheduleID), report, ttl)
}

// ForgetValidationReport drops the report of one version after its blocks change.
func (s *CacheService) ForgetValidationReport(ctx context.Context, ownerID, scheduleID int64) {
	_ = s.Delete(ctx, ValidationCacheKey(ownerID, scheduleID))
}

// ForgetOwnerReports drops every report of an owner; grid and time-off edits
// affect all versions.
func (s *CacheService) ForgetOwnerReports(ctx context.Context, ownerID int64) {
	_ = s.Invalidate(ctx, ValidationCachePattern(ownerID))
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Delete removes exact keys.
func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

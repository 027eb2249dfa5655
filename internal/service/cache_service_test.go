package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

type failingCache struct{ memCache }

func (c *failingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection reset")
}

func TestCacheServiceValidationReportRoundTrip(t *testing.T) {
	ctx := context.Background()
	metrics := NewMetricsService()
	svc := NewCacheService(newMemCache(), metrics, time.Minute, zap.NewNop(), true)

	_, hit := svc.ValidationReport(ctx, testOwner, testSchedule)
	assert.False(t, hit)

	report := timetable.ValidationResult{IsValid: false, Errors: []timetable.Violation{{Type: timetable.ViolationDoubleBookingRoom, BlockIDs: []int64{1, 2}}}, Warnings: []string{}}
	svc.StoreValidationReport(ctx, testOwner, testSchedule, report, 0)

	cached, hit := svc.ValidationReport(ctx, testOwner, testSchedule)
	require.True(t, hit)
	assert.Equal(t, report, *cached)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
}

func TestCacheServiceForgetScopes(t *testing.T) {
	ctx := context.Background()
	repo := newMemCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	report := timetable.ValidationResult{IsValid: true}

	svc.StoreValidationReport(ctx, testOwner, 1, report, 0)
	svc.StoreValidationReport(ctx, testOwner, 2, report, 0)
	svc.StoreValidationReport(ctx, otherOwner, 3, report, 0)

	svc.ForgetValidationReport(ctx, testOwner, 1)
	assert.False(t, repo.has(ValidationCacheKey(testOwner, 1)))
	assert.True(t, repo.has(ValidationCacheKey(testOwner, 2)))

	svc.ForgetOwnerReports(ctx, testOwner)
	assert.False(t, repo.has(ValidationCacheKey(testOwner, 2)))
	assert.True(t, repo.has(ValidationCacheKey(otherOwner, 3)))
}

func TestCacheServiceDisabledIsPermanentMiss(t *testing.T) {
	ctx := context.Background()
	repo := newMemCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	svc.StoreValidationReport(ctx, testOwner, testSchedule, timetable.ValidationResult{IsValid: true}, 0)
	_, hit := svc.ValidationReport(ctx, testOwner, testSchedule)
	assert.False(t, hit)
	assert.False(t, repo.has(ValidationCacheKey(testOwner, testSchedule)))

	var nilSvc *CacheService
	_, hit = nilSvc.ValidationReport(ctx, testOwner, testSchedule)
	assert.False(t, hit)
	nilSvc.ForgetOwnerReports(ctx, testOwner)
}

func TestCacheServiceBackendErrorIsAMiss(t *testing.T) {
	svc := NewCacheService(&failingCache{memCache: memCache{items: map[string][]byte{}}}, nil, time.Minute, nil, true)

	_, hit := svc.ValidationReport(context.Background(), testOwner, testSchedule)
	assert.False(t, hit)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/grading"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

// Cache keys for computed results. Every key lives under resultsCachePrefix so a single
// pattern invalidation clears them all. The generation counter sits outside the prefix.
const (
	resultsCachePrefix   = "results:"
	resultsCachePattern  = resultsCachePrefix + "*"
	resultsGenerationKey = "results-generation"
)

// resultsKeys builds cache keys for one results generation. Callers read the generation
// before loading from the database; a write that commits and bumps the generation in the
// meantime leaves any late Set on a key that is never read again.
type resultsKeys struct {
	generation int64
}

func (k resultsKeys) activeConfig() string {
	return fmt.Sprintf("%s%d:config:active", resultsCachePrefix, k.generation)
}

func (k resultsKeys) classResults(classID string, t grading.AssessmentType) string {
	return fmt.Sprintf("%s%d:class:%s:%s", resultsCachePrefix, k.generation, classID, t)
}

func (k resultsKeys) studentReport(examNumber string) string {
	return fmt.Sprintf("%s%d:student:%s", resultsCachePrefix, k.generation, normalizeExamNumber(examNumber))
}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// CacheService orchestrates cache operations and related metrics.
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

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	removed, err := s.repo.DeleteByPattern(ctx, pattern)
	if err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	s.logger.Debug("cache invalidated", zap.String("pattern", pattern), zap.Int("removed", removed))
	return nil
}

// ResultsKeys returns the key builder for the current results generation. ok is false
// when the generation cannot be read; callers then skip the cache for this request.
func (s *CacheService) ResultsKeys(ctx context.Context) (resultsKeys, bool) {
	if !s.Enabled() {
		return resultsKeys{}, false
	}
	var generation int64
	if err := s.repo.Get(ctx, resultsGenerationKey, &generation); err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache generation read failed", zap.Error(err))
		return resultsKeys{}, false
	}
	return resultsKeys{generation: generation}, true
}

// InvalidateResults moves computed results to a new generation and drops the old
// entries. Failures are logged, not returned, so a Redis outage never blocks a write.
func (s *CacheService) InvalidateResults(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if _, err := s.repo.Incr(ctx, resultsGenerationKey); err != nil {
		s.logger.Warn("cache generation bump failed", zap.Error(err))
	}
	_ = s.Invalidate(ctx, resultsCachePattern)
}

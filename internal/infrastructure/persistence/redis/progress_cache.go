package redis

import (
	"context"
	"time"

	"github.com/alem-hub/learntrack/internal/domain/course"
)

// ProgressCache implements course.ProgressCache.
type ProgressCache struct {
	cache *Cache
	ttl   time.Duration
}

var _ course.ProgressCache = (*ProgressCache)(nil)

// NewProgressCache creates a ProgressCache. A zero ttl uses TTLProgress.
func NewProgressCache(cache *Cache, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = TTLProgress
	}
	return &ProgressCache{cache: cache, ttl: ttl}
}

// Get returns ErrCacheMiss when the view is not cached.
func (p *ProgressCache) Get(ctx context.Context, courseID int64) (*course.ProgressView, error) {
	var v course.ProgressView
	if err := p.cache.Get(ctx, ProgressKey(courseID), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Set stores the view under its course id.
func (p *ProgressCache) Set(ctx context.Context, v *course.ProgressView) error {
	if v == nil {
		return nil
	}
	return p.cache.Set(ctx, ProgressKey(v.CourseID), v, p.ttl)
}

// Invalidate drops the cached view.
func (p *ProgressCache) Invalidate(ctx context.Context, courseID int64) error {
	return p.cache.Delete(ctx, ProgressKey(courseID))
}

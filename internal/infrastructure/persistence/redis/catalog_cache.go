package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/learntrack/internal/domain/course"
	"github.com/alem-hub/learntrack/internal/domain/practice"
	"github.com/alem-hub/learntrack/pkg/logger"
)

// CachedCatalog is a read-through cache in front of the remote catalog.
// Cache failures fall through to the remote and are only logged.
type CachedCatalog struct {
	next   course.Catalog
	cache  *Cache
	ttl    time.Duration
	logger *logger.Logger
}

var _ course.Catalog = (*CachedCatalog)(nil)

// NewCachedCatalog wraps next. A zero ttl uses TTLCatalog.
func NewCachedCatalog(next course.Catalog, cache *Cache, ttl time.Duration, log *logger.Logger) *CachedCatalog {
	if ttl <= 0 {
		ttl = TTLCatalog
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedCatalog{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.With(logger.Component("catalog_cache")),
	}
}

// FetchCourse implements course.Catalog.
func (c *CachedCatalog) FetchCourse(ctx context.Context, courseID int64) (*course.Descriptor, error) {
	key := CatalogCourseKey(courseID)

	var cached course.Descriptor
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("catalog cache read failed", logger.CourseID(courseID), logger.Err(err))
	}

	d, err := c.next.FetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, d, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", logger.CourseID(courseID), logger.Err(err))
	}
	return d, nil
}

// practiceEntry distinguishes "no practice" from a miss.
type practiceEntry struct {
	Descriptor *practice.Descriptor `json:"descriptor"`
}

// FetchPractice implements course.Catalog.
func (c *CachedCatalog) FetchPractice(ctx context.Context, courseID int64) (*practice.Descriptor, error) {
	key := CatalogPracticeKey(courseID)

	var cached practiceEntry
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached.Descriptor, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("practice cache read failed", logger.CourseID(courseID), logger.Err(err))
	}

	d, err := c.next.FetchPractice(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, practiceEntry{Descriptor: d}, c.ttl); err != nil {
		c.logger.Warn("practice cache write failed", logger.CourseID(courseID), logger.Err(err))
	}
	return d, nil
}

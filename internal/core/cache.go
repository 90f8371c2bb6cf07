package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

// CacheRepository defines the interface for caching operations. The data layer
// provides a Redis implementation; tests use an in-memory one.
type CacheRepository interface {
	// Set stores a value with the given key and TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get retrieves a value by key. Returns nil when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes a key, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// SetIfNotExists atomically sets a key only when absent, reporting whether
	// the set happened. Used as a lightweight distributed lock.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Health checks the cache connection.
	Health(ctx context.Context) error
}

const rosterCacheKey = "scheduler:roster:active"

// RosterCacheService caches the active employee roster between runner ticks so
// repeated automatic runs do not re-read the table on every lookup.
type RosterCacheService struct {
	cache     CacheRepository
	employees EmployeeRepository
	ttl       time.Duration
}

// RosterCacheConfig holds configuration for roster caching.
type RosterCacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// DefaultRosterCacheConfig returns the default roster cache configuration.
func DefaultRosterCacheConfig() RosterCacheConfig {
	return RosterCacheConfig{TTL: 5 * time.Minute}
}

// RosterCacheServiceOptions bundles dependencies for NewRosterCacheService.
type RosterCacheServiceOptions struct {
	Cache     CacheRepository
	Employees EmployeeRepository
	Config    RosterCacheConfig
}

// NewRosterCacheService creates a RosterCacheService.
func NewRosterCacheService(opts RosterCacheServiceOptions) *RosterCacheService {
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = DefaultRosterCacheConfig().TTL
	}
	return &RosterCacheService{cache: opts.Cache, employees: opts.Employees, ttl: ttl}
}

// ActiveEmployees returns the active roster, served from cache when fresh.
// Cache failures fall through to the repository.
func (s *RosterCacheService) ActiveEmployees(ctx context.Context) ([]*model.Employee, error) {
	if s.cache != nil {
		if b, err := s.cache.Get(ctx, rosterCacheKey); err == nil && len(b) > 0 {
			var roster []*model.Employee
			if jsonErr := json.Unmarshal(b, &roster); jsonErr == nil {
				return roster, nil
			}
			// Corrupt entry: drop it and fall through to the repository.
			_, _ = s.cache.Delete(ctx, rosterCacheKey)
		}
	}

	roster, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}

	if s.cache != nil {
		if b, jsonErr := json.Marshal(roster); jsonErr == nil {
			_ = s.cache.Set(ctx, rosterCacheKey, b, s.ttl)
		}
	}
	return roster, nil
}

// Invalidate drops the cached roster, forcing the next read to hit the store.
func (s *RosterCacheService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	_, err := s.cache.Delete(ctx, rosterCacheKey)
	return err
}

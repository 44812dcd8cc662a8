// Package cache decorates a registry.CompanyPort with a Redis-backed cache
// of company profiles, keyed by company number, so repeat jobs against the
// same company (common for recurring merchant submissions) skip the
// external registry round trip.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/registry"
)

const keyPrefix = "docverify:registry:company:"

// Port decorates an inner registry.CompanyPort with a read-through cache.
type Port struct {
	inner registry.CompanyPort
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// NewPort builds a Port. ttl is the cache entry lifetime (§2's default is 5
// minutes).
func NewPort(inner registry.CompanyPort, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Port {
	return &Port{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

// GetProfile returns a cached profile if present and unexpired; otherwise
// it delegates to the inner port and caches a non-nil result. Redis
// failures degrade to a direct inner-port call rather than failing the
// lookup.
func (p *Port) GetProfile(ctx context.Context, companyNumber string) (*registry.CompanyProfile, error) {
	key := keyPrefix + companyNumber

	if cached, ok := p.readThrough(ctx, key); ok {
		return cached, nil
	}

	profile, err := p.inner.GetProfile(ctx, companyNumber)
	if err != nil || profile == nil {
		return profile, err
	}

	if raw, err := json.Marshal(profile); err == nil {
		if err := p.rdb.Set(ctx, key, raw, p.ttl).Err(); err != nil {
			p.log.Warn("registry cache write failed", zap.Error(err))
		}
	}
	return profile, nil
}

// GetOfficers is never cached separately; GetProfile already embeds
// officers, so this always delegates to the inner port.
func (p *Port) GetOfficers(ctx context.Context, companyNumber string) ([]registry.Officer, error) {
	return p.inner.GetOfficers(ctx, companyNumber)
}

func (p *Port) readThrough(ctx context.Context, key string) (*registry.CompanyProfile, bool) {
	raw, err := p.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var profile registry.CompanyProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

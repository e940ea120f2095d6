package ratelimiter

import (
	"time"

	"code.cloudfoundry.org/lager/v3"
)

const (
	defaultBucketCapacity      = 20
	defaultExpireDuration      = 10 * time.Minute
	defaultExpireCheckInterval = 30 * time.Second
)

type Limiter interface {
	ExceedsLimit(string) bool
	NumKeys() int
}

// RateLimiter answers the single question the middleware asks: has this
// client used up its budget. Bookkeeping lives in the store.
type RateLimiter struct {
	store Store
}

// DefaultRateLimiter allows maxAmount requests per validDuration with the
// default burst of 20, matching the shape of an nginx limit_req zone.
func DefaultRateLimiter(maxAmount int, validDuration time.Duration, logger lager.Logger) *RateLimiter {
	return NewRateLimiter(defaultBucketCapacity, maxAmount, validDuration, defaultExpireDuration, defaultExpireCheckInterval, logger)
}

func NewRateLimiter(bucketCapacity int, maxAmount int, validDuration time.Duration, expireDuration time.Duration, expireCheckInterval time.Duration, logger lager.Logger) *RateLimiter {
	return &RateLimiter{
		store: NewStore(bucketCapacity, maxAmount, validDuration, expireDuration, expireCheckInterval, logger),
	}
}

func (r *RateLimiter) ExceedsLimit(key string) bool {
	return r.store.Increment(key) != nil
}

func (r *RateLimiter) NumKeys() int {
	return r.store.NumKeys()
}

// Stop ends the store's idle-bucket sweep.
func (r *RateLimiter) Stop() {
	r.store.Stop()
}

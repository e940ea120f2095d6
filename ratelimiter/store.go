package ratelimiter

import (
	"errors"
	"sync"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/time/rate"
)

// ErrRateExceeded is returned by Increment once a client's bucket runs dry.
var ErrRateExceeded = errors.New("rate limit exceeded")

type Store interface {
	Increment(string) error
	NumKeys() int
	Stop()
}

// InMemoryStore keeps one token bucket per client address. Buckets refill at
// maxAmount tokens per validDuration and start full at bucketCapacity, so a
// fresh client gets an initial burst before the sustained rate applies. A
// background sweep drops buckets that have not been touched for
// expireDuration, which bounds memory to the set of recently active clients.
type InMemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*bucket

	bucketCapacity int
	maxAmount      int
	validDuration  time.Duration
	expireDuration time.Duration
	logger         lager.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewStore(bucketCapacity int, maxAmount int, validDuration time.Duration, expireDuration time.Duration, expireCheckInterval time.Duration, logger lager.Logger) Store {
	s := &InMemoryStore{
		buckets:        make(map[string]*bucket),
		bucketCapacity: bucketCapacity,
		maxAmount:      maxAmount,
		validDuration:  validDuration,
		expireDuration: expireDuration,
		logger:         logger,
		stop:           make(chan struct{}),
	}
	go s.sweep(expireCheckInterval)
	return s
}

// Stop shuts the background sweep down. Safe to call more than once.
func (s *InMemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *InMemoryStore) Increment(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		refillPerSecond := float64(s.maxAmount) / s.validDuration.Seconds()
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), s.bucketCapacity)}
		s.buckets[key] = b
	}
	b.lastSeen = time.Now()

	if !b.limiter.Allow() {
		return ErrRateExceeded
	}
	return nil
}

// NumKeys reports how many clients currently hold a bucket.
func (s *InMemoryStore) NumKeys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

func (s *InMemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-s.expireDuration)
		s.mu.Lock()
		for key, b := range s.buckets {
			if b.lastSeen.Before(cutoff) {
				s.logger.Debug("dropping-idle-bucket", lager.Data{"client": key})
				delete(s.buckets, key)
			}
		}
		s.mu.Unlock()
	}
}

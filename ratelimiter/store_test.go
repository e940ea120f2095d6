package ratelimiter_test

import (
	"time"

	"code.cloudfoundry.org/lager/v3/lagertest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oligostore/gateway/ratelimiter"
)

var _ = Describe("InMemoryStore", func() {
	const (
		bucketCapacity      = 20
		maxAmount           = 2
		validDuration       = 1 * time.Second
		expireDuration      = 5 * time.Second
		expireCheckInterval = 1 * time.Second
	)

	var store ratelimiter.Store

	BeforeEach(func() {
		store = ratelimiter.NewStore(bucketCapacity, maxAmount, validDuration, expireDuration, expireCheckInterval,
			lagertest.NewTestLogger("store"))
	})

	AfterEach(func() {
		store.Stop()
	})

	Describe("Increment", func() {
		It("grants the initial burst and then refills at the configured rate", func() {
			for i := 0; i < bucketCapacity; i++ {
				Expect(store.Increment("10.0.0.1")).To(Succeed())
			}
			Expect(store.Increment("10.0.0.1")).To(MatchError(ratelimiter.ErrRateExceeded))

			time.Sleep(validDuration)
			for i := 0; i < maxAmount; i++ {
				Expect(store.Increment("10.0.0.1")).To(Succeed())
			}
			Expect(store.Increment("10.0.0.1")).To(MatchError(ratelimiter.ErrRateExceeded))
		})

		It("tracks every client in its own bucket", func() {
			for i := 0; i < bucketCapacity; i++ {
				Expect(store.Increment("10.0.0.1")).To(Succeed())
			}
			Expect(store.Increment("10.0.0.1")).To(MatchError(ratelimiter.ErrRateExceeded))

			// a different client still has a full bucket
			Expect(store.Increment("10.0.0.2")).To(Succeed())
		})
	})

	Describe("NumKeys", func() {
		It("counts one bucket per distinct client", func() {
			Expect(store.NumKeys()).To(Equal(0))
			Expect(store.Increment("10.0.0.1")).To(Succeed())
			Expect(store.Increment("10.0.0.1")).To(Succeed())
			Expect(store.Increment("10.0.0.2")).To(Succeed())
			Expect(store.NumKeys()).To(Equal(2))
		})
	})

	Describe("idle bucket sweep", func() {
		It("hands an idle client a fresh bucket after the expiry", func() {
			for i := 0; i < bucketCapacity; i++ {
				Expect(store.Increment("10.0.0.1")).To(Succeed())
			}
			Expect(store.Increment("10.0.0.1")).To(MatchError(ratelimiter.ErrRateExceeded))

			time.Sleep(expireDuration + expireCheckInterval)
			Expect(store.Increment("10.0.0.1")).To(Succeed())
		})

		It("drops the client once its bucket expired", func() {
			Expect(store.Increment("10.0.0.1")).To(Succeed())
			Expect(store.NumKeys()).To(Equal(1))
			Eventually(store.NumKeys, expireDuration+2*expireCheckInterval).Should(Equal(0))
		})

		It("stops sweeping once the store is stopped", func() {
			Expect(store.Increment("10.0.0.1")).To(Succeed())
			store.Stop()
			store.Stop() // idempotent

			Consistently(store.NumKeys, expireDuration+2*expireCheckInterval, expireCheckInterval).Should(Equal(1))
		})
	})
})

package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/resilience"
)

type guardedBackend struct {
	next    Backend
	breaker *resilience.Breaker
}

// Guard routes backend calls through breaker. While the breaker is open
// every call fails fast with resilience.ErrCircuitOpen, which the cache
// treats as a miss. Cache misses do not count as failures.
func Guard(next Backend, breaker *resilience.Breaker) Backend {
	return &guardedBackend{next: next, breaker: breaker}
}

func (g *guardedBackend) Get(ctx context.Context, key string) (string, error) {
	var (
		val  string
		miss bool
	)
	err := g.breaker.Do(func() error {
		v, err := g.next.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			miss = true
			return nil
		}
		val = v
		return err
	})
	if err != nil {
		return "", err
	}
	if miss {
		return "", pkgredis.Nil
	}
	return val, nil
}

func (g *guardedBackend) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return g.breaker.Do(func() error {
		return g.next.Set(ctx, key, value, ttl)
	})
}

func (g *guardedBackend) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Do(func() error {
		var err error
		n, err = g.next.FlushByPattern(ctx, pattern)
		return err
	})
	return n, err
}

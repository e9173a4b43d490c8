package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket per key. A Limiter with non-positive rate allows everything.
type Limiter struct {
	mx      *sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func New(eventsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		mx:      &sync.Mutex{},
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(eventsPerSecond),
		burst:   burst,
	}
}

func (l *Limiter) Allow(key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	l.mx.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.mx.Unlock()
	return b.Allow()
}

// Forget drops the bucket of a closed connection.
func (l *Limiter) Forget(key string) {
	if l == nil {
		return
	}
	l.mx.Lock()
	delete(l.buckets, key)
	l.mx.Unlock()
}

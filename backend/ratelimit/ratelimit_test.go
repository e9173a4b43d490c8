package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Burst(t *testing.T) {
	l := New(0.001, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("c1"), "event %d", i)
	}
	assert.False(t, l.Allow("c1"))
	assert.True(t, l.Allow("c2"), "buckets are per key")
}

func TestLimiter_Forget(t *testing.T) {
	l := New(0.001, 1)

	assert.True(t, l.Allow("c1"))
	assert.False(t, l.Allow("c1"))
	l.Forget("c1")
	assert.True(t, l.Allow("c1"))
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("c1"))
	}

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("c1"))
	nilLimiter.Forget("c1")
}

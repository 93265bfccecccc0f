package ratelimit_test

import (
	"testing"

	"github.com/echotab/echotab-server/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	krl := ratelimit.New(1, 2)
	defer krl.Stop()

	assert.True(t, krl.Allow("a"))
	assert.True(t, krl.Allow("a"))
	assert.False(t, krl.Allow("a"))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	krl := ratelimit.New(1, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("a"))
	assert.False(t, krl.Allow("a"))

	// A different key has its own bucket.
	assert.True(t, krl.Allow("b"))
}

func TestStop_DropsKeyState(t *testing.T) {
	krl := ratelimit.New(1, 1)

	assert.True(t, krl.Allow("a"))
	assert.False(t, krl.Allow("a"))

	// Stop is idempotent and resets per-key buckets.
	krl.Stop()
	krl.Stop()
	assert.True(t, krl.Allow("a"))
}

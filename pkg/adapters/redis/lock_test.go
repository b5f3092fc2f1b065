package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/adapters/redis"
)

func TestLockerMutualExclusion(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "espalier:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)

	// A second acquisition polls until its context runs out.
	shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "session-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Releasing frees it for the next holder.
	require.NoError(t, unlock(ctx))
	unlock2, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLockerIndependentKeys(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "espalier:")
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlock1(ctx) }()

	unlock2, err := locker.Lock(ctx, "session-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLockerExpiredLockIsReacquirable(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "espalier:")
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "session-1", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	defer func() { _ = unlock(ctx) }()

	// The stale holder's unlock is a no-op: the value check fails, so it
	// must not release the new holder's lock.
	require.NoError(t, stale(ctx))
	shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "session-1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

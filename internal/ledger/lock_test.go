package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMutualExclusion(t *testing.T, l KeyedLock) {
	t.Helper()
	var (
		inside   atomic.Int32
		violated atomic.Bool
		wg       sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "claim:CLM1")
			if !assert.NoError(t, err) {
				return
			}
			if inside.Add(1) > 1 {
				violated.Store(true)
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.False(t, violated.Load(), "two holders inside the same key")
}

func TestMemoryLock_MutualExclusion(t *testing.T) {
	l := NewMemoryLock()
	exerciseMutualExclusion(t, l)
	assert.Equal(t, 0, l.Held())
}

func TestMemoryLock_IndependentKeys(t *testing.T) {
	l := NewMemoryLock()
	a, err := l.Lock(context.Background(), "claim:A")
	require.NoError(t, err)
	b, err := l.Lock(context.Background(), "claim:B")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Held())
	a()
	b()
	assert.Equal(t, 0, l.Held())
}

func TestMemoryLock_ContextCancel(t *testing.T) {
	l := NewMemoryLock()
	unlock, err := l.Lock(context.Background(), "claim:A")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "claim:A")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, l.Held())
}

func TestLockAll_DedupesAndReleases(t *testing.T) {
	l := NewMemoryLock()
	unlock, err := LockAll(context.Background(), l, "patient:x", "claim:A", "claim:A")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Held())
	unlock()
	assert.Equal(t, 0, l.Held())

	unlock, err = LockAll(context.Background(), l)
	require.NoError(t, err)
	unlock()
}

func newRedisLock(t *testing.T) (*miniredis.Miniredis, *RedisLock) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisLock(client, "claimload:lock:", time.Minute)
}

func TestRedisLock_MutualExclusion(t *testing.T) {
	_, l := newRedisLock(t)
	l.retry = time.Millisecond
	exerciseMutualExclusion(t, l)
}

func TestRedisLock_ReleaseAndTTL(t *testing.T) {
	mr, l := newRedisLock(t)

	unlock, err := l.Lock(context.Background(), "claim:CLM1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("claimload:lock:claim:CLM1"))
	assert.Equal(t, time.Minute, mr.TTL("claimload:lock:claim:CLM1"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "claim:CLM1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("claimload:lock:claim:CLM1"))
}

func TestRedisLock_ReleaseKeepsForeignToken(t *testing.T) {
	mr, l := newRedisLock(t)

	unlock, err := l.Lock(context.Background(), "claim:CLM2")
	require.NoError(t, err)

	// Lock expired and was taken by another holder.
	require.NoError(t, mr.Set("claimload:lock:claim:CLM2", "someone-else"))
	unlock()

	v, err := mr.Get("claimload:lock:claim:CLM2")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

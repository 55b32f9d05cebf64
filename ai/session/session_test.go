package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Phase string   `json:"phase"`
	Files []string `json:"files"`
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func testStateStore(t *testing.T, s StateStore) {
	ctx := context.Background()

	var got payload
	assert.ErrorIs(t, s.Load(ctx, "claims:s1", &got), ErrNotFound)

	want := payload{Phase: "collecting", Files: []string{"/tmp/a.pdf"}}
	require.NoError(t, s.Save(ctx, "claims:s1", want))
	require.NoError(t, s.Load(ctx, "claims:s1", &got))
	assert.Equal(t, want, got)

	require.NoError(t, s.Delete(ctx, "claims:s1"))
	assert.ErrorIs(t, s.Load(ctx, "claims:s1", &got), ErrNotFound)
}

func TestMemoryStateStore(t *testing.T) {
	testStateStore(t, NewMemoryStateStore())
}

func TestRedisStateStore(t *testing.T) {
	client, _ := newRedis(t)
	testStateStore(t, NewRedisStateStore(client, time.Hour))
}

// testLockerSerialises checks that no two holders of the same session overlap.
func testLockerSerialises(t *testing.T, l Locker) {
	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "s1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
}

func TestLocalLocker_Serialises(t *testing.T) {
	testLockerSerialises(t, NewLocalLocker(LockConfig{}))
}

func TestRedisLocker_Serialises(t *testing.T) {
	client, _ := newRedis(t)
	testLockerSerialises(t, NewRedisLocker(client, LockConfig{Retry: time.Millisecond}))
}

func TestLocalLocker_Timeout(t *testing.T) {
	l := NewLocalLocker(LockConfig{Wait: 20 * time.Millisecond})

	unlock, err := l.Lock(context.Background(), "s")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), "s")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// Other sessions are independent.
	other, err := l.Lock(context.Background(), "other")
	require.NoError(t, err)
	other()
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := NewLocalLocker(LockConfig{})
	unlock, err := l.Lock(context.Background(), "s")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, "s")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalLocker_UnlockIdempotentAndCleansUp(t *testing.T) {
	l := NewLocalLocker(LockConfig{})
	unlock, err := l.Lock(context.Background(), "s")
	require.NoError(t, err)
	unlock()
	unlock()

	l.mu.Lock()
	assert.Empty(t, l.slots)
	l.mu.Unlock()
}

func TestRedisLocker_TimeoutAndTokenRelease(t *testing.T) {
	client, mr := newRedis(t)
	l := NewRedisLocker(client, LockConfig{Wait: 30 * time.Millisecond, Retry: 5 * time.Millisecond})

	unlock, err := l.Lock(context.Background(), "s")
	require.NoError(t, err)

	_, err = l.Lock(context.Background(), "s")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// A lock taken over by someone else is not deleted by the stale holder.
	mr.Set("agenthub:lock:s", "someone-else")
	unlock()
	got, err := mr.Get("agenthub:lock:s")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

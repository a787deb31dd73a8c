package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, ""), mr
}

func TestStorage_SetAndGet(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	reset := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	require.NoError(t, s.Set(ctx, domain.RateLimitEntry{Identity: "10.0.0.1", Count: 4, WindowResetAt: reset}))

	entry, ok, err := s.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, entry.Count)
	assert.True(t, entry.WindowResetAt.Equal(reset))
	assert.True(t, mr.Exists("ratelimit:ip:10.0.0.1"))
	assert.Greater(t, mr.TTL("ratelimit:ip:10.0.0.1"), time.Duration(0))
}

func TestStorage_GetMissing(t *testing.T) {
	s, _ := newTestStorage(t)

	_, ok, err := s.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_UpdateConcurrent(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()
	reset := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "10.0.0.9", func(entry domain.RateLimitEntry, found bool) domain.RateLimitEntry {
				if !found {
					entry.WindowResetAt = reset
				}
				entry.Count++
				return entry
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entry, ok, err := s.Get(ctx, "10.0.0.9")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, entry.Count)
}

func TestStorage_KeyExpiresAfterWindow(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Update(ctx, "10.0.0.3", func(entry domain.RateLimitEntry, _ bool) domain.RateLimitEntry {
		entry.Count = 1
		entry.WindowResetAt = time.Now().Add(time.Minute)
		return entry
	})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, ok, err := s.Get(ctx, "10.0.0.3")
	require.NoError(t, err)
	assert.False(t, ok)
}

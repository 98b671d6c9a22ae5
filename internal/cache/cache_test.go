package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()

	_, ok := m.Get("missing")
	require.False(t, ok)

	m.Set("a", "hello", time.Hour)
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, "hello", v)

	m.Delete("a")
	_, ok = m.Get("a")
	require.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()

	m.Set("a", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := m.Get("a")
	require.False(t, ok)
}

func TestMemoryJanitorSweeps(t *testing.T) {
	m := NewMemory(5 * time.Millisecond)
	defer m.Close()

	m.Set("a", 1, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 0, m.Len())
}

func TestRedisBackedCache(t *testing.T) {
	srv, err := miniredis.Run()
	require.NoError(t, err)
	defer srv.Close()

	r, err := NewRedis(RedisConfig{Addr: srv.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	r.Set("fp:abc", "seen", time.Hour)
	v, ok := r.Get("fp:abc")
	require.True(t, ok)
	require.Equal(t, "seen", v)

	// sanity: underlying client actually talks to miniredis
	c := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer func() { _ = c.Close() }()
	require.NoError(t, c.Ping(context.Background()).Err())
}

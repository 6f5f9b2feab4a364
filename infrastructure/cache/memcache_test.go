package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := NewMemCache(0)

	c.Set("k", "v", 0)
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := NewMemCache(0)

	c.Set("k", "v", 10*time.Millisecond)
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	require.False(t, ok)
}

func TestNoExpirationWhenTTLZero(t *testing.T) {
	c := NewMemCache(0)

	c.Set("k", "v", 0)
	time.Sleep(10 * time.Millisecond)
	_, ok := c.Get("k")
	require.True(t, ok)
}

func TestDeleteAndFlush(t *testing.T) {
	c := NewMemCache(0)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	c.Delete("a")
	_, ok := c.Get("a")
	require.False(t, ok)

	c.Flush()
	_, ok = c.Get("b")
	require.False(t, ok)
}

func TestCleanupGoroutine(t *testing.T) {
	c := NewMemCache(10 * time.Millisecond)
	defer c.Close()

	c.Set("k", "v", 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestCloseStopsCleanup(t *testing.T) {
	c := NewMemCache(time.Millisecond)
	c.Close()
}

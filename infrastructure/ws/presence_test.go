package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresenceLastConnectionWins(t *testing.T) {
	presence := NewPresence()

	first := NewClient("alice", nil, nil)
	second := NewClient("alice", nil, nil)

	require.Nil(t, presence.Set(first))
	require.True(t, presence.IsOnline("alice"))

	displaced := presence.Set(second)
	require.Same(t, first, displaced)

	current, ok := presence.Get("alice")
	require.True(t, ok)
	require.Same(t, second, current)
	require.Equal(t, 1, presence.Count())
}

func TestPresenceSetSameClientTwice(t *testing.T) {
	presence := NewPresence()
	client := NewClient("alice", nil, nil)

	require.Nil(t, presence.Set(client))
	require.Nil(t, presence.Set(client))
	require.Equal(t, 1, presence.Count())
}

func TestPresenceRemoveIgnoresStaleConnection(t *testing.T) {
	presence := NewPresence()

	stale := NewClient("alice", nil, nil)
	fresh := NewClient("alice", nil, nil)

	presence.Set(stale)
	presence.Set(fresh)

	// The displaced connection's teardown must not evict the fresh one.
	require.False(t, presence.Remove(stale))
	require.True(t, presence.IsOnline("alice"))

	require.True(t, presence.Remove(fresh))
	require.False(t, presence.IsOnline("alice"))
	require.Equal(t, 0, presence.Count())
}

func TestPresenceRemoveUnknownUser(t *testing.T) {
	presence := NewPresence()
	require.False(t, presence.Remove(NewClient("ghost", nil, nil)))
}

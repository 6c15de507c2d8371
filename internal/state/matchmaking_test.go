package state_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbound/wordbound-server/internal"
	"github.com/wordbound/wordbound-server/internal/state"
)

func newQueue(ttl time.Duration) (*state.Queue, *state.Lobbies) {
	lobbies := state.NewLobbies(0, nil, nil)
	return state.NewQueue(ttl, lobbies, nil, nil), lobbies
}

func TestQueueJoin(t *testing.T) {
	t.Parallel()

	t.Run("first joiner waits at position one", func(t *testing.T) {
		t.Parallel()
		q, _ := newQueue(time.Minute)

		res := q.Join("u-1", "alice", "")
		assert.Equal(t, "queued", res.Status)
		assert.Equal(t, 1, res.QueuePosition)
		assert.Equal(t, 1, res.PlayersInQueue)
		assert.Nil(t, res.Lobby)
	})

	t.Run("rejoin keeps the original position", func(t *testing.T) {
		t.Parallel()
		q, _ := newQueue(time.Minute)

		q.Join("u-1", "alice", "srv-a")
		first := q.Join("u-2", "bob", "srv-b")
		again := q.Join("u-2", "bob", "srv-b")

		assert.Equal(t, first.QueuePosition, again.QueuePosition)
		assert.Equal(t, 2, q.Snapshot().QueueSize)
	})

	t.Run("second joiner for a server gets matched", func(t *testing.T) {
		t.Parallel()
		q, lobbies := newQueue(time.Minute)

		q.Join("u-1", "alice", "")
		res := q.Join("u-2", "bob", "")

		assert.Equal(t, "matched", res.Status)
		require.NotNil(t, res.Lobby)

		lobby := *res.Lobby
		assert.Equal(t, "u-1", lobby.HostID, "earliest joiner hosts")
		require.Len(t, lobby.Players, 2)
		assert.True(t, lobby.Players[0].Ready)
		assert.True(t, lobby.Players[1].Ready, "paired joiner arrives pre-ready")

		// the pair leaves the queue
		assert.Equal(t, 0, q.Snapshot().QueueSize)

		// the lobby is startable immediately
		_, err := lobbies.Start(lobby.ID, "u-1", func(internal.Lobby) (string, error) {
			return "m-1", nil
		})
		assert.NoError(t, err)
	})

	t.Run("different servers never pair", func(t *testing.T) {
		t.Parallel()
		q, _ := newQueue(time.Minute)

		q.Join("u-1", "alice", "srv-a")
		res := q.Join("u-2", "bob", "srv-b")

		assert.Equal(t, "queued", res.Status)
		assert.Equal(t, 1, res.QueuePosition, "position counts per server")
		assert.Equal(t, 1, res.PlayersInQueue)
		assert.Equal(t, 2, q.Snapshot().QueueSize)
	})
}

func TestQueueLeave(t *testing.T) {
	t.Parallel()
	q, _ := newQueue(time.Minute)

	q.Join("u-1", "alice", "")
	q.Leave("u-1")
	assert.Equal(t, 0, q.Snapshot().QueueSize)

	assert.NotPanics(t, func() { q.Leave("u-1") })
}

func TestQueueSweep(t *testing.T) {
	t.Parallel()
	q, _ := newQueue(10 * time.Millisecond)

	q.Join("u-1", "alice", "")
	require.Equal(t, 1, q.Snapshot().QueueSize)

	time.Sleep(25 * time.Millisecond)
	q.Sweep()
	assert.Equal(t, 0, q.Snapshot().QueueSize)
}

func TestQueueStaleEntryNeverPairs(t *testing.T) {
	t.Parallel()
	q, _ := newQueue(10 * time.Millisecond)

	q.Join("u-1", "alice", "")
	time.Sleep(25 * time.Millisecond)

	// u-1 is past the TTL, so u-2 starts a fresh queue instead of pairing.
	res := q.Join("u-2", "bob", "")
	assert.Equal(t, "queued", res.Status)
	assert.Equal(t, 1, res.QueuePosition)
}

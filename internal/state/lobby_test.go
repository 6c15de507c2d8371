package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbound/wordbound-server/internal"
	"github.com/wordbound/wordbound-server/internal/state"
)

func newLobbies() *state.Lobbies {
	return state.NewLobbies(0, nil, nil)
}

func TestLobbiesCreate(t *testing.T) {
	t.Parallel()
	ls := newLobbies()

	lobby := ls.Create("host-1", "alice", "")

	assert.NotEmpty(t, lobby.ID)
	assert.Len(t, lobby.Code, 4)
	assert.Equal(t, internal.DefaultServerID, lobby.ServerID)
	assert.Equal(t, "host-1", lobby.HostID)
	assert.Equal(t, internal.LobbyWaiting, lobby.Status)
	assert.Equal(t, internal.DefaultMaxPlayers, lobby.MaxPlayers)

	require.Len(t, lobby.Players, 1)
	host := lobby.Players[0]
	assert.True(t, host.IsHost)
	assert.True(t, host.Ready, "host is pre-ready")
}

func TestLobbiesJoin(t *testing.T) {
	t.Parallel()

	t.Run("by code", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")

		joined, err := ls.JoinByCode(lobby.Code, "u-2", "bob")
		require.NoError(t, err)
		require.Len(t, joined.Players, 2)
		assert.Equal(t, "bob", joined.Players[1].Username)
		assert.False(t, joined.Players[1].Ready)
		assert.False(t, joined.Players[1].IsHost)
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		_, err := ls.JoinByCode("0000", "u-2", "bob")
		assert.ErrorIs(t, err, internal.ErrLobbyNotFound)
	})

	t.Run("rejoin is a no-op", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")
		_, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)

		again, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)
		assert.Len(t, again.Players, 2)
	})

	t.Run("full lobby left untouched", func(t *testing.T) {
		t.Parallel()
		ls := state.NewLobbies(2, nil, nil)
		lobby := ls.Create("host-1", "alice", "")
		_, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)

		_, err = ls.Join(lobby.ID, "u-3", "carol")
		assert.ErrorIs(t, err, internal.ErrLobbyFull)

		current, err := ls.Get(lobby.ID)
		require.NoError(t, err)
		assert.Len(t, current.Players, 2)
	})
}

func TestLobbiesCodesUniqueAmongOpen(t *testing.T) {
	t.Parallel()
	ls := newLobbies()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		lobby := ls.Create("host", "h", "")
		assert.False(t, seen[lobby.Code], "code %s reused", lobby.Code)
		seen[lobby.Code] = true
	}
}

func TestLobbiesSetReady(t *testing.T) {
	t.Parallel()
	ls := newLobbies()
	lobby := ls.Create("host-1", "alice", "")
	_, err := ls.Join(lobby.ID, "u-2", "bob")
	require.NoError(t, err)

	updated, err := ls.SetReady(lobby.ID, "u-2", true)
	require.NoError(t, err)
	assert.True(t, updated.Players[1].Ready)

	updated, err = ls.SetReady(lobby.ID, "u-2", false)
	require.NoError(t, err)
	assert.False(t, updated.Players[1].Ready)

	_, err = ls.SetReady(lobby.ID, "stranger", true)
	assert.ErrorIs(t, err, internal.ErrPlayerNotInLobby)
}

func TestLobbiesLeave(t *testing.T) {
	t.Parallel()

	t.Run("host leaving promotes earliest joiner", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")
		_, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)
		_, err = ls.Join(lobby.ID, "u-3", "carol")
		require.NoError(t, err)

		after, err := ls.Leave(lobby.ID, "host-1")
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.Equal(t, "u-2", after.HostID)
		assert.True(t, after.Players[0].IsHost)
		assert.Len(t, after.Players, 2)
	})

	t.Run("last player out deletes the lobby", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")

		after, err := ls.Leave(lobby.ID, "host-1")
		require.NoError(t, err)
		assert.Nil(t, after)

		_, err = ls.Get(lobby.ID)
		assert.ErrorIs(t, err, internal.ErrLobbyNotFound)
	})

	t.Run("unknown player is a no-op", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")

		after, err := ls.Leave(lobby.ID, "stranger")
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.Len(t, after.Players, 1)
	})
}

func TestLobbiesStart(t *testing.T) {
	t.Parallel()

	createMatch := func(l internal.Lobby) (string, error) { return "match-1", nil }

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")
		_, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)
		_, err = ls.SetReady(lobby.ID, "u-2", true)
		require.NoError(t, err)

		started, err := ls.Start(lobby.ID, "host-1", createMatch)
		require.NoError(t, err)
		assert.Equal(t, internal.LobbyPlaying, started.Status)
		assert.Equal(t, "match-1", started.MatchID)
	})

	t.Run("only the host may start", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")
		_, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)
		_, err = ls.SetReady(lobby.ID, "u-2", true)
		require.NoError(t, err)

		_, err = ls.Start(lobby.ID, "u-2", createMatch)
		assert.ErrorIs(t, err, internal.ErrNotHost)

		// omitting the requester entirely is not a way around the guard
		_, err = ls.Start(lobby.ID, "", createMatch)
		assert.ErrorIs(t, err, internal.ErrNotHost)
	})

	t.Run("needs two players", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")

		_, err := ls.Start(lobby.ID, "host-1", createMatch)
		assert.ErrorIs(t, err, internal.ErrTooFewPlayers)
	})

	t.Run("every non-host must be ready", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")
		_, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)

		_, err = ls.Start(lobby.ID, "host-1", createMatch)
		assert.ErrorIs(t, err, internal.ErrPlayersNotReady)
	})

	t.Run("createMatch failure leaves the lobby waiting", func(t *testing.T) {
		t.Parallel()
		ls := newLobbies()
		lobby := ls.Create("host-1", "alice", "")
		_, err := ls.Join(lobby.ID, "u-2", "bob")
		require.NoError(t, err)
		_, err = ls.SetReady(lobby.ID, "u-2", true)
		require.NoError(t, err)

		_, err = ls.Start(lobby.ID, "host-1", func(internal.Lobby) (string, error) {
			return "", assert.AnError
		})
		require.Error(t, err)

		current, err := ls.Get(lobby.ID)
		require.NoError(t, err)
		assert.Equal(t, internal.LobbyWaiting, current.Status)
	})
}

func TestLobbiesFinish(t *testing.T) {
	t.Parallel()
	ls := newLobbies()
	lobby := ls.Create("host-1", "alice", "")

	ls.Finish(lobby.ID)

	current, err := ls.Get(lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, internal.LobbyFinished, current.Status)

	assert.NotPanics(t, func() { ls.Finish("missing") })
}

package state_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbound/wordbound-server/internal"
	"github.com/wordbound/wordbound-server/internal/state"
	"github.com/wordbound/wordbound-server/internal/words"
)

// fixedValidator accepts every path as the same word and score.
func fixedValidator(word string, score int) words.Validator {
	return words.ValidatorFunc(func([]internal.Tile) (words.Result, bool) {
		return words.Result{Word: word, Score: score}, true
	})
}

var rejectAll = words.ValidatorFunc(func([]internal.Tile) (words.Result, bool) {
	return words.Result{}, false
})

type engineFixture struct {
	engine  *state.Engine
	users   *state.Registry
	lobbies *state.Lobbies
}

func newEngineFixture(t *testing.T, cfg state.EngineConfig, v words.Validator) *engineFixture {
	t.Helper()
	users := state.NewRegistry(nil, nil, nil)
	lobbies := state.NewLobbies(0, nil, nil)
	return &engineFixture{
		engine:  state.NewEngine(cfg, v, users, lobbies, nil, nil, nil),
		users:   users,
		lobbies: lobbies,
	}
}

// startTwoPlayerMatch registers users "A" and "B", runs them through a lobby
// and returns the started match. "A" hosts and is on turn first.
func (f *engineFixture) startTwoPlayerMatch(t *testing.T) internal.Match {
	t.Helper()
	for _, id := range []string{"A", "B"} {
		_, err := f.users.Resolve(state.Identity{ExternalID: id, Username: "player-" + id})
		require.NoError(t, err)
	}
	lobby := f.lobbies.Create("A", "player-A", "")
	_, err := f.lobbies.Join(lobby.ID, "B", "player-B")
	require.NoError(t, err)
	_, err = f.lobbies.SetReady(lobby.ID, "B", true)
	require.NoError(t, err)

	_, match, err := f.engine.StartLobby(lobby.ID, "A", nil)
	require.NoError(t, err)
	return match
}

func TestEngineStartLobby(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.DefaultEngineConfig(), rejectAll)

	match := f.startTwoPlayerMatch(t)

	assert.Equal(t, internal.MatchInProgress, match.Status)
	assert.Equal(t, "A", match.CurrentPlayerID, "first joiner is on turn")
	assert.Equal(t, 1, match.RoundNumber)
	require.Len(t, match.Players, 2)
	assert.Nil(t, match.Players[0].Rank)

	require.Len(t, match.Grid, internal.GridSize)
	gems := 0
	for _, row := range match.Grid {
		require.Len(t, row, internal.GridSize)
		for _, tile := range row {
			if tile.IsGem {
				gems++
			}
		}
	}
	assert.Equal(t, internal.GemsPerGrid, gems)

	lobby, err := f.lobbies.Get(match.LobbyID)
	require.NoError(t, err)
	assert.Equal(t, internal.LobbyPlaying, lobby.Status)
	assert.Equal(t, match.ID, lobby.MatchID)
}

func TestEngineSubmitTurnGuards(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.DefaultEngineConfig(), rejectAll)
	match := f.startTwoPlayerMatch(t)

	_, err := f.engine.SubmitTurn("missing", "A", nil)
	assert.ErrorIs(t, err, internal.ErrMatchNotFound)

	_, err = f.engine.SubmitTurn(match.ID, "B", nil)
	assert.ErrorIs(t, err, internal.ErrNotYourTurn)
}

func TestEngineSubmitTurnScoring(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.EngineConfig{MaxRoundsPerPlayer: 4, GemBonus: 10}, fixedValidator("CAT", 15))
	match := f.startTwoPlayerMatch(t)

	path := []internal.Tile{
		{Row: 0, Col: 0, Letter: "C"},
		{Row: 0, Col: 1, Letter: "A", IsGem: true},
		{Row: 0, Col: 2, Letter: "T"},
	}
	res, err := f.engine.SubmitTurn(match.ID, "A", path)
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, "CAT", res.Word)
	assert.Equal(t, 25, res.ScoreGained, "base 15 plus one gem bonus")

	p := res.Match.PlayerAt("A")
	require.NotNil(t, p)
	assert.Equal(t, 25, p.Score)
	assert.Equal(t, 1, p.WordsFound)
	assert.Equal(t, 1, p.RoundsPlayed)

	require.Len(t, res.Match.WordsFound, 1)
	assert.Equal(t, internal.FoundWord{Word: "CAT", Score: 25, PlayerID: "A"}, res.Match.WordsFound[0])

	// consumed tiles are redrawn without their gems
	assert.False(t, res.Match.Grid[0][1].IsGem)

	assert.Equal(t, "B", res.Match.CurrentPlayerID)
	assert.Equal(t, 1, res.Match.RoundNumber, "round advances only on wrap")
}

func TestEngineSubmitTurnInvalidWordBurnsTurn(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.DefaultEngineConfig(), rejectAll)
	match := f.startTwoPlayerMatch(t)

	res, err := f.engine.SubmitTurn(match.ID, "A", []internal.Tile{{Letter: "X"}})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.Zero(t, res.ScoreGained)
	assert.Empty(t, res.Match.WordsFound)

	p := res.Match.PlayerAt("A")
	require.NotNil(t, p)
	assert.Equal(t, 1, p.RoundsPlayed, "failed words still consume the turn")
	assert.Equal(t, "B", res.Match.CurrentPlayerID)
}

func TestEngineFullMatch(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.EngineConfig{MaxRoundsPerPlayer: 2, GemBonus: 10}, fixedValidator("WORD", 10))
	match := f.startTwoPlayerMatch(t)

	path := []internal.Tile{{Letter: "W"}, {Letter: "O"}, {Letter: "R"}, {Letter: "D"}}

	// two rounds each, alternating in join order
	var last state.TurnResult
	turns := []struct {
		player string
		play   []internal.Tile
	}{
		{"A", path},
		{"B", path},
		{"A", path},
		{"B", path},
	}
	for i, turn := range turns {
		res, err := f.engine.SubmitTurn(match.ID, turn.player, turn.play)
		require.NoError(t, err, "turn %d", i)
		last = res
	}

	final := last.Match
	assert.Equal(t, internal.MatchCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.Equal(t, 2, final.RoundNumber)

	for _, p := range final.Players {
		require.NotNil(t, p.Rank, "player %s unranked", p.UserID)
		assert.Equal(t, 2, p.RoundsPlayed)
	}

	// equal scores: original player order breaks the tie
	assert.Equal(t, 1, *final.PlayerAt("A").Rank)
	assert.Equal(t, 2, *final.PlayerAt("B").Rank)

	lobby, err := f.lobbies.Get(match.LobbyID)
	require.NoError(t, err)
	assert.Equal(t, internal.LobbyFinished, lobby.Status)

	statsA, err := f.users.GetStats("A")
	require.NoError(t, err)
	assert.Equal(t, 1, statsA.TotalMatches)
	assert.Equal(t, 1, statsA.TotalWins)
	assert.Equal(t, 20, statsA.TotalScore)

	statsB, err := f.users.GetStats("B")
	require.NoError(t, err)
	assert.Equal(t, 1, statsB.TotalMatches)
	assert.Equal(t, 0, statsB.TotalWins)

	// the completed match refuses further turns
	_, err = f.engine.SubmitTurn(match.ID, final.CurrentPlayerID, path)
	assert.ErrorIs(t, err, internal.ErrMatchCompleted)
}

func TestEngineRankTies(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.DefaultEngineConfig(), rejectAll)

	m := f.engine.UpdateProgress("ext-1", state.ProgressUpdate{
		Players: []internal.MatchPlayer{
			{UserID: "A", Username: "a", Score: 30},
			{UserID: "B", Username: "b", Score: 30},
			{UserID: "C", Username: "c", Score: 10},
		},
		GameOver: true,
	})

	assert.Equal(t, internal.MatchCompleted, m.Status)
	assert.Equal(t, 1, *m.PlayerAt("A").Rank)
	assert.Equal(t, 2, *m.PlayerAt("B").Rank, "ties keep original order")
	assert.Equal(t, 3, *m.PlayerAt("C").Rank)
}

func TestEngineRecordResults(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.DefaultEngineConfig(), rejectAll)
	for _, id := range []string{"A", "B"} {
		_, err := f.users.Resolve(state.Identity{ExternalID: id, Username: "player-" + id})
		require.NoError(t, err)
	}

	found := []internal.FoundWord{{Word: "HELLO", Score: 40, PlayerID: "B"}}
	m := f.engine.RecordResults("", []state.ResultPlayer{
		{ID: "A", Username: "player-A", Score: 20},
		{ID: "B", Username: "player-B", Score: 40, WordsFound: []string{"HELLO"}},
	}, nil, found, "")

	require.NotEmpty(t, m.ID)
	assert.Equal(t, internal.MatchCompleted, m.Status)

	// players come back ordered by rank
	require.Len(t, m.Players, 2)
	assert.Equal(t, "B", m.Players[0].UserID)
	assert.Equal(t, 1, *m.Players[0].Rank)
	assert.Equal(t, 2, *m.Players[1].Rank)

	statsB, err := f.users.GetStats("B")
	require.NoError(t, err)
	assert.Equal(t, 1, statsB.TotalWins)

	statsA, err := f.users.GetStats("A")
	require.NoError(t, err)
	assert.Equal(t, 0, statsA.TotalWins)
	assert.Equal(t, 1, statsA.TotalMatches)
}

func TestEngineUpdateProgress(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.DefaultEngineConfig(), rejectAll)

	m := f.engine.UpdateProgress("ext-2", state.ProgressUpdate{
		Players:         []internal.MatchPlayer{{UserID: "A", Score: 12}},
		CurrentPlayerID: "A",
		RoundNumber:     3,
	})

	assert.Equal(t, internal.MatchInProgress, m.Status)
	assert.Equal(t, 3, m.RoundNumber)
	assert.Equal(t, "A", m.CurrentPlayerID)

	// partial updates keep previous fields
	m = f.engine.UpdateProgress("ext-2", state.ProgressUpdate{RoundNumber: 4})
	assert.Equal(t, 4, m.RoundNumber)
	assert.Equal(t, "A", m.CurrentPlayerID)
	require.Len(t, m.Players, 1)
	assert.Equal(t, 12, m.Players[0].Score)
}

func TestEngineHistory(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t, state.DefaultEngineConfig(), rejectAll)

	for i := 0; i < 3; i++ {
		f.engine.RecordResults(fmt.Sprintf("m-%d", i), []state.ResultPlayer{
			{ID: "A", Username: "a", Score: i},
		}, nil, nil, "")
	}

	history := f.engine.History("A", 0)
	require.Len(t, history, 3)
	assert.Equal(t, "m-2", history[0].ID, "most recent first")

	history = f.engine.History("A", 2)
	assert.Len(t, history, 2)

	assert.Empty(t, f.engine.History("nobody", 0))
}

package state

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wordbound/wordbound-server/internal"
	"github.com/wordbound/wordbound-server/internal/words"
)

// EngineConfig tunes the turn economy.
type EngineConfig struct {
	MaxRoundsPerPlayer int
	GemBonus           int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxRoundsPerPlayer: internal.MaxRoundsPerPlayer,
		GemBonus:           internal.GemBonus,
	}
}

// TurnResult is what SubmitTurn hands back: the updated match plus what the
// submitted path was worth. Valid=false still consumed the turn.
type TurnResult struct {
	Match       internal.Match `json:"match"`
	Valid       bool           `json:"valid"`
	Word        string         `json:"word,omitempty"`
	ScoreGained int            `json:"scoreGained"`
}

// ResultPlayer is one participant in an ad hoc result submission.
type ResultPlayer struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Score      int      `json:"score"`
	WordsFound []string `json:"wordsFound,omitempty"`
}

// ProgressUpdate is the client-authoritative bulk update for a match that is
// tracked turn-by-turn on the client rather than through SubmitTurn.
type ProgressUpdate struct {
	Players         []internal.MatchPlayer `json:"players"`
	CurrentPlayerID string                 `json:"currentPlayerId"`
	Grid            internal.Grid          `json:"gridData"`
	WordsFound      []internal.FoundWord   `json:"wordsFound"`
	RoundNumber     int                    `json:"roundNumber"`
	GameOver        bool                   `json:"gameOver"`
}

// Engine is the turn-based match state machine. It owns the match map and is
// the only component that mutates match state during play.
type Engine struct {
	mu      sync.RWMutex
	matches map[string]*internal.Match

	cfg       EngineConfig
	validator words.Validator
	users     *Registry
	lobbies   *Lobbies
	emit      internal.Emitter
	archiver  Archiver
	logger    *log.Logger
}

func NewEngine(cfg EngineConfig, validator words.Validator, users *Registry, lobbies *Lobbies, emit internal.Emitter, archiver Archiver, logger *log.Logger) *Engine {
	if cfg.MaxRoundsPerPlayer <= 0 {
		cfg.MaxRoundsPerPlayer = internal.MaxRoundsPerPlayer
	}
	if emit == nil {
		emit = internal.NopEmitter{}
	}
	return &Engine{
		matches:   make(map[string]*internal.Match),
		cfg:       cfg,
		validator: validator,
		users:     users,
		lobbies:   lobbies,
		emit:      emit,
		archiver:  archiver,
		logger:    componentLogger(logger, "match"),
	}
}

// StartLobby is the start path for lobby play: lobby preconditions are
// enforced by the lobby manager, the engine snapshots the players into a new
// match with the first joiner on turn.
func (e *Engine) StartLobby(lobbyID, hostUserID string, grid internal.Grid) (internal.Lobby, internal.Match, error) {
	var created internal.Match
	lobby, err := e.lobbies.Start(lobbyID, hostUserID, func(l internal.Lobby) (string, error) {
		now := time.Now()
		if grid == nil {
			grid = GenerateGrid()
		}
		m := &internal.Match{
			ID:              uuid.NewString(),
			LobbyID:         l.ID,
			Status:          internal.MatchInProgress,
			CurrentPlayerID: l.Players[0].UserID,
			Grid:            grid,
			WordsFound:      []internal.FoundWord{},
			RoundNumber:     1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		for _, p := range l.Players {
			m.Players = append(m.Players, internal.MatchPlayer{
				UserID:   p.UserID,
				Username: p.Username,
			})
		}
		e.mu.Lock()
		e.matches[m.ID] = m
		created = m.Clone()
		e.mu.Unlock()
		return m.ID, nil
	})
	if err != nil {
		return internal.Lobby{}, internal.Match{}, err
	}

	e.logger.Info("match started", "matchId", created.ID, "lobbyId", lobbyID, "players", len(created.Players))
	e.emit.Emit(internal.MatchStartedEvent{Match: created})
	return lobby, created, nil
}

func (e *Engine) Get(matchID string) (internal.Match, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.matches[matchID]
	if !ok {
		return internal.Match{}, internal.ErrMatchNotFound
	}
	return m.Clone(), nil
}

// SubmitTurn plays one turn. The word validator decides whether the path
// scores; either way the submitting player's round count advances — an
// invalid word burns the turn, and that burn is what drives the completion
// condition, so it must not be "fixed".
func (e *Engine) SubmitTurn(matchID, playerID string, path []internal.Tile) (TurnResult, error) {
	e.mu.Lock()
	m, ok := e.matches[matchID]
	if !ok {
		e.mu.Unlock()
		return TurnResult{}, internal.ErrMatchNotFound
	}
	if m.Status != internal.MatchInProgress {
		e.mu.Unlock()
		return TurnResult{}, internal.ErrMatchCompleted
	}
	if m.CurrentPlayerID != playerID {
		e.mu.Unlock()
		return TurnResult{}, internal.ErrNotYourTurn
	}
	player := m.PlayerAt(playerID)
	if player == nil {
		e.mu.Unlock()
		return TurnResult{}, internal.ErrPlayerNotInLobby
	}

	now := time.Now()
	result := TurnResult{}
	if res, valid := e.validator.Validate(path); valid {
		gems := 0
		for _, t := range path {
			if t.IsGem {
				gems++
			}
		}
		total := res.Score + gems*e.cfg.GemBonus
		player.Score += total
		player.WordsFound++
		m.WordsFound = append(m.WordsFound, internal.FoundWord{
			Word:     res.Word,
			Score:    total,
			PlayerID: playerID,
		})
		e.refreshTiles(m.Grid, path)
		result.Valid = true
		result.Word = res.Word
		result.ScoreGained = total
	}
	player.RoundsPlayed++
	m.UpdatedAt = now

	finished := true
	for _, p := range m.Players {
		if p.RoundsPlayed < e.cfg.MaxRoundsPerPlayer {
			finished = false
			break
		}
	}

	var completed internal.Match
	if finished {
		e.completeLocked(m, now)
		completed = m.Clone()
	} else {
		// Advance to the next player in original join order, wrapping.
		for i, p := range m.Players {
			if p.UserID == playerID {
				next := m.Players[(i+1)%len(m.Players)]
				m.CurrentPlayerID = next.UserID
				if (i+1)%len(m.Players) == 0 {
					m.RoundNumber++
				}
				break
			}
		}
	}
	result.Match = m.Clone()
	e.mu.Unlock()

	if finished {
		e.finishSideEffects(completed)
	} else {
		e.emit.Emit(internal.MatchUpdatedEvent{Match: result.Match})
	}
	return result, nil
}

// RecordResults is the alternate completion path for matches whose turns
// were not tracked server side. It creates or overwrites the match, ranks
// players by descending score (ties keep input order), and applies stats for
// every participant.
func (e *Engine) RecordResults(matchID string, players []ResultPlayer, grid internal.Grid, found []internal.FoundWord, lobbyID string) internal.Match {
	if matchID == "" {
		matchID = uuid.NewString()
	}
	now := time.Now()

	e.mu.Lock()
	m, ok := e.matches[matchID]
	if !ok {
		m = &internal.Match{
			ID:        matchID,
			LobbyID:   lobbyID,
			Status:    internal.MatchInProgress,
			CreatedAt: now,
		}
		e.matches[matchID] = m
	}

	sorted := append([]ResultPlayer(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	m.Players = make([]internal.MatchPlayer, len(sorted))
	for i, p := range sorted {
		rank := i + 1
		m.Players[i] = internal.MatchPlayer{
			UserID:     p.ID,
			Username:   p.Username,
			Score:      p.Score,
			WordsFound: len(p.WordsFound),
			Rank:       &rank,
		}
	}
	if grid != nil {
		m.Grid = grid
	}
	if found != nil {
		m.WordsFound = found
	}
	m.Status = internal.MatchCompleted
	m.CompletedAt = &now
	m.UpdatedAt = now
	out := m.Clone()
	e.mu.Unlock()

	// One stats write per participant, winner is the sorted leader. The
	// match-level word count is credited to everyone.
	for i, p := range sorted {
		e.users.RecordOutcome(p.ID, i == 0, p.Score, len(found))
	}
	if lobbyID != "" {
		e.lobbies.Finish(lobbyID)
	}

	e.logger.Info("match results recorded", "matchId", matchID, "players", len(players))
	e.emit.Emit(internal.MatchCompletedEvent{Match: out})
	e.archiveMatch(out)
	return out
}

// UpdateProgress applies a client-authoritative snapshot of an externally
// tracked match, creating the match if the id is new. gameOver finalizes and
// applies stats the same way completion through SubmitTurn does.
func (e *Engine) UpdateProgress(matchID string, up ProgressUpdate) internal.Match {
	now := time.Now()

	e.mu.Lock()
	m, ok := e.matches[matchID]
	if !ok {
		m = &internal.Match{
			ID:        matchID,
			Status:    internal.MatchInProgress,
			CreatedAt: now,
		}
		e.matches[matchID] = m
	}
	if up.Players != nil {
		m.Players = append([]internal.MatchPlayer(nil), up.Players...)
	}
	if up.CurrentPlayerID != "" {
		m.CurrentPlayerID = up.CurrentPlayerID
	}
	if up.Grid != nil {
		m.Grid = up.Grid
	}
	if up.WordsFound != nil {
		m.WordsFound = append([]internal.FoundWord(nil), up.WordsFound...)
	}
	if up.RoundNumber > 0 {
		m.RoundNumber = up.RoundNumber
	}
	m.UpdatedAt = now

	finished := up.GameOver && m.Status == internal.MatchInProgress
	var completed internal.Match
	if finished {
		e.completeLocked(m, now)
		completed = m.Clone()
	}
	out := m.Clone()
	e.mu.Unlock()

	if finished {
		e.finishSideEffects(completed)
	} else {
		e.emit.Emit(internal.MatchUpdatedEvent{Match: out})
	}
	return out
}

// History lists matches the user played, most recently completed first.
func (e *Engine) History(userID string, limit int) []internal.Match {
	if limit <= 0 {
		limit = 20
	}
	e.mu.RLock()
	var out []internal.Match
	for _, m := range e.matches {
		if m.PlayerAt(userID) != nil {
			out = append(out, m.Clone())
		}
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].UpdatedAt, out[j].UpdatedAt
		if out[i].CompletedAt != nil {
			ti = *out[i].CompletedAt
		}
		if out[j].CompletedAt != nil {
			tj = *out[j].CompletedAt
		}
		return ti.After(tj)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// completeLocked finalizes a match in place: status, timestamps, and dense
// ranks by descending score with ties broken by original player order.
// Callers hold e.mu and run finishSideEffects afterwards.
func (e *Engine) completeLocked(m *internal.Match, now time.Time) {
	m.Status = internal.MatchCompleted
	m.CompletedAt = &now
	m.UpdatedAt = now

	order := make([]int, len(m.Players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return m.Players[order[a]].Score > m.Players[order[b]].Score
	})
	for rank, idx := range order {
		r := rank + 1
		m.Players[idx].Rank = &r
	}
}

// finishSideEffects runs the out-of-lock completion work: stats in player
// order, lobby close-out, event, archive.
func (e *Engine) finishSideEffects(m internal.Match) {
	for _, p := range m.Players {
		isWinner := p.Rank != nil && *p.Rank == 1
		e.users.RecordOutcome(p.UserID, isWinner, p.Score, p.WordsFound)
	}
	if m.LobbyID != "" {
		e.lobbies.Finish(m.LobbyID)
	}
	e.logger.Info("match completed", "matchId", m.ID)
	e.emit.Emit(internal.MatchCompletedEvent{Match: m})
	e.archiveMatch(m)
}

// refreshTiles redraws the letters of every tile the scored path consumed.
// Collected gems are spent with the word.
func (e *Engine) refreshTiles(grid internal.Grid, path []internal.Tile) {
	letters := internal.ReplacementLetters
	for _, t := range path {
		if t.Row < 0 || t.Row >= len(grid) || t.Col < 0 || t.Col >= len(grid[t.Row]) {
			continue
		}
		cell := &grid[t.Row][t.Col]
		cell.Letter = string(letters[rand.Intn(len(letters))])
		cell.IsGem = false
	}
}

func (e *Engine) archiveMatch(m internal.Match) {
	if e.archiver == nil {
		return
	}
	go func() {
		if err := e.archiver.ArchiveMatch(m); err != nil {
			e.logger.Warn("match archive failed", "matchId", m.ID, "err", err)
		}
	}()
}

// GenerateGrid builds a fresh board with random letters and a few gem tiles.
func GenerateGrid() internal.Grid {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	grid := make(internal.Grid, internal.GridSize)
	for r := 0; r < internal.GridSize; r++ {
		grid[r] = make([]internal.Tile, internal.GridSize)
		for c := 0; c < internal.GridSize; c++ {
			grid[r][c] = internal.Tile{
				Row:    r,
				Col:    c,
				Letter: string(alphabet[rand.Intn(len(alphabet))]),
			}
		}
	}
	for placed := 0; placed < internal.GemsPerGrid; {
		r, c := rand.Intn(internal.GridSize), rand.Intn(internal.GridSize)
		if !grid[r][c].IsGem {
			grid[r][c].IsGem = true
			placed++
		}
	}
	return grid
}

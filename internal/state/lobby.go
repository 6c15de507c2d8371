package state

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wordbound/wordbound-server/internal"
)

// Lobbies owns every waiting room. Lobby state is only reachable through its
// exported methods; the matchmaking queue and the match engine go through
// them like any other caller.
type Lobbies struct {
	mu      sync.RWMutex
	lobbies map[string]*internal.Lobby

	maxPlayers int
	emit       internal.Emitter
	logger     *log.Logger
}

func NewLobbies(maxPlayers int, emit internal.Emitter, logger *log.Logger) *Lobbies {
	if maxPlayers <= 0 {
		maxPlayers = internal.DefaultMaxPlayers
	}
	if emit == nil {
		emit = internal.NopEmitter{}
	}
	return &Lobbies{
		lobbies:    make(map[string]*internal.Lobby),
		maxPlayers: maxPlayers,
		emit:       emit,
		logger:     componentLogger(logger, "lobby"),
	}
}

// Create opens a lobby with the host as its only player, pre-marked ready.
func (ls *Lobbies) Create(hostID, hostUsername, serverID string) internal.Lobby {
	if serverID == "" {
		serverID = internal.DefaultServerID
	}
	now := time.Now()

	ls.mu.Lock()
	lobby := &internal.Lobby{
		ID:         uuid.NewString(),
		Code:       ls.generateCodeLocked(),
		ServerID:   serverID,
		HostID:     hostID,
		Status:     internal.LobbyWaiting,
		MaxPlayers: ls.maxPlayers,
		Players: []internal.LobbyPlayer{{
			UserID:   hostID,
			Username: hostUsername,
			Ready:    true,
			IsHost:   true,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	ls.lobbies[lobby.ID] = lobby
	out := lobby.Clone()
	ls.mu.Unlock()

	ls.logger.Info("lobby created", "lobbyId", out.ID, "code", out.Code, "serverId", serverID)
	ls.emit.Emit(internal.LobbyUpdatedEvent{Lobby: out})
	return out
}

// generateCodeLocked picks a 4-digit code unique among non-finished lobbies,
// regenerating on collision. Callers hold ls.mu.
func (ls *Lobbies) generateCodeLocked() string {
	for {
		code := fmt.Sprintf("%04d", 1000+rand.Intn(9000))
		taken := false
		for _, l := range ls.lobbies {
			if l.Status != internal.LobbyFinished && l.Code == code {
				taken = true
				break
			}
		}
		if !taken {
			return code
		}
	}
}

func (ls *Lobbies) Get(lobbyID string) (internal.Lobby, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	l, ok := ls.lobbies[lobbyID]
	if !ok {
		return internal.Lobby{}, internal.ErrLobbyNotFound
	}
	return l.Clone(), nil
}

// JoinByCode resolves a join code against waiting lobbies, then joins.
func (ls *Lobbies) JoinByCode(code, userID, username string) (internal.Lobby, error) {
	ls.mu.RLock()
	var lobbyID string
	for _, l := range ls.lobbies {
		if l.Code == code && l.Status == internal.LobbyWaiting {
			lobbyID = l.ID
			break
		}
	}
	ls.mu.RUnlock()
	if lobbyID == "" {
		return internal.Lobby{}, internal.ErrLobbyNotFound
	}
	return ls.Join(lobbyID, userID, username)
}

// Join appends a player (not ready, not host). Joining a lobby the player is
// already in is a no-op returning current state; joining a full lobby fails
// and leaves the lobby untouched.
func (ls *Lobbies) Join(lobbyID, userID, username string) (internal.Lobby, error) {
	ls.mu.Lock()
	l, ok := ls.lobbies[lobbyID]
	if !ok {
		ls.mu.Unlock()
		return internal.Lobby{}, internal.ErrLobbyNotFound
	}
	if l.PlayerAt(userID) != nil {
		out := l.Clone()
		ls.mu.Unlock()
		return out, nil
	}
	if len(l.Players) >= l.MaxPlayers {
		ls.mu.Unlock()
		return internal.Lobby{}, internal.ErrLobbyFull
	}
	now := time.Now()
	l.Players = append(l.Players, internal.LobbyPlayer{
		UserID:   userID,
		Username: username,
		JoinedAt: now,
	})
	l.UpdatedAt = now
	out := l.Clone()
	ls.mu.Unlock()

	ls.emit.Emit(internal.LobbyUpdatedEvent{Lobby: out})
	return out, nil
}

// SetReady flips one player's ready flag.
func (ls *Lobbies) SetReady(lobbyID, userID string, ready bool) (internal.Lobby, error) {
	ls.mu.Lock()
	l, ok := ls.lobbies[lobbyID]
	if !ok {
		ls.mu.Unlock()
		return internal.Lobby{}, internal.ErrLobbyNotFound
	}
	p := l.PlayerAt(userID)
	if p == nil {
		ls.mu.Unlock()
		return internal.Lobby{}, internal.ErrPlayerNotInLobby
	}
	p.Ready = ready
	l.UpdatedAt = time.Now()
	out := l.Clone()
	ls.mu.Unlock()

	ls.emit.Emit(internal.LobbyUpdatedEvent{Lobby: out})
	return out, nil
}

// Leave removes a player. The last player out deletes the lobby entirely;
// a departing host hands the room to the earliest-joined remaining player.
// Returns nil when the lobby was deleted.
func (ls *Lobbies) Leave(lobbyID, userID string) (*internal.Lobby, error) {
	ls.mu.Lock()
	l, ok := ls.lobbies[lobbyID]
	if !ok {
		ls.mu.Unlock()
		return nil, internal.ErrLobbyNotFound
	}

	idx := -1
	for i := range l.Players {
		if l.Players[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		out := l.Clone()
		ls.mu.Unlock()
		return &out, nil
	}
	l.Players = append(l.Players[:idx], l.Players[idx+1:]...)

	if len(l.Players) == 0 {
		delete(ls.lobbies, lobbyID)
		serverID := l.ServerID
		ls.mu.Unlock()
		ls.logger.Info("lobby deleted", "lobbyId", lobbyID)
		ls.emit.Emit(internal.LobbyDeletedEvent{LobbyID: lobbyID, ServerID: serverID})
		return nil, nil
	}

	if userID == l.HostID {
		next := &l.Players[0]
		l.HostID = next.UserID
		next.IsHost = true
		ls.logger.Info("host promoted", "lobbyId", lobbyID, "newHost", next.UserID)
	}
	l.UpdatedAt = time.Now()
	out := l.Clone()
	ls.mu.Unlock()

	ls.emit.Emit(internal.LobbyUpdatedEvent{Lobby: out})
	return &out, nil
}

// Start transitions a lobby to playing. Only the host may start; every
// non-host player must be ready and at least two players must be present.
// createMatch snapshots the lobby into a new match and returns its id; the
// lobby never reaches into match state itself.
func (ls *Lobbies) Start(lobbyID, hostUserID string, createMatch func(l internal.Lobby) (string, error)) (internal.Lobby, error) {
	ls.mu.Lock()
	l, ok := ls.lobbies[lobbyID]
	if !ok {
		ls.mu.Unlock()
		return internal.Lobby{}, internal.ErrLobbyNotFound
	}
	if hostUserID != l.HostID {
		ls.mu.Unlock()
		return internal.Lobby{}, internal.ErrNotHost
	}
	if len(l.Players) < internal.MinPlayersToStart {
		ls.mu.Unlock()
		return internal.Lobby{}, internal.ErrTooFewPlayers
	}
	for _, p := range l.Players {
		if !p.IsHost && !p.Ready {
			ls.mu.Unlock()
			return internal.Lobby{}, internal.ErrPlayersNotReady
		}
	}

	snapshot := l.Clone()
	matchID, err := createMatch(snapshot)
	if err != nil {
		ls.mu.Unlock()
		return internal.Lobby{}, err
	}
	l.Status = internal.LobbyPlaying
	l.MatchID = matchID
	l.UpdatedAt = time.Now()
	out := l.Clone()
	ls.mu.Unlock()

	ls.logger.Info("lobby started", "lobbyId", lobbyID, "matchId", matchID)
	ls.emit.Emit(internal.LobbyUpdatedEvent{Lobby: out})
	return out, nil
}

// Finish marks a lobby finished once its match completes. Missing lobbies
// are ignored: ad hoc match recording may carry ids this manager never saw.
func (ls *Lobbies) Finish(lobbyID string) {
	ls.mu.Lock()
	l, ok := ls.lobbies[lobbyID]
	if !ok {
		ls.mu.Unlock()
		return
	}
	l.Status = internal.LobbyFinished
	l.UpdatedAt = time.Now()
	out := l.Clone()
	ls.mu.Unlock()

	ls.emit.Emit(internal.LobbyUpdatedEvent{Lobby: out})
}

package state

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wordbound/wordbound-server/internal"
)

// QueueEntry is one waiting player. At most one entry exists per user.
type QueueEntry struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	ServerID string    `json:"serverId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// JoinResult is the response shape for a queue join: either still queued
// with a position, or matched into a fresh lobby.
type JoinResult struct {
	Status         string          `json:"status"`
	QueuePosition  int             `json:"queuePosition,omitempty"`
	PlayersInQueue int             `json:"playersInQueue,omitempty"`
	Lobby          *internal.Lobby `json:"lobby,omitempty"`
}

// QueueSnapshot is the diagnostics view of the whole queue.
type QueueSnapshot struct {
	QueueSize int          `json:"queueSize"`
	Entries   []QueueEntry `json:"entries"`
}

// Queue is the per-server FIFO matchmaking pool. It pairs the two
// earliest-joined players for a server into a lobby; later joiners grow the
// lobby through the normal join path.
type Queue struct {
	mu      sync.Mutex
	entries []QueueEntry

	ttl     time.Duration
	lobbies *Lobbies
	emit    internal.Emitter
	logger  *log.Logger
}

func NewQueue(ttl time.Duration, lobbies *Lobbies, emit internal.Emitter, logger *log.Logger) *Queue {
	if emit == nil {
		emit = internal.NopEmitter{}
	}
	return &Queue{
		ttl:     ttl,
		lobbies: lobbies,
		emit:    emit,
		logger:  componentLogger(logger, "matchmaking"),
	}
}

// Join inserts the player (idempotently) and immediately tries to pair the
// two earliest waiters for the server. The earlier of the pair becomes host;
// the second joins pre-ready so the host can start right away.
func (q *Queue) Join(userID, username, serverID string) JoinResult {
	if serverID == "" {
		serverID = internal.DefaultServerID
	}

	q.mu.Lock()
	q.purgeStaleLocked(time.Now())

	found := false
	for _, e := range q.entries {
		if e.UserID == userID {
			found = true
			break
		}
	}
	if !found {
		q.entries = append(q.entries, QueueEntry{
			UserID:   userID,
			Username: username,
			ServerID: serverID,
			JoinedAt: time.Now(),
		})
	}

	var pair []QueueEntry
	for _, e := range q.entries {
		if e.ServerID == serverID {
			pair = append(pair, e)
			if len(pair) == 2 {
				break
			}
		}
	}

	if len(pair) == 2 {
		q.removeLocked(pair[0].UserID)
		q.removeLocked(pair[1].UserID)
		size := len(q.entries)
		q.mu.Unlock()

		lobby := q.lobbies.Create(pair[0].UserID, pair[0].Username, serverID)
		if _, err := q.lobbies.Join(lobby.ID, pair[1].UserID, pair[1].Username); err != nil {
			q.logger.Error("paired join failed", "lobbyId", lobby.ID, "err", err)
		}
		if ready, err := q.lobbies.SetReady(lobby.ID, pair[1].UserID, true); err != nil {
			q.logger.Error("paired ready failed", "lobbyId", lobby.ID, "err", err)
		} else {
			lobby = ready
		}

		q.logger.Info("players matched", "host", pair[0].UserID, "joiner", pair[1].UserID, "serverId", serverID)
		q.emit.Emit(internal.MatchmakingUpdatedEvent{QueueSize: size})
		return JoinResult{Status: "matched", Lobby: &lobby}
	}

	position := 0
	inQueue := 0
	for _, e := range q.entries {
		if e.ServerID != serverID {
			continue
		}
		inQueue++
		if e.UserID == userID {
			position = inQueue
		}
	}
	size := len(q.entries)
	q.mu.Unlock()

	q.emit.Emit(internal.MatchmakingUpdatedEvent{QueueSize: size})
	return JoinResult{Status: "queued", QueuePosition: position, PlayersInQueue: inQueue}
}

// Leave removes the player's entry if present. The event fires only when
// something actually changed.
func (q *Queue) Leave(userID string) {
	q.mu.Lock()
	before := len(q.entries)
	q.removeLocked(userID)
	after := len(q.entries)
	q.mu.Unlock()

	if before != after {
		q.emit.Emit(internal.MatchmakingUpdatedEvent{QueueSize: after})
	}
}

// Snapshot is a read-only copy for diagnostics and UI.
func (q *Queue) Snapshot() QueueSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := append([]QueueEntry(nil), q.entries...)
	return QueueSnapshot{QueueSize: len(entries), Entries: entries}
}

// Sweep drops entries older than the TTL. The scheduler calls this
// periodically; Join also purges lazily before matching.
func (q *Queue) Sweep() {
	q.mu.Lock()
	before := len(q.entries)
	q.purgeStaleLocked(time.Now())
	after := len(q.entries)
	q.mu.Unlock()

	if before != after {
		q.logger.Info("purged stale queue entries", "removed", before-after)
		q.emit.Emit(internal.MatchmakingUpdatedEvent{QueueSize: after})
	}
}

func (q *Queue) purgeStaleLocked(now time.Time) {
	if q.ttl <= 0 {
		return
	}
	kept := q.entries[:0]
	for _, e := range q.entries {
		if now.Sub(e.JoinedAt) <= q.ttl {
			kept = append(kept, e)
		}
	}
	q.entries = kept
}

func (q *Queue) removeLocked(userID string) {
	for i, e := range q.entries {
		if e.UserID == userID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

package state

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wordbound/wordbound-server/internal"
)

// Sessions tracks standalone play windows for active-game discovery. These
// never touch lobby or match state.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*internal.GameSession

	emit   internal.Emitter
	logger *log.Logger
}

func NewSessions(emit internal.Emitter, logger *log.Logger) *Sessions {
	if emit == nil {
		emit = internal.NopEmitter{}
	}
	return &Sessions{
		sessions: make(map[string]*internal.GameSession),
		emit:     emit,
		logger:   componentLogger(logger, "sessions"),
	}
}

func (s *Sessions) Create(userID, playerName, serverID, channelID string) internal.GameSession {
	if serverID == "" {
		serverID = internal.DefaultServerID
	}
	now := time.Now()
	sess := &internal.GameSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		PlayerName:  playerName,
		ServerID:    serverID,
		ChannelID:   channelID,
		Status:      internal.SessionActive,
		RoundNumber: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	out := *sess
	s.mu.Unlock()

	s.emit.Emit(internal.SessionUpdatedEvent{Session: out})
	return out
}

func (s *Sessions) UpdateScore(sessionID string, score int) (internal.GameSession, error) {
	return s.update(sessionID, func(sess *internal.GameSession) {
		sess.Score = score
	})
}

func (s *Sessions) AdvanceRound(sessionID string) (internal.GameSession, error) {
	return s.update(sessionID, func(sess *internal.GameSession) {
		sess.RoundNumber++
	})
}

// Complete closes a session. The score is overwritten only when the caller
// supplies a final one.
func (s *Sessions) Complete(sessionID string, finalScore *int) (internal.GameSession, error) {
	return s.update(sessionID, func(sess *internal.GameSession) {
		now := time.Now()
		sess.Status = internal.SessionCompleted
		sess.CompletedAt = &now
		if finalScore != nil {
			sess.Score = *finalScore
		}
	})
}

// ListActive returns the active sessions for a server, oldest first.
func (s *Sessions) ListActive(serverID string) []internal.GameSession {
	if serverID == "" {
		serverID = internal.DefaultServerID
	}
	s.mu.RLock()
	out := make([]internal.GameSession, 0)
	for _, sess := range s.sessions {
		if sess.ServerID == serverID && sess.Status == internal.SessionActive {
			out = append(out, *sess)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CloseStale completes active sessions whose last update is older than
// maxAge. Clients that vanish mid-game never send a completion.
func (s *Sessions) CloseStale(maxAge time.Duration) {
	now := time.Now()
	var closed []internal.GameSession

	s.mu.Lock()
	for _, sess := range s.sessions {
		if sess.Status == internal.SessionActive && now.Sub(sess.UpdatedAt) > maxAge {
			t := now
			sess.Status = internal.SessionCompleted
			sess.CompletedAt = &t
			sess.UpdatedAt = now
			closed = append(closed, *sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range closed {
		s.logger.Info("closed stale session", "sessionId", sess.ID, "userId", sess.UserID)
		s.emit.Emit(internal.SessionUpdatedEvent{Session: sess})
	}
}

func (s *Sessions) update(sessionID string, mutate func(*internal.GameSession)) (internal.GameSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return internal.GameSession{}, internal.ErrSessionNotFound
	}
	mutate(sess)
	sess.UpdatedAt = time.Now()
	out := *sess
	s.mu.Unlock()

	s.emit.Emit(internal.SessionUpdatedEvent{Session: out})
	return out, nil
}

package state

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wordbound/wordbound-server/internal"
)

// Records keeps the best score per logical game server. A record only ever
// moves up: equal or lower submissions keep the incumbent.
type Records struct {
	mu      sync.RWMutex
	records map[string]internal.ServerRecord

	emit   internal.Emitter
	logger *log.Logger
}

func NewRecords(emit internal.Emitter, logger *log.Logger) *Records {
	if emit == nil {
		emit = internal.NopEmitter{}
	}
	return &Records{
		records: make(map[string]internal.ServerRecord),
		emit:    emit,
		logger:  componentLogger(logger, "records"),
	}
}

// Update installs a new record when the score strictly beats the incumbent
// and returns whatever record holds afterwards.
func (r *Records) Update(serverID, userID, username string, score, wordsFound, gemsCollected int) internal.ServerRecord {
	if serverID == "" {
		serverID = internal.DefaultServerID
	}

	r.mu.Lock()
	existing, ok := r.records[serverID]
	if ok && existing.Score >= score {
		r.mu.Unlock()
		return existing
	}
	now := time.Now()
	record := internal.ServerRecord{
		ServerID:      serverID,
		UserID:        userID,
		Username:      username,
		Score:         score,
		WordsFound:    wordsFound,
		GemsCollected: gemsCollected,
		AchievedAt:    now,
		UpdatedAt:     now,
	}
	r.records[serverID] = record
	r.mu.Unlock()

	r.logger.Info("server record beaten", "serverId", serverID, "holder", username, "score", score)
	r.emit.Emit(internal.ServerRecordUpdatedEvent{Record: record})
	return record
}

// Get returns the record for a server, or ok=false when none exists yet.
func (r *Records) Get(serverID string) (internal.ServerRecord, bool) {
	if serverID == "" {
		serverID = internal.DefaultServerID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[serverID]
	return rec, ok
}

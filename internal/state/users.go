package state

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wordbound/wordbound-server/internal"
)

// Identity is the external identity pair handed to Resolve. Either field may
// be empty, but not both.
type Identity struct {
	ExternalID string
	Username   string
}

// Registry owns the user map. All other components resolve usernames and ids
// through it; none of them touch the map directly.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*internal.User
	// order preserves insertion order for stable leaderboard ties.
	order []string

	emit     internal.Emitter
	archiver Archiver
	logger   *log.Logger
}

func NewRegistry(emit internal.Emitter, archiver Archiver, logger *log.Logger) *Registry {
	if emit == nil {
		emit = internal.NopEmitter{}
	}
	return &Registry{
		users:    make(map[string]*internal.User),
		emit:     emit,
		archiver: archiver,
		logger:   componentLogger(logger, "users"),
	}
}

// Resolve finds or creates the user behind an external identity. Lookup is by
// external id first, then by username among users that never linked an
// external id. A re-login with a new username renames the existing user.
func (r *Registry) Resolve(id Identity) (internal.User, error) {
	if id.ExternalID == "" && id.Username == "" {
		return internal.User{}, internal.ErrInvalidIdentity
	}

	now := time.Now()
	r.mu.Lock()

	var existing *internal.User
	if id.ExternalID != "" {
		for _, uid := range r.order {
			u := r.users[uid]
			if u.DiscordID != nil && *u.DiscordID == id.ExternalID {
				existing = u
				break
			}
		}
	}
	if existing == nil && id.Username != "" {
		for _, uid := range r.order {
			u := r.users[uid]
			if u.DiscordID == nil && strings.EqualFold(u.Username, id.Username) {
				existing = u
				break
			}
		}
	}

	if existing != nil {
		if id.Username != "" {
			existing.Username = id.Username
		}
		existing.UpdatedAt = now
		out := *existing
		r.mu.Unlock()
		return out, nil
	}

	userID := id.ExternalID
	if userID == "" {
		userID = uuid.NewString()
	}
	username := id.Username
	if username == "" {
		username = fmt.Sprintf("Player-%s", userID[:min(6, len(userID))])
	}
	user := &internal.User{
		ID:        userID,
		Username:  username,
		Coins:     internal.StarterCoins,
		Gems:      internal.StarterGems,
		Cosmetics: []string{"default"},
		Stats:     internal.PlayerStats{UpdatedAt: now},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if id.ExternalID != "" {
		ext := id.ExternalID
		user.DiscordID = &ext
	}
	r.users[userID] = user
	r.order = append(r.order, userID)
	out := *user
	r.mu.Unlock()

	r.emit.Emit(internal.UserUpsertedEvent{User: out})
	r.archiveUser(out)
	return out, nil
}

// CreateGuest registers a throwaway user with a generated display name.
func (r *Registry) CreateGuest() (internal.User, error) {
	suffix := strings.ToUpper(fmt.Sprintf("%04x", rand.Intn(0x10000)))
	return r.Resolve(Identity{Username: "Guest-" + suffix})
}

func (r *Registry) Get(userID string) (internal.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return internal.User{}, internal.ErrUserNotFound
	}
	return *u, nil
}

// GetStats returns the flattened stats view served over HTTP.
func (r *Registry) GetStats(userID string) (internal.PlayerStatsView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return internal.PlayerStatsView{}, internal.ErrUserNotFound
	}
	return statsView(u), nil
}

// Leaderboard lists users by total score descending. Ties keep insertion
// order, which makes repeated calls stable.
func (r *Registry) Leaderboard(limit int) []internal.PlayerStatsView {
	if limit <= 0 {
		limit = 10
	}
	r.mu.RLock()
	views := make([]internal.PlayerStatsView, 0, len(r.order))
	for _, uid := range r.order {
		views = append(views, statsView(r.users[uid]))
	}
	r.mu.RUnlock()

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].TotalScore > views[j].TotalScore
	})
	if len(views) > limit {
		views = views[:limit]
	}
	return views
}

// RecordOutcome folds a completed match into one participant's stats.
// Unknown users are skipped: ad hoc result recording may reference players
// this registry never saw, and stats writes are best-effort secondaries.
func (r *Registry) RecordOutcome(userID string, isWinner bool, scoreGained, wordsGained int) {
	now := time.Now()
	r.mu.Lock()
	u, ok := r.users[userID]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("stats skipped for unknown user", "userId", userID)
		return
	}
	u.Stats = ApplyMatchOutcome(u.Stats, isWinner, scoreGained, wordsGained, now)
	u.UpdatedAt = now
	out := *u
	r.mu.Unlock()

	r.archiveUser(out)
}

func (r *Registry) archiveUser(u internal.User) {
	if r.archiver == nil {
		return
	}
	go func() {
		if err := r.archiver.ArchiveUser(u); err != nil {
			r.logger.Warn("user archive failed", "userId", u.ID, "err", err)
		}
	}()
}

func statsView(u *internal.User) internal.PlayerStatsView {
	return internal.PlayerStatsView{
		UserID:      u.ID,
		Username:    u.Username,
		Coins:       u.Coins,
		Gems:        u.Gems,
		PlayerStats: u.Stats,
	}
}

func componentLogger(logger *log.Logger, prefix string) *log.Logger {
	if logger == nil {
		logger = log.Default()
	}
	return logger.WithPrefix(prefix)
}

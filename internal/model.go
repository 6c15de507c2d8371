package internal

import (
	"time"
)

const (
	DefaultServerID    = "global"
	DefaultMaxPlayers  = 8
	MinPlayersToStart  = 2
	MaxRoundsPerPlayer = 4
	GemBonus           = 10
	GridSize           = 5
	GemsPerGrid        = 3
	StarterCoins       = 500
	StarterGems        = 25
	ReplacementLetters = "ETAOINSR"
	ChannelMatchmaking = "matchmaking:global"
)

type LobbyStatus string

const (
	LobbyWaiting  LobbyStatus = "waiting"
	LobbyPlaying  LobbyStatus = "playing"
	LobbyFinished LobbyStatus = "finished"
)

type MatchStatus string

const (
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// PlayerStats is the running aggregate for a user. It is mutated only by
// the stats aggregator, exactly once per completed match per participant.
type PlayerStats struct {
	TotalMatches  int       `json:"totalMatches"`
	TotalWins     int       `json:"totalWins"`
	TotalScore    int       `json:"totalScore"`
	TotalWords    int       `json:"totalWords"`
	BestScore     int       `json:"bestScore"`
	WinStreak     int       `json:"winStreak"`
	BestWinStreak int       `json:"bestWinStreak"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type User struct {
	ID        string      `json:"id"`
	DiscordID *string     `json:"discordId"`
	Username  string      `json:"username"`
	Coins     int         `json:"coins"`
	Gems      int         `json:"gems"`
	Cosmetics []string    `json:"cosmetics"`
	Stats     PlayerStats `json:"stats"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type LobbyPlayer struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Ready    bool      `json:"ready"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

type Lobby struct {
	ID         string        `json:"id"`
	Code       string        `json:"code"`
	ServerID   string        `json:"serverId"`
	HostID     string        `json:"hostId"`
	Status     LobbyStatus   `json:"status"`
	MaxPlayers int           `json:"maxPlayers"`
	Players    []LobbyPlayer `json:"players"`
	MatchID    string        `json:"matchId,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Tile is one cell of the shared board. Gem tiles carry a flat score bonus
// when consumed as part of a word.
type Tile struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
	IsGem  bool   `json:"isGem"`
}

type Grid [][]Tile

// FoundWord records a scored word inside a match, bonus included.
type FoundWord struct {
	Word     string `json:"word"`
	Score    int    `json:"score"`
	PlayerID string `json:"playerId,omitempty"`
}

type MatchPlayer struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Score        int    `json:"score"`
	WordsFound   int    `json:"wordsFound"`
	RoundsPlayed int    `json:"roundsPlayed"`
	// Rank stays nil while the match is in progress; after completion ranks
	// form a dense 1..N ordering by descending score, ties broken by
	// original player order.
	Rank *int `json:"rank"`
}

type Match struct {
	ID              string        `json:"id"`
	LobbyID         string        `json:"lobbyId,omitempty"`
	Status          MatchStatus   `json:"status"`
	Players         []MatchPlayer `json:"players"`
	CurrentPlayerID string        `json:"currentPlayerId"`
	Grid            Grid          `json:"gridData"`
	WordsFound      []FoundWord   `json:"wordsFound"`
	RoundNumber     int           `json:"roundNumber"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	CompletedAt     *time.Time    `json:"completedAt,omitempty"`
}

// GameSession is a standalone play window used for active-game discovery.
// It is independent of the lobby/match life cycle.
type GameSession struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	PlayerName  string        `json:"playerName"`
	ServerID    string        `json:"serverId"`
	ChannelID   string        `json:"channelId,omitempty"`
	Status      SessionStatus `json:"status"`
	Score       int           `json:"score"`
	RoundNumber int           `json:"roundNumber"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// ServerRecord is the best score ever achieved on a logical game server.
// It is replaced only by a strictly higher score.
type ServerRecord struct {
	ServerID      string    `json:"serverId"`
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	Score         int       `json:"score"`
	WordsFound    int       `json:"wordsFound"`
	GemsCollected int       `json:"gemsCollected"`
	AchievedAt    time.Time `json:"achievedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PlayerStatsView is the flattened stats shape served to clients.
type PlayerStatsView struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Coins    int    `json:"coins"`
	Gems     int    `json:"gems"`
	PlayerStats
}

// PlayerAt returns a pointer into m.Players for the given user, or nil.
func (m *Match) PlayerAt(userID string) *MatchPlayer {
	for i := range m.Players {
		if m.Players[i].UserID == userID {
			return &m.Players[i]
		}
	}
	return nil
}

// PlayerAt returns a pointer into l.Players for the given user, or nil.
func (l *Lobby) PlayerAt(userID string) *LobbyPlayer {
	for i := range l.Players {
		if l.Players[i].UserID == userID {
			return &l.Players[i]
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand outside the owning component.
func (l *Lobby) Clone() Lobby {
	out := *l
	out.Players = append([]LobbyPlayer(nil), l.Players...)
	return out
}

// Clone returns a deep copy safe to hand outside the owning component.
func (m *Match) Clone() Match {
	out := *m
	out.Players = make([]MatchPlayer, len(m.Players))
	for i, p := range m.Players {
		out.Players[i] = p
		if p.Rank != nil {
			r := *p.Rank
			out.Players[i].Rank = &r
		}
	}
	out.WordsFound = append([]FoundWord(nil), m.WordsFound...)
	out.Grid = m.Grid.Clone()
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Clone copies the grid row by row.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]Tile(nil), row...)
	}
	return out
}

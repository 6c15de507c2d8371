package internal

import "errors"

var (
	ErrInvalidIdentity  = errors.New("discordId or username required")
	ErrUserNotFound     = errors.New("user not found")
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrPlayerNotInLobby = errors.New("player not in lobby")
	ErrNotHost          = errors.New("only the host can start the lobby")
	ErrPlayersNotReady  = errors.New("all players must be ready")
	ErrTooFewPlayers    = errors.New("at least two players required to start")
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchCompleted   = errors.New("match already completed")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrSessionNotFound  = errors.New("session not found")
)

package internal

// Event is a domain state-change notification. State components emit events
// after every successful mutation; the broadcast layer maps each variant to
// its realtime topics. The state packages never see transport concerns.
type Event interface {
	event()
}

type UserUpsertedEvent struct {
	User User
}

func (UserUpsertedEvent) event() {}

type LobbyUpdatedEvent struct {
	Lobby Lobby
}

func (LobbyUpdatedEvent) event() {}

type LobbyDeletedEvent struct {
	LobbyID  string
	ServerID string
}

func (LobbyDeletedEvent) event() {}

type MatchmakingUpdatedEvent struct {
	QueueSize int
}

func (MatchmakingUpdatedEvent) event() {}

type MatchStartedEvent struct {
	Match Match
}

func (MatchStartedEvent) event() {}

type MatchUpdatedEvent struct {
	Match Match
}

func (MatchUpdatedEvent) event() {}

type MatchCompletedEvent struct {
	Match Match
}

func (MatchCompletedEvent) event() {}

type SessionUpdatedEvent struct {
	Session GameSession
}

func (SessionUpdatedEvent) event() {}

type ServerRecordUpdatedEvent struct {
	Record ServerRecord
}

func (ServerRecordUpdatedEvent) event() {}

// Emitter receives domain events. Emit must be cheap and non-blocking from
// the caller's point of view; components call it outside their own locks.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(ev Event) { f(ev) }

// NopEmitter discards all events. Useful in tests.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}

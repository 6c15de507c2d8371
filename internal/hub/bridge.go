package hub

import (
	"fmt"

	"github.com/wordbound/wordbound-server/internal"
)

// Bridge maps domain events onto channel broadcasts. It is the only place
// that knows which topics care about which state changes, keeping the state
// components transport-free.
type Bridge struct {
	hub *Hub
}

func NewBridge(h *Hub) *Bridge {
	return &Bridge{hub: h}
}

// Emit implements internal.Emitter.
func (b *Bridge) Emit(ev internal.Event) {
	switch e := ev.(type) {
	case internal.LobbyUpdatedEvent:
		payload := map[string]any{"lobby": e.Lobby}
		b.hub.Broadcast(lobbyChannel(e.Lobby.ID), "lobby:update", payload)
		b.hub.Broadcast(serverLobbiesChannel(e.Lobby.ServerID), "lobby:update", payload)

	case internal.LobbyDeletedEvent:
		b.hub.Broadcast(lobbyChannel(e.LobbyID), "lobby:deleted", map[string]any{"lobbyId": e.LobbyID})

	case internal.MatchmakingUpdatedEvent:
		b.hub.Broadcast(internal.ChannelMatchmaking, "matchmaking:update", map[string]any{
			"snapshot": map[string]any{"queueSize": e.QueueSize},
		})

	case internal.MatchStartedEvent:
		payload := map[string]any{"match": e.Match}
		if e.Match.LobbyID != "" {
			b.hub.Broadcast(lobbyChannel(e.Match.LobbyID), "match:started", payload)
		}
		b.hub.Broadcast(matchChannel(e.Match.ID), "match:update", payload)

	case internal.MatchUpdatedEvent:
		payload := map[string]any{"match": e.Match}
		if e.Match.LobbyID != "" {
			b.hub.Broadcast(lobbyChannel(e.Match.LobbyID), "match:update", payload)
		}
		b.hub.Broadcast(matchChannel(e.Match.ID), "match:update", payload)

	case internal.MatchCompletedEvent:
		payload := map[string]any{"match": e.Match}
		if e.Match.LobbyID != "" {
			b.hub.Broadcast(lobbyChannel(e.Match.LobbyID), "match:completed", payload)
		}
		b.hub.Broadcast(matchChannel(e.Match.ID), "match:completed", payload)

	case internal.SessionUpdatedEvent:
		b.hub.Broadcast(fmt.Sprintf("sessions:%s", e.Session.ServerID), "sessions:update", map[string]any{
			"session": e.Session,
		})

	case internal.ServerRecordUpdatedEvent:
		b.hub.Broadcast(fmt.Sprintf("server-record:%s", e.Record.ServerID), "server-record:update", map[string]any{
			"record": e.Record,
		})
	}
}

func lobbyChannel(lobbyID string) string { return "lobby:" + lobbyID }

func matchChannel(matchID string) string { return "match:" + matchID }

func serverLobbiesChannel(serverID string) string {
	return fmt.Sprintf("server:%s:lobbies", serverID)
}

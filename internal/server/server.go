package server

import (
	"github.com/charmbracelet/log"

	"github.com/wordbound/wordbound-server/internal/hub"
	"github.com/wordbound/wordbound-server/internal/state"
)

// Server bundles the state components behind the HTTP surface. Handlers only
// ever go through component methods; they never hold state of their own.
type Server struct {
	users    *state.Registry
	lobbies  *state.Lobbies
	queue    *state.Queue
	engine   *state.Engine
	sessions *state.Sessions
	records  *state.Records
	hub      *hub.Hub

	logger *log.Logger
}

type Deps struct {
	Users    *state.Registry
	Lobbies  *state.Lobbies
	Queue    *state.Queue
	Engine   *state.Engine
	Sessions *state.Sessions
	Records  *state.Records
	Hub      *hub.Hub
	Logger   *log.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		users:    d.Users,
		lobbies:  d.Lobbies,
		queue:    d.Queue,
		engine:   d.Engine,
		sessions: d.Sessions,
		records:  d.Records,
		hub:      d.Hub,
		logger:   logger.WithPrefix("http"),
	}
}

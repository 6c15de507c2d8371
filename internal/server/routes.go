package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.HandleWebSocket)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", s.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/guest", s.GuestLoginHandler).Methods(http.MethodPost)

	api.HandleFunc("/matchmaking/join", s.JoinMatchmakingHandler).Methods(http.MethodPost)
	api.HandleFunc("/matchmaking/leave", s.LeaveMatchmakingHandler).Methods(http.MethodPost)
	api.HandleFunc("/matchmaking/snapshot", s.MatchmakingSnapshotHandler).Methods(http.MethodGet)

	api.HandleFunc("/lobby/create", s.CreateLobbyHandler).Methods(http.MethodPost)
	api.HandleFunc("/lobby/join", s.JoinLobbyHandler).Methods(http.MethodPost)
	api.HandleFunc("/lobby/ready", s.SetReadyHandler).Methods(http.MethodPost)
	api.HandleFunc("/lobby/leave", s.LeaveLobbyHandler).Methods(http.MethodPost)
	api.HandleFunc("/lobby/start", s.StartLobbyHandler).Methods(http.MethodPost)
	api.HandleFunc("/lobby/{lobbyId}", s.GetLobbyHandler).Methods(http.MethodGet)

	api.HandleFunc("/game/sessions", s.CreateSessionHandler).Methods(http.MethodPost)
	api.HandleFunc("/game/sessions/{sessionId}/complete", s.CompleteSessionHandler).Methods(http.MethodPost)
	api.HandleFunc("/game/matches/{matchId}/progress", s.MatchProgressHandler).Methods(http.MethodPost)
	api.HandleFunc("/game/matches/{matchId}/turn", s.SubmitTurnHandler).Methods(http.MethodPost)
	api.HandleFunc("/game/matches", s.RecordMatchHandler).Methods(http.MethodPost)

	api.HandleFunc("/sessions/active", s.ActiveSessionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", s.LeaderboardHandler).Methods(http.MethodGet)
	api.HandleFunc("/stats/{userId}", s.PlayerStatsHandler).Methods(http.MethodGet)
	api.HandleFunc("/matches/{userId}", s.MatchHistoryHandler).Methods(http.MethodGet)

	api.HandleFunc("/server-records", s.GetServerRecordHandler).Methods(http.MethodGet)
	api.HandleFunc("/server-records", s.UpdateServerRecordHandler).Methods(http.MethodPost)

	api.HandleFunc("/logs", s.ClientLogHandler).Methods(http.MethodPost)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		// Websocket upgrades skip further CORS handling
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

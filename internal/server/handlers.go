package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wordbound/wordbound-server/internal"
	"github.com/wordbound/wordbound-server/internal/state"
)

type loginRequest struct {
	DiscordID string `json:"discordId"`
	Username  string `json:"username"`
}

type authResponse struct {
	Token string        `json:"token"`
	User  internal.User `json:"user"`
}

// LoginHandler resolves or creates the account behind an external identity.
// The returned token is the user id; clients pass it back as userId.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	user, err := s.users.Resolve(state.Identity{ExternalID: req.DiscordID, Username: req.Username})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{Token: user.ID, User: user})
}

func (s *Server) GuestLoginHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.CreateGuest()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Token: user.ID, User: user})
}

type matchmakingRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ServerID string `json:"serverId"`
}

func (s *Server) JoinMatchmakingHandler(w http.ResponseWriter, r *http.Request) {
	var req matchmakingRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.badRequest(w, "userId is required")
		return
	}

	result := s.queue.Join(req.UserID, req.Username, req.ServerID)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) LeaveMatchmakingHandler(w http.ResponseWriter, r *http.Request) {
	var req matchmakingRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.badRequest(w, "userId is required")
		return
	}

	s.queue.Leave(req.UserID)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (s *Server) MatchmakingSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.queue.Snapshot())
}

type createLobbyRequest struct {
	HostID   string `json:"hostId"`
	Username string `json:"username"`
	ServerID string `json:"serverId"`
}

func (s *Server) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.HostID == "" {
		s.badRequest(w, "hostId is required")
		return
	}

	lobby := s.lobbies.Create(req.HostID, req.Username, req.ServerID)
	s.writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

type joinLobbyRequest struct {
	Code     string `json:"code"`
	LobbyID  string `json:"lobbyId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// JoinLobbyHandler joins by 4-digit code or directly by lobby id. Code wins
// when both are present.
func (s *Server) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req joinLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.badRequest(w, "userId is required")
		return
	}
	if req.Code == "" && req.LobbyID == "" {
		s.badRequest(w, "code or lobbyId is required")
		return
	}

	var (
		lobby internal.Lobby
		err   error
	)
	if req.Code != "" {
		lobby, err = s.lobbies.JoinByCode(req.Code, req.UserID, req.Username)
	} else {
		lobby, err = s.lobbies.Join(req.LobbyID, req.UserID, req.Username)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

type readyRequest struct {
	LobbyID string `json:"lobbyId"`
	UserID  string `json:"userId"`
	Ready   bool   `json:"ready"`
}

func (s *Server) SetReadyHandler(w http.ResponseWriter, r *http.Request) {
	var req readyRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	lobby, err := s.lobbies.SetReady(req.LobbyID, req.UserID, req.Ready)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

type leaveLobbyRequest struct {
	LobbyID string `json:"lobbyId"`
	UserID  string `json:"userId"`
}

func (s *Server) LeaveLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req leaveLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	lobby, err := s.lobbies.Leave(req.LobbyID, req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"lobby":   lobby,
		"deleted": lobby == nil,
	})
}

type startLobbyRequest struct {
	LobbyID    string `json:"lobbyId"`
	HostUserID string `json:"hostUserId"`
}

func (s *Server) StartLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req startLobbyRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	lobby, match, err := s.engine.StartLobby(req.LobbyID, req.HostUserID, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"lobby": lobby,
		"match": match,
	})
}

func (s *Server) GetLobbyHandler(w http.ResponseWriter, r *http.Request) {
	lobby, err := s.lobbies.Get(mux.Vars(r)["lobbyId"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"lobby": lobby})
}

type createSessionRequest struct {
	UserID     string `json:"userId"`
	PlayerName string `json:"playerName"`
	ServerID   string `json:"serverId"`
	ChannelID  string `json:"channelId"`
}

func (s *Server) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.badRequest(w, "userId is required")
		return
	}

	sess := s.sessions.Create(req.UserID, req.PlayerName, req.ServerID, req.ChannelID)
	s.writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

type completeSessionRequest struct {
	FinalScore *int `json:"finalScore"`
}

func (s *Server) CompleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	sess, err := s.sessions.Complete(mux.Vars(r)["sessionId"], req.FinalScore)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"session": sess})
}

func (s *Server) MatchProgressHandler(w http.ResponseWriter, r *http.Request) {
	var up state.ProgressUpdate
	if err := decodeBody(r, &up); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	match := s.engine.UpdateProgress(mux.Vars(r)["matchId"], up)
	s.writeJSON(w, http.StatusOK, map[string]any{"match": match})
}

type submitTurnRequest struct {
	PlayerID string          `json:"playerId"`
	Path     []internal.Tile `json:"path"`
}

func (s *Server) SubmitTurnHandler(w http.ResponseWriter, r *http.Request) {
	var req submitTurnRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		s.badRequest(w, "playerId is required")
		return
	}

	result, err := s.engine.SubmitTurn(mux.Vars(r)["matchId"], req.PlayerID, req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type recordMatchRequest struct {
	MatchID    string               `json:"matchId"`
	LobbyID    string               `json:"lobbyId"`
	Players    []state.ResultPlayer `json:"players"`
	GridData   internal.Grid        `json:"gridData"`
	WordsFound []internal.FoundWord `json:"wordsFound"`
}

// RecordMatchHandler records the final results of a match whose turns were
// tracked on the client. A missing matchId records a brand new match.
func (s *Server) RecordMatchHandler(w http.ResponseWriter, r *http.Request) {
	var req recordMatchRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if len(req.Players) == 0 {
		s.badRequest(w, "players is required")
		return
	}

	match := s.engine.RecordResults(req.MatchID, req.Players, req.GridData, req.WordsFound, req.LobbyID)
	s.writeJSON(w, http.StatusOK, map[string]any{"match": match})
}

func (s *Server) ActiveSessionsHandler(w http.ResponseWriter, r *http.Request) {
	serverID := r.URL.Query().Get("serverId")
	sessions := s.sessions.ListActive(serverID)
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	s.writeJSON(w, http.StatusOK, map[string]any{"leaderboard": s.users.Leaderboard(limit)})
}

func (s *Server) PlayerStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.users.GetStats(mux.Vars(r)["userId"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) MatchHistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	matches := s.engine.History(mux.Vars(r)["userId"], limit)
	s.writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) GetServerRecordHandler(w http.ResponseWriter, r *http.Request) {
	serverID := r.URL.Query().Get("serverId")
	if serverID == "" {
		serverID = internal.DefaultServerID
	}

	record, ok := s.records.Get(serverID)
	if !ok {
		s.writeJSON(w, http.StatusOK, map[string]any{"record": nil})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"record": record})
}

type updateRecordRequest struct {
	ServerID      string `json:"serverId"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Score         *int   `json:"score"`
	WordsFound    int    `json:"wordsFound"`
	GemsCollected int    `json:"gemsCollected"`
}

func (s *Server) UpdateServerRecordHandler(w http.ResponseWriter, r *http.Request) {
	var req updateRecordRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.UserID == "" || req.Username == "" || req.Score == nil {
		s.badRequest(w, "userId, username and score are required")
		return
	}

	record := s.records.Update(req.ServerID, req.UserID, req.Username, *req.Score, req.WordsFound, req.GemsCollected)
	s.writeJSON(w, http.StatusOK, map[string]any{"record": record})
}

type clientLogRequest struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// ClientLogHandler lets clients forward their own log lines into the server
// log. Payloads are trusted only as opaque strings.
func (s *Server) ClientLogHandler(w http.ResponseWriter, r *http.Request) {
	var req clientLogRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	logger := s.logger.WithPrefix("client")
	switch req.Level {
	case "error":
		logger.Error(req.Message, "context", req.Context)
	case "warn":
		logger.Warn(req.Message, "context", req.Context)
	default:
		logger.Info(req.Message, "context", req.Context)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

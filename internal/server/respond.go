package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wordbound/wordbound-server/internal"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain sentinels onto HTTP statuses. Anything unknown is
// an internal error: logged with detail, surfaced with a generic body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, internal.ErrInvalidIdentity):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, internal.ErrLobbyNotFound),
		errors.Is(err, internal.ErrMatchNotFound),
		errors.Is(err, internal.ErrSessionNotFound),
		errors.Is(err, internal.ErrUserNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, internal.ErrLobbyFull),
		errors.Is(err, internal.ErrPlayerNotInLobby),
		errors.Is(err, internal.ErrNotHost),
		errors.Is(err, internal.ErrPlayersNotReady),
		errors.Is(err, internal.ErrTooFewPlayers),
		errors.Is(err, internal.ErrNotYourTurn),
		errors.Is(err, internal.ErrMatchCompleted):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		s.logger.Error("handler failed", "path", r.URL.Path, "err", err)
	}

	s.writeJSON(w, status, map[string]string{"error": msg})
}

// badRequest rejects malformed input before any state is touched.
func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

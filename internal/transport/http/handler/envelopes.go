package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zinema-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterEnvelope wraps successful registration responses.
type RegisterEnvelope struct {
	UserID string `json:"user_id"`
}

// TokenEnvelope wraps successful login responses.
type TokenEnvelope struct {
	Token string `json:"token"`
}

// AvatarEnvelope wraps avatar upload responses.
type AvatarEnvelope struct {
	AvatarURL string `json:"avatar_url"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP statuses. Anything that is
// not a domain error is an infrastructure failure: it is logged server-side
// and answered with a generic 500 so internals never leak to the caller.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

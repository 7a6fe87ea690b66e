package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/justestif/go-spotify-auto-cleaner/internal/auth"
	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
	"github.com/justestif/go-spotify-auto-cleaner/internal/eras"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

var (
	errUnauthenticated = errors.New("unauthorized")
	errBadRequest      = errors.New("bad request")
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// statusFor maps an error onto the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, cleaner.ErrInvalidGroup),
		errors.Is(err, cleaner.ErrInvalidYear),
		errors.Is(err, cleaner.ErrNothingToActOn),
		errors.Is(err, eras.ErrInvalidClusterCount),
		errors.Is(err, auth.ErrStateMismatch),
		errors.Is(err, auth.ErrAccessDenied):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthenticated), errors.Is(err, spotify.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, spotify.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and sends the failure envelope. Server errors hide
// their details from the client.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}

	message := err.Error()
	switch {
	case status >= http.StatusInternalServerError:
		h.log.Error("request failed", fields...)
		message = http.StatusText(status)
	case status == http.StatusUnauthorized:
		h.log.Debug("unauthenticated request", fields...)
		message = "Unauthorized"
	default:
		h.log.Info("rejected request", fields...)
	}

	writeJSON(w, status, envelope{Success: false, Message: message})
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst
// untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: malformed JSON body: %w", errBadRequest, err)
	}
	return nil
}

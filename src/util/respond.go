package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fintrack-server/src/models"
	"fintrack-server/src/store"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// DecodeJSON reads a single JSON object from the request body.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// StatusFor maps storage and validation errors to a status and client message.
func StatusFor(err error, what string) (int, string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Message
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, what + " not found"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, what + " already exists"
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable, "data backend unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

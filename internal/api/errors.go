package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/directory/pkg/override"
	"github.com/dmitrymomot/directory/pkg/profile"
	"github.com/dmitrymomot/directory/pkg/slug"
	"github.com/dmitrymomot/directory/pkg/taxonomy"
)

// ErrBadRequest marks malformed ids, query parameters and bodies.
var ErrBadRequest = errors.New("api: bad request")

type errorBody struct {
	Error string `json:"error"`
}

// StatusOf maps a service error to its HTTP status.
func StatusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, slug.ErrInvalidBase),
		errors.Is(err, taxonomy.ErrInvalidName),
		errors.Is(err, taxonomy.ErrSelfParent),
		errors.Is(err, taxonomy.ErrParentNotFound),
		errors.Is(err, taxonomy.ErrCycleDetected),
		errors.Is(err, profile.ErrInvalidKind):
		return http.StatusBadRequest
	case errors.Is(err, taxonomy.ErrNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, override.ErrUnknownEntity):
		return http.StatusNotFound
	case errors.Is(err, taxonomy.ErrChildrenExist),
		errors.Is(err, taxonomy.ErrReferencesExist),
		errors.Is(err, slug.ErrCollisionExhausted),
		errors.Is(err, slug.ErrTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	return nil
}

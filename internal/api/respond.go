package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"car-rental-catalog/internal/apperr"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type errorBody struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// writeJSON encodes v with status. Nothing is written once the client has
// gone away.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if r.Context().Err() != nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logFailure(r, "response encode failed", err)
	}
}

// writeError maps err onto its HTTP status. Upstream failures are logged
// with their cause and answered with the generic message only; details are
// added in development.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Wrap(apperr.KindUnknown, "Internal server error", err)
	}

	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logFailure(r, ae.Message, err)
	}

	body := errorBody{Error: ae.Message}
	if ae.Kind == apperr.KindValidation {
		body.Details = ae.Details
	}
	if h.Development {
		body.Details = map[string]any{"cause": err.Error()}
		for k, v := range ae.Details {
			body.Details[k] = v
		}
	}
	h.writeJSON(w, r, status, body)
}

// writeWidget serves a storefront widget list. Widgets degrade to an
// empty list instead of failing the page.
func writeWidget[T any](h *Handler, w http.ResponseWriter, r *http.Request, v []T, err error) {
	if err != nil {
		h.logFailure(r, "widget degraded to empty", err)
		v = nil
	}
	if v == nil {
		v = []T{}
	}
	h.writeJSON(w, r, http.StatusOK, v)
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	h.Log.Error(msg,
		zap.String("component", "api"),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
}

func badQuery(name, value string) error {
	return apperr.Validation(fmt.Sprintf("Invalid value for %s: %q", name, value))
}

func invalidBody(err error) error {
	return apperr.Wrap(apperr.KindValidation, "Invalid JSON payload", err)
}

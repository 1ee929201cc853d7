// Package httputil centralizes JSON encoding and domain-error translation for
// HTTP handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"doctrack/pkg/domerrors"
)

// Validator is implemented by request payloads that can check themselves
// after decoding.
type Validator interface {
	Validate() error
}

// WriteJSON encodes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded domain error onto an HTTP status and error body.
// Internal errors omit the description so store details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := domerrors.CodeOf(err)

	body := map[string]string{"error": string(code)}
	status := http.StatusInternalServerError

	switch code {
	case domerrors.CodeNotFound:
		status = http.StatusNotFound
	case domerrors.CodeValidation, domerrors.CodeBadRequest:
		status = http.StatusBadRequest
	case domerrors.CodeConflict:
		status = http.StatusConflict
	case domerrors.CodeInternal:
		WriteJSON(w, status, body)
		return
	}

	var de *domerrors.Error
	if errors.As(err, &de) {
		body["error_description"] = de.Message
	}
	WriteJSON(w, status, body)
}

// Decode parses the JSON request body into T and runs its validation when the
// payload implements Validator. On failure it writes the error response and
// returns ok=false; handlers just return.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body", "error", err)
		WriteError(w, domerrors.New(domerrors.CodeBadRequest, "invalid JSON body"))
		return req, false
	}
	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return req, false
		}
	}
	return req, true
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iota-pi/flock-sub001/internal/errs"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeError maps the sentinel taxonomy onto HTTP statuses. Internal detail
// is never echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, errs.ErrAuthentication):
		code, msg = http.StatusForbidden, "authentication failed"
	case errors.Is(err, errs.ErrExpiredSession):
		code, msg = http.StatusUnauthorized, "session expired"
	case errors.Is(err, errs.ErrNotFound):
		code, msg = http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrInvalidType):
		code, msg = http.StatusBadRequest, "invalid item type"
	case errors.Is(err, errs.ErrValidation):
		code, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, errs.ErrRateLimited):
		code, msg = http.StatusTooManyRequests, "too many attempts"
	case errors.Is(err, errs.ErrAllocationExhausted):
		code, msg = http.StatusServiceUnavailable, "account allocation exhausted"
	}
	writeJSONStatus(w, code, errorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSONStatus(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// decodeBody strictly decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

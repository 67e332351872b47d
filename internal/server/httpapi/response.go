package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/keyvault/internal/common"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiError struct {
	status int
	code   string
}

var errorTable = []struct {
	err error
	apiError
}{
	{common.ErrMalformedRequest, apiError{http.StatusBadRequest, "MALFORMED_REQUEST"}},
	{common.ErrInvalidCredentials, apiError{http.StatusUnauthorized, "INVALID_CREDENTIALS"}},
	{common.ErrTokenExpired, apiError{http.StatusUnauthorized, "TOKEN_EXPIRED"}},
	{common.ErrTokenInvalid, apiError{http.StatusUnauthorized, "TOKEN_INVALID"}},
	{common.ErrNoKeyPair, apiError{http.StatusNotFound, "NO_KEY_PAIR"}},
	{common.ErrPayloadTooLarge, apiError{http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"}},
	{common.ErrTooManyAttempts, apiError{http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"}},
	{common.ErrKeyGenerationFailure, apiError{http.StatusInternalServerError, "KEY_GENERATION_FAILED"}},
}

var internalError = apiError{http.StatusInternalServerError, "INTERNAL"}

func classify(err error) (apiError, string) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return apiError{http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"}, common.ErrPayloadTooLarge.Error()
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.apiError, e.err.Error()
		}
	}
	return internalError, common.ErrorInternal.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and a stable code. Only the sentinel's
// message is sent; wrapped detail stays in the log.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, msg := classify(err)

	if e.status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	if e.status == http.StatusUnauthorized && e.code != "INVALID_CREDENTIALS" {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}

	writeJSON(w, e.status, ErrorResponse{Code: e.code, Message: msg})
}

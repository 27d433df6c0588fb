/*
Package resp provides helper functions for constructing and sending HTTP JSON responses.

Every response from the token API carries a fixed set of hardening headers: issued
credentials must never be cached by any intermediary, and the API payload must never
be interpreted as anything but data.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"peertoken/internal/pkg/errs"
	"peertoken/internal/pkg/logx"
)

// errorBody is the wire shape of every rejection: a single machine-readable code.
type errorBody struct {
	Error string `json:"error"`
}

// secureHeaders stamps the response headers required on every API reply.
// Cache-Control: no-store keeps short-lived credentials out of caches entirely.
func secureHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Security-Policy", "default-src 'none'")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "no-referrer")
}

// RespondJSON serializes the payload and sends it with the given HTTP status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	secureHeaders(w)

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondSuccess sends a successful HTTP response (HTTP 200 OK) with the given payload.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, data)
}

// RespondError sends the flat {"error": <code>} body with the status registered
// for the error code. A nil error falls back to the opaque signing failure.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.CodeTokenGenerationFailed)
	}

	RespondJSON(w, r, customErr.Status, errorBody{Error: customErr.Code})
}

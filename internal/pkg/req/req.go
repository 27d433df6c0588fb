/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates strict JSON decoding for the token endpoint: unknown fields and
trailing content are rejected, and the body size is capped well below anything a
legitimate issuance request needs.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"peertoken/internal/pkg/errs"
)

// MaxBodySize caps the request body at 4 KB. An issuance request is a handful of
// short strings; anything larger is not a client we want to read from.
const MaxBodySize int64 = 4 << 10

// BindJSON binds the JSON body of the request to dst, enforcing Content-Type,
// the body size cap, and a strict decode. All failures map to invalid_input so
// the endpoint never leaks parser details.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.CodeInvalidInput)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.CodeInvalidInput)
	}

	if decoder.More() {
		return errs.NewError(errs.CodeInvalidInput)
	}

	return nil
}

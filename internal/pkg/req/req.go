/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates strict JSON decoding of request bodies, rejecting unknown fields
and trailing content so malformed payloads fail before any business logic runs.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"duochat/internal/pkg/errs"
)

// MaxBodyBytes caps the size of any JSON request body. Image payloads arrive as
// base64 data URLs inside JSON, so the cap needs headroom beyond plain text.
const MaxBodyBytes int64 = 12 << 20 // 12 MB

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

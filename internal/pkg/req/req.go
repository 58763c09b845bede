/*
Package req provides helper functions for admin API request parsing and data binding.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"linechat/internal/pkg/errs"
)

// MaxBodyBytes bounds admin API request bodies; they only ever carry small JSON commands.
const MaxBodyBytes int64 = 64 << 10

// BindJSON decodes the JSON request body into dst.
// Unknown fields, trailing content and non-JSON content types are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

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

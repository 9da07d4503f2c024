/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates JSON decoding with strict field checking and a body size cap,
mapping every failure onto an errs code.
*/
package req

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"chatcore/internal/pkg/errs"
)

// MaxJSONBody is the largest accepted JSON request body (1 MB).
const MaxJSONBody int64 = 1 << 20

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxJSONBody))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// QueryInt reads an integer query parameter, returning def when it is absent.
// The value must lie within [min, max].
func QueryInt(r *http.Request, key string, def, min, max int) (int, *errs.CustomError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, errs.NewError(errs.ErrInvalidParams)
	}

	return v, nil
}

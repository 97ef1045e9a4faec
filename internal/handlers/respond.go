// Package handlers implements the JSON API endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/diewo77/iva-calculator/httpx"
	"github.com/diewo77/iva-calculator/internal/apperr"
)

const maxBodyBytes = 1 << 20

var errInvalidJSON = apperr.Validation("invalid JSON body")

// decodeBody reads a JSON object into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidJSON
	}
	return nil
}

// writeError maps err onto its status code. Unexpected errors are logged and
// reported with the underlying message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		slog.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	httpx.JSONError(w, apperr.HTTPStatus(kind), err.Error(), nil)
}

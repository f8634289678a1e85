package broadsheet

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

var NowFunc func() time.Time = time.Now

// respondJSON writes v as the JSON response body with the given status code.
// Encoding errors at this point are unrecoverable, the header is already
// written, so they are silently dropped.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON reads the request body into v, tolerating an empty body so
// endpoints with all-optional fields can be called bare.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

const maxFormBytes = 1 << 20

var errUnsupportedMediaType = errors.New("expected a form or JSON body")

// readFields reads string fields from a JSON object or an url-encoded form body.
// Missing fields come back as "".
func readFields(w http.ResponseWriter, r *http.Request, names ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	out := make(map[string]string, len(names))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		raw := map[string]string{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		for _, n := range names {
			out[n] = raw[n]
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		for _, n := range names {
			out[n] = r.PostForm.Get(n)
		}
	default:
		return nil, errUnsupportedMediaType
	}
	return out, nil
}

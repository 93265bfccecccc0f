package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/echotab/echotab-server/internal/errors"
)

// decodeJSON reads and decodes the request body into dst, then runs
// struct validation when dst carries validate tags.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		return errors.Validation("invalid JSON body").WithCause(err)
	}
	return s.validator.Validate(dst)
}

// urlParamInt parses a chi URL parameter as an integer.
func urlParamInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validationf("invalid %s: %q", name, raw)
	}
	return v, nil
}

// queryInts parses a comma-separated query parameter into integers.
// An absent or empty parameter yields nil.
func queryInts(r *http.Request, name string) ([]int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.Validationf("invalid %s value: %q", name, p)
		}
		out = append(out, v)
	}
	return out, nil
}

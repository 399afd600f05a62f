package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/folio/testimonial-relay/internal/errors"
)

// DefaultLimit matches the console page size.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset from the query. Absent or
// non-positive limits fall back to DefaultLimit, larger ones are clamped to
// MaxLimit, and negative offsets become zero. Non-numeric values are
// rejected.
func ParsePagination(r *http.Request) (PaginationParams, error) {
	q := r.URL.Query()

	limit, err := intParam(q, "limit", DefaultLimit)
	if err != nil {
		return PaginationParams{}, err
	}
	offset, err := intParam(q, "offset", 0)
	if err != nil {
		return PaginationParams{}, err
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	return PaginationParams{
		Limit:  min(limit, MaxLimit),
		Offset: max(offset, 0),
	}, nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(key, "must be an integer")
	}
	return n, nil
}

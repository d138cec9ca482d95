package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/travelbuddy/server/pkg/httputil"
	"github.com/travelbuddy/server/pkg/pagination"
)

// parsePagination reads page/per_page query parameters with validation. A
// false return means an error response has already been written. Unlike
// pagination.FromRequest, garbage values are rejected rather than clamped.
func parsePagination(w http.ResponseWriter, r *http.Request) (page, perPage int, ok bool) {
	defaults := pagination.DefaultParams()
	page, perPage = defaults.Page, defaults.PerPage

	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return 0, 0, false
		}
		page = p
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		pp, err := strconv.Atoi(v)
		if err != nil || pp < 1 || pp > pagination.MaxPerPage {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 50"},
			})
			return 0, 0, false
		}
		perPage = pp
	}

	return page, perPage, true
}

// parseDateParam accepts RFC 3339 timestamps and plain dates. A nil time with
// ok=true means the parameter was absent.
func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		t = t.UTC()
		return &t, true
	}

	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: name + " must be an RFC 3339 timestamp or a YYYY-MM-DD date"},
	})
	return nil, false
}

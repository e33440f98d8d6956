package http

import (
	"net/http"
	"strconv"

	"github.com/foldline/boxoffice/internal/domain"
)

const pageSize = 50

type listEnvelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

func pageFromRequest(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, domain.ErrInvalidPage
	}
	return page, nil
}

func pageOffset(page int) int {
	return (page - 1) * pageSize
}

// respondList writes the pagination envelope. Requesting a page beyond the
// end of the collection is a 404, matching the documented contract.
func respondList(w http.ResponseWriter, r *http.Request, page, total int, results any) {
	if page > 1 && pageOffset(page) >= total {
		respondError(w, domain.ErrInvalidPage)
		return
	}
	env := listEnvelope{
		Count:   total,
		Results: results,
	}
	if pageOffset(page)+pageSize < total {
		env.Next = pageURL(r, page+1)
	}
	if page > 1 {
		env.Previous = pageURL(r, page-1)
	}
	writeJSON(w, http.StatusOK, env)
}

func pageURL(r *http.Request, page int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

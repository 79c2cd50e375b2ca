package anthropic

import (
	"net/url"
	"strconv"
)

// PageParams selects a window of a cursor-paginated list.
type PageParams struct {
	Limit    int64
	BeforeID string
	AfterID  string
}

func (p PageParams) query() url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.FormatInt(p.Limit, 10))
	}
	if p.BeforeID != "" {
		q.Set("before_id", p.BeforeID)
	}
	if p.AfterID != "" {
		q.Set("after_id", p.AfterID)
	}
	return q
}

// Page is one window of a cursor-paginated list.
type Page[T any] struct {
	Data    []T     `json:"data"`
	HasMore bool    `json:"has_more"`
	FirstID *string `json:"first_id"`
	LastID  *string `json:"last_id"`

	RequestID string `json:"-"`
}

// HasNextPage reports whether another window can be fetched.
func (p *Page[T]) HasNextPage() bool {
	if !p.HasMore || len(p.Data) == 0 {
		return false
	}
	return p.FirstID != nil || p.LastID != nil
}

// NextPageParams derives the cursor for the following window, keeping the
// original paging direction. ok is false on the last page.
func (p *Page[T]) NextPageParams(original PageParams) (PageParams, bool) {
	if !p.HasNextPage() {
		return PageParams{}, false
	}
	if original.BeforeID != "" {
		if p.FirstID == nil {
			return PageParams{}, false
		}
		return PageParams{Limit: original.Limit, BeforeID: *p.FirstID}, true
	}
	if p.LastID == nil {
		return PageParams{}, false
	}
	return PageParams{Limit: original.Limit, AfterID: *p.LastID}, true
}

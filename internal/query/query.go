package query

import (
	"context"

	"docstore/internal/store"
)

// Page is one bounded slice of results. NextCursor is empty once the
// query is exhausted; otherwise it resumes the query when passed to the
// next Execute call with identical parameters.
type Page struct {
	Items      []store.Item
	NextCursor string
}

// Query issues one bounded request and returns one page. Implementations
// hold no state between calls; everything needed to resume lives in the
// cursor.
type Query interface {
	Execute(ctx context.Context, s store.Store, cursor string, limit int32) (*Page, error)
}

// Range is the basic Query: one partition, one request, one page.
type Range struct {
	Request store.QueryRequest
}

var _ Query = (*Range)(nil)

// NewRange wraps an assembled request as an executable Query.
func NewRange(req *store.QueryRequest) *Range {
	return &Range{Request: *req}
}

// Execute runs the range query, resuming from cursor if given.
func (q *Range) Execute(ctx context.Context, s store.Store, cursor string, limit int32) (*Page, error) {
	fingerprint := requestFingerprint(KindRange, &q.Request)

	c, err := Decode(cursor, KindRange, fingerprint)
	if err != nil {
		return nil, err
	}

	req := q.Request
	req.Limit = limit
	if c != nil {
		req.StartKey = c.Position
	}

	result, err := s.Query(ctx, &req)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: result.Items}
	if result.HasNext() {
		page.NextCursor, err = Encode(&Cursor{
			Kind:        KindRange,
			Fingerprint: fingerprint,
			Position:    result.Next,
		})
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

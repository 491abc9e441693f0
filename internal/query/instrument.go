package query

import (
	"context"
	"time"

	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Metrics receives query-level signals.
type Metrics interface {
	ObserveQuery(operation string, duration time.Duration, err error)
	IncCursorRejected()
}

// Instrumented wraps a Query with latency and cursor-rejection metrics.
type Instrumented struct {
	Name    string
	Inner   Query
	Metrics Metrics
}

var _ Query = (*Instrumented)(nil)

// Instrument wraps a query with metrics. A nil recorder returns the
// query unwrapped, so callers never branch on whether metrics are
// configured.
func Instrument(name string, q Query, m Metrics) Query {
	if m == nil {
		return q
	}
	return &Instrumented{Name: name, Inner: q, Metrics: m}
}

// Execute delegates to the wrapped query and records its outcome.
func (q *Instrumented) Execute(ctx context.Context, s store.Store, cursor string, limit int32) (*Page, error) {
	start := time.Now()
	page, err := q.Inner.Execute(ctx, s, cursor, limit)
	q.Metrics.ObserveQuery(q.Name, time.Since(start), err)
	if apperrors.IsInvalidCursor(err) {
		q.Metrics.IncCursorRejected()
	}
	return page, err
}

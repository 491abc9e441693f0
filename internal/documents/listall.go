package documents

import (
	"context"
	"time"

	"docstore/internal/dates"
	"docstore/internal/keys"
	"docstore/internal/query"
	"docstore/internal/store"
)

// bucketPrefetch bounds how many date buckets a walk loads per refill.
const bucketPrefetch = 25

// defaultListLimit applies when a caller passes no page limit.
const defaultListLimit = 10

// AllDocuments walks every document in a site, newest first, by chaining
// per-day time-series queries. The date bucket index supplies which days
// exist, so no table scan is ever needed. All state lives in the cursor:
// the day being read, the position inside it, and the prefetched queue
// of older days.
type AllDocuments struct {
	SiteID string
	// Prefetch overrides how many date buckets each refill loads.
	Prefetch int32
}

var _ query.Query = (*AllDocuments)(nil)

func (w *AllDocuments) fingerprint() string {
	return query.Fingerprint(string(query.KindDateWalk), w.SiteID)
}

// Execute produces the next page of the walk.
func (w *AllDocuments) Execute(ctx context.Context, s store.Store, cursor string, limit int32) (*query.Page, error) {
	if limit < 1 {
		limit = defaultListLimit
	}

	fingerprint := w.fingerprint()
	c, err := query.Decode(cursor, query.KindDateWalk, fingerprint)
	if err != nil {
		return nil, err
	}

	state := query.WalkState{}
	if c != nil && c.Walk != nil {
		state = *c.Walk
	}

	page := &query.Page{}
	done := false

	if state.CurrentID == "" {
		days, err := w.buckets(ctx, s, "")
		if err != nil {
			return nil, err
		}
		if len(days) == 0 {
			return page, nil
		}
		state.CurrentID = days[0]
		state.Pending = days[1:]
	}

	for int32(len(page.Items)) < limit {
		req, err := query.NewBuilder().
			Index(keys.IndexGSI1).
			PartitionKey(TimeSeriesPartitionKey(w.SiteID, state.CurrentID)).
			Descending().
			Limit(limit - int32(len(page.Items))).
			StartAt(state.StoreCursor).
			Build()
		if err != nil {
			return nil, err
		}

		result, err := s.Query(ctx, req)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, result.Items...)

		if result.HasNext() {
			state.StoreCursor = result.Next
			continue
		}

		// Day exhausted; move to the next older bucket.
		if len(state.Pending) == 0 {
			days, err := w.buckets(ctx, s, state.CurrentID)
			if err != nil {
				return nil, err
			}
			state.Pending = days
		}
		if len(state.Pending) == 0 {
			done = true
			break
		}
		state = query.WalkState{CurrentID: state.Pending[0], Pending: state.Pending[1:]}
	}

	if !done {
		page.NextCursor, err = query.Encode(&query.Cursor{
			Kind:        query.KindDateWalk,
			Fingerprint: fingerprint,
			Walk:        &state,
		})
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

// buckets lists populated days newest first, strictly before the given
// day when one is set.
func (w *AllDocuments) buckets(ctx context.Context, s store.Store, before string) ([]string, error) {
	prefetch := w.Prefetch
	if prefetch < 1 {
		prefetch = bucketPrefetch
	}
	b := query.NewBuilder().
		PartitionKey(dates.PartitionKey(w.SiteID)).
		Descending().
		Limit(prefetch)
	if before != "" {
		day, err := time.Parse(dates.DateFormat, before)
		if err != nil {
			return nil, err
		}
		b = b.SortLte(day.AddDate(0, 0, -1).Format(dates.DateFormat))
	}
	req, err := b.Build()
	if err != nil {
		return nil, err
	}

	result, err := s.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		days = append(days, dates.DateOf(item))
	}
	return days, nil
}

package query

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"docstore/internal/keys"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// defaultFanOutLimit applies when a caller passes no page limit.
const defaultFanOutLimit = 10

// Comparator orders items during a fan-out merge. Negative means a comes
// before b in the merged page. Equal items keep shard-label order, which
// makes merged pages deterministic and cursor-resumable.
type Comparator func(a, b store.Item) int

// SortKeyComparator orders items by an index's sort key, optionally
// reversed. It matches the order the unsharded index would produce.
func SortKeyComparator(index string, descending bool) Comparator {
	attr := store.SortAttr(index)
	return func(a, b store.Item) int {
		c := strings.Compare(store.StringValue(a, attr), store.StringValue(b, attr))
		if descending {
			return -c
		}
		return c
	}
}

// Sharded fans one logical query out across every shard of a
// high-cardinality index and merges the results into one globally ordered
// page with one combined cursor.
type Sharded struct {
	// LogicalKey is the scope-prefixed index partition key without its
	// shard suffix.
	LogicalKey string
	// ShardCount is fixed per index for the lifetime of the dataset.
	ShardCount int
	// Template carries the index, sort condition and direction shared by
	// every per-shard request.
	Template store.QueryRequest
	// Compare overrides the merge order; nil uses SortKeyComparator for
	// the template's index and direction.
	Compare Comparator
	// Observer, when set, receives the live shard width of each call.
	Observer FanOutObserver
}

// FanOutObserver receives how many shards a fan-out actually queried.
type FanOutObserver interface {
	ObserveFanOut(shards int)
}

var _ Query = (*Sharded)(nil)

// Comparator returns the merge strategy in effect.
func (q *Sharded) Comparator() Comparator {
	if q.Compare != nil {
		return q.Compare
	}
	return SortKeyComparator(q.Template.Index, q.Template.Descending)
}

func (q *Sharded) fingerprint() string {
	return Fingerprint(
		string(KindShard),
		q.Template.Index,
		q.LogicalKey,
		strconv.Itoa(q.ShardCount),
		strconv.Itoa(int(q.Template.Condition)),
		q.Template.SortValue,
		q.Template.SortUpper,
		strconv.FormatBool(q.Template.Descending),
	)
}

// Execute issues one bounded request per shard concurrently, joins them
// all, and merges the fronts into one page. A failed shard fails the
// whole page: silently dropping one would yield an incomplete,
// non-resumable result set.
func (q *Sharded) Execute(ctx context.Context, s store.Store, cursor string, limit int32) (*Page, error) {
	if q.ShardCount < 1 {
		return nil, apperrors.NewValidation("shard count must be at least 1")
	}
	if limit < 1 {
		limit = defaultFanOutLimit
	}

	physical, err := keys.ExpandShards(q.LogicalKey, q.ShardCount)
	if err != nil {
		return nil, err
	}
	labels := keys.ShardLabels(q.ShardCount)

	fingerprint := q.fingerprint()
	c, err := Decode(cursor, KindShard, fingerprint)
	if err != nil {
		return nil, err
	}

	states := make(map[string]*ShardPosition, len(labels))
	for _, label := range labels {
		if c != nil && c.Shards[label] != nil {
			states[label] = c.Shards[label]
		} else {
			states[label] = &ShardPosition{}
		}
	}

	results, err := q.fanOut(ctx, s, physical, labels, states, limit)
	if err != nil {
		return nil, err
	}

	items, heads := q.merge(results, limit)

	next, allDone := nextShardStates(q.Template.Index, labels, states, results, heads)
	page := &Page{Items: items}
	if !allDone {
		page.NextCursor, err = Encode(&Cursor{
			Kind:        KindShard,
			Fingerprint: fingerprint,
			Shards:      next,
		})
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

// fanOut queries every live shard concurrently and joins all requests
// before returning. The first failure cancels the remaining in-flight
// requests and is propagated once they have drained.
func (q *Sharded) fanOut(ctx context.Context, s store.Store, physical, labels []string,
	states map[string]*ShardPosition, limit int32) ([]*store.QueryResult, error) {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*store.QueryResult, len(labels))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	live := 0
	for i, label := range labels {
		if states[label].Done {
			continue
		}
		live++

		wg.Add(1)
		go func(i int, label string) {
			defer wg.Done()

			req := q.Template
			req.PartitionKey = physical[i]
			req.StartKey = states[label].Position
			req.Limit = limit

			result, err := s.Query(ctx, &req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results[i] = result
		}(i, label)
	}

	if q.Observer != nil {
		q.Observer.ObserveFanOut(live)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, apperrors.Wrap(firstErr, "shard query failed")
	}
	return results, nil
}

// merge repeatedly pops the best head across shard pages until the limit
// is reached or every page is drained. Ties keep the lowest shard label.
func (q *Sharded) merge(results []*store.QueryResult, limit int32) ([]store.Item, []int) {
	compare := q.Comparator()
	heads := make([]int, len(results))
	var items []store.Item

	for int32(len(items)) < limit {
		best := -1
		for i, result := range results {
			if result == nil || heads[i] >= len(result.Items) {
				continue
			}
			if best == -1 || compare(result.Items[heads[i]], results[best].Items[heads[best]]) < 0 {
				best = i
			}
		}
		if best == -1 {
			break
		}
		items = append(items, results[best].Items[heads[best]])
		heads[best]++
	}

	return items, heads
}

// nextShardStates re-encodes each shard's continuation: the key of the
// last item consumed from it, its store-native marker when the page was
// fully consumed, or done when the shard is exhausted.
func nextShardStates(index string, labels []string, states map[string]*ShardPosition,
	results []*store.QueryResult, heads []int) (map[string]*ShardPosition, bool) {

	next := make(map[string]*ShardPosition, len(labels))
	allDone := true

	for i, label := range labels {
		prev := states[label]
		if prev.Done {
			next[label] = &ShardPosition{Done: true}
			continue
		}

		result := results[i]
		state := &ShardPosition{}
		switch {
		case heads[i] < len(result.Items):
			// Partially consumed page: resume after the last merged item,
			// not at the store's own marker.
			if heads[i] == 0 {
				state.Position = prev.Position
			} else {
				state.Position = store.PositionOf(result.Items[heads[i]-1], index)
			}
		case result.HasNext():
			state.Position = result.Next
		default:
			state.Done = true
		}

		if !state.Done {
			allDone = false
		}
		next[label] = state
	}

	return next, allDone
}

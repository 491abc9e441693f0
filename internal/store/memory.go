package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"docstore/internal/keys"
	apperrors "docstore/pkg/errors"
)

// MemStore is an in-memory Store with the same range-query and pagination
// semantics as the DynamoDB implementation. It backs unit tests and local
// development; it is safe for concurrent use.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]Item)}
}

func itemKey(pk, sk string) string {
	return pk + "\x00" + sk
}

// Put writes an item unconditionally.
func (s *MemStore) Put(_ context.Context, item Item) error {
	pk := stringValue(item, keys.AttrPK)
	sk := stringValue(item, keys.AttrSK)
	if pk == "" || sk == "" {
		return apperrors.NewValidation("item requires PK and SK")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[itemKey(pk, sk)] = item
	return nil
}

// PutIfAbsent writes an item only if its primary key does not exist.
func (s *MemStore) PutIfAbsent(_ context.Context, item Item) error {
	pk := stringValue(item, keys.AttrPK)
	sk := stringValue(item, keys.AttrSK)
	if pk == "" || sk == "" {
		return apperrors.NewValidation("item requires PK and SK")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[itemKey(pk, sk)]; exists {
		return apperrors.NewValidation("item already exists")
	}
	s.items[itemKey(pk, sk)] = item
	return nil
}

// PutBatch writes all items.
func (s *MemStore) PutBatch(ctx context.Context, items []Item) error {
	for _, item := range items {
		if err := s.Put(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves one item by primary key.
func (s *MemStore) Get(_ context.Context, pk, sk string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemKey(pk, sk)]
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("item not found: %s %s", pk, sk))
	}
	return item, nil
}

// GetBatch fetches many items by primary key; missing keys are absent
// from the result.
func (s *MemStore) GetBatch(_ context.Context, ks []keys.EntityKey) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, 0, len(ks))
	for _, k := range ks {
		if item, ok := s.items[itemKey(k.PK, k.SK)]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Delete removes one item by primary key.
func (s *MemStore) Delete(_ context.Context, pk, sk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, itemKey(pk, sk))
	return nil
}

// Len reports the number of stored items.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Query runs one bounded range request. Pages are ordered by the index
// sort key with the table primary key as tie-break, matching what the
// backing table produces for items that collide on an index sort key.
func (s *MemStore) Query(_ context.Context, req *QueryRequest) (*QueryResult, error) {
	if req.PartitionKey == "" {
		return nil, apperrors.NewValidation("partition key is required")
	}

	pkAttr := PartitionAttr(req.Index)
	skAttr := SortAttr(req.Index)

	s.mu.RLock()
	var matched []Item
	for _, item := range s.items {
		if stringValue(item, pkAttr) != req.PartitionKey {
			continue
		}
		if req.Index != keys.IndexPrimary && stringValue(item, skAttr) == "" {
			continue
		}
		if !matchesSortCondition(stringValue(item, skAttr), req) {
			continue
		}
		matched = append(matched, item)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return compareItems(matched[i], matched[j], skAttr) < 0
	})
	if req.Descending {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	start := 0
	if len(req.StartKey) > 0 {
		start = resumeOffset(matched, req.StartKey, skAttr, req.Descending)
	}

	limit := int(req.Limit)
	if limit < 1 {
		limit = defaultQueryLimit
	}

	end := min(start+limit, len(matched))
	page := make([]Item, 0, end-start)
	for _, item := range matched[start:end] {
		page = append(page, projectItem(item, req.Projection))
	}

	result := &QueryResult{Items: page}
	if end < len(matched) && end > start {
		result.Next = PositionOf(matched[end-1], req.Index)
	}
	return result, nil
}

func matchesSortCondition(sk string, req *QueryRequest) bool {
	switch req.Condition {
	case SortEq:
		return sk == req.SortValue
	case SortBeginsWith:
		return strings.HasPrefix(sk, req.SortValue)
	case SortLte:
		return sk <= req.SortValue
	case SortBetween:
		return sk >= req.SortValue && sk <= req.SortUpper
	default:
		return true
	}
}

func compareItems(a, b Item, skAttr string) int {
	if c := strings.Compare(stringValue(a, skAttr), stringValue(b, skAttr)); c != 0 {
		return c
	}
	if c := strings.Compare(stringValue(a, keys.AttrPK), stringValue(b, keys.AttrPK)); c != 0 {
		return c
	}
	return strings.Compare(stringValue(a, keys.AttrSK), stringValue(b, keys.AttrSK))
}

// resumeOffset finds the first index after the item identified by the
// exclusive start position.
func resumeOffset(matched []Item, startKey Position, skAttr string, descending bool) int {
	for i, item := range matched {
		if stringValue(item, keys.AttrPK) == startKey[keys.AttrPK] &&
			stringValue(item, keys.AttrSK) == startKey[keys.AttrSK] {
			return i + 1
		}
	}
	// Position no longer present: fall back to scanning by sort value so a
	// concurrent delete does not restart the walk.
	sortFrom := startKey[skAttr]
	for i, item := range matched {
		sk := stringValue(item, skAttr)
		if (!descending && sk > sortFrom) || (descending && sk < sortFrom) {
			return i
		}
	}
	return len(matched)
}

// PositionOf derives the continuation position identifying an item within
// an index: the table primary key plus, for a GSI, the index key pair.
func PositionOf(item Item, index string) Position {
	pos := Position{
		keys.AttrPK: stringValue(item, keys.AttrPK),
		keys.AttrSK: stringValue(item, keys.AttrSK),
	}
	if index != keys.IndexPrimary {
		pos[PartitionAttr(index)] = stringValue(item, PartitionAttr(index))
		pos[SortAttr(index)] = stringValue(item, SortAttr(index))
	}
	return pos
}

// StringValue returns the string attribute value of an item, or "".
func StringValue(item Item, name string) string {
	return stringValue(item, name)
}

func projectItem(item Item, projection []string) Item {
	if len(projection) == 0 {
		return item
	}
	projected := make(Item, len(projection))
	for _, attr := range projection {
		if v, ok := item[attr]; ok {
			projected[attr] = v
		}
	}
	return projected
}

func stringValue(item Item, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Package store wraps the backing wide-column table behind a narrow
// contract: string-addressed put/get/delete, bounded range queries with
// opaque continuation positions, and chunked batch reads/writes.
package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"docstore/internal/keys"
)

// Item is a stored record: attribute name to store-native value.
type Item = map[string]types.AttributeValue

// Position is the store-native "where the last page ended" marker. Key
// attributes are string-typed by the table contract, so a flat string map
// round-trips it losslessly.
type Position = map[string]string

// SortCondition selects the sort-key comparison of a range query.
type SortCondition int

const (
	// SortAll places no condition on the sort key.
	SortAll SortCondition = iota
	// SortEq matches the sort key exactly.
	SortEq
	// SortBeginsWith matches sort keys sharing a prefix.
	SortBeginsWith
	// SortLte matches sort keys at or before a value.
	SortLte
	// SortBetween matches sort keys in a closed range.
	SortBetween
)

// QueryRequest is one bounded range request against the table or one of
// its global secondary indexes.
type QueryRequest struct {
	// Index is keys.IndexPrimary, keys.IndexGSI1 or keys.IndexGSI2.
	Index string
	// PartitionKey is required.
	PartitionKey string
	// Condition restricts the sort key; SortValue/SortUpper carry its
	// operands.
	Condition SortCondition
	SortValue string
	SortUpper string
	// Limit bounds the page size; values < 1 fall back to the store's
	// default.
	Limit int32
	// Descending reverses the sort-key scan order.
	Descending bool
	// StartKey resumes after a previous page's position.
	StartKey Position
	// Projection limits the returned attributes; empty returns all.
	Projection []string
}

// QueryResult is one page of a range query. Next is nil once the partition
// is exhausted.
type QueryResult struct {
	Items []Item
	Next  Position
}

// HasNext reports whether another page exists.
func (r *QueryResult) HasNext() bool {
	return len(r.Next) > 0
}

// Store is the backing table contract consumed by the query engine. All
// operations may block on network I/O and honor context cancellation.
type Store interface {
	Put(ctx context.Context, item Item) error
	// PutIfAbsent writes only when the primary key does not exist yet.
	PutIfAbsent(ctx context.Context, item Item) error
	PutBatch(ctx context.Context, items []Item) error
	Get(ctx context.Context, pk, sk string) (Item, error)
	GetBatch(ctx context.Context, ks []keys.EntityKey) ([]Item, error)
	Delete(ctx context.Context, pk, sk string) error
	Query(ctx context.Context, req *QueryRequest) (*QueryResult, error)
}

// PartitionAttr returns the partition-key attribute name of an index.
func PartitionAttr(index string) string {
	switch index {
	case keys.IndexGSI1:
		return keys.AttrGSI1PK
	case keys.IndexGSI2:
		return keys.AttrGSI2PK
	default:
		return keys.AttrPK
	}
}

// SortAttr returns the sort-key attribute name of an index.
func SortAttr(index string) string {
	switch index {
	case keys.IndexGSI1:
		return keys.AttrGSI1SK
	case keys.IndexGSI2:
		return keys.AttrGSI2SK
	default:
		return keys.AttrSK
	}
}

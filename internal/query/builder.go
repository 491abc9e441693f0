// Package query implements the engine's query protocol: a fluent builder
// for bounded range requests, opaque resumable cursors, and the Query /
// ShardQuery execution contracts.
package query

import (
	"fmt"

	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Builder assembles one bounded range request. Partition key is required;
// everything else defaults to "scan the whole partition ascending".
type Builder struct {
	req store.QueryRequest
	err error
}

// NewBuilder creates a builder for the primary index.
func NewBuilder() *Builder {
	return &Builder{}
}

// Index targets a global secondary index; omit for the primary index.
func (b *Builder) Index(name string) *Builder {
	b.req.Index = name
	return b
}

// PartitionKey sets the (already scope-prefixed) partition key.
func (b *Builder) PartitionKey(pk string) *Builder {
	b.req.PartitionKey = pk
	return b
}

// SortEq adds an equality condition on the sort key.
func (b *Builder) SortEq(value string) *Builder {
	return b.sortCondition(store.SortEq, value, "")
}

// SortBeginsWith adds a prefix condition on the sort key.
func (b *Builder) SortBeginsWith(prefix string) *Builder {
	return b.sortCondition(store.SortBeginsWith, prefix, "")
}

// SortLte adds an at-or-before condition on the sort key.
func (b *Builder) SortLte(value string) *Builder {
	return b.sortCondition(store.SortLte, value, "")
}

// SortBetween adds a closed-range condition on the sort key.
func (b *Builder) SortBetween(low, high string) *Builder {
	return b.sortCondition(store.SortBetween, low, high)
}

func (b *Builder) sortCondition(cond store.SortCondition, value, upper string) *Builder {
	if b.req.Condition != store.SortAll {
		b.err = apperrors.NewValidation("sort key condition already set")
		return b
	}
	b.req.Condition = cond
	b.req.SortValue = value
	b.req.SortUpper = upper
	return b
}

// Descending reverses the scan order.
func (b *Builder) Descending() *Builder {
	b.req.Descending = true
	return b
}

// Limit bounds the page size.
func (b *Builder) Limit(n int32) *Builder {
	b.req.Limit = n
	return b
}

// StartAt resumes after a previous position.
func (b *Builder) StartAt(pos store.Position) *Builder {
	b.req.StartKey = pos
	return b
}

// Project limits the attributes returned.
func (b *Builder) Project(attrs ...string) *Builder {
	b.req.Projection = attrs
	return b
}

// Build validates and returns the assembled request.
func (b *Builder) Build() (*store.QueryRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.req.PartitionKey == "" {
		return nil, apperrors.NewValidation("partition key is required")
	}
	req := b.req
	return &req, nil
}

// requestFingerprint canonicalizes the shape of a request, excluding the
// per-call limit and continuation position.
func requestFingerprint(kind Kind, req *store.QueryRequest) string {
	return Fingerprint(
		string(kind),
		req.Index,
		req.PartitionKey,
		fmt.Sprintf("%d", req.Condition),
		req.SortValue,
		req.SortUpper,
		fmt.Sprintf("%t", req.Descending),
	)
}

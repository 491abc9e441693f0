package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/keys"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

func TestBuilder_Defaults(t *testing.T) {
	req, err := NewBuilder().PartitionKey("docs#doc-1").Build()
	require.NoError(t, err)

	assert.Equal(t, keys.IndexPrimary, req.Index)
	assert.Equal(t, store.SortAll, req.Condition)
	assert.False(t, req.Descending)
	assert.Zero(t, req.Limit)
}

func TestBuilder_FullShape(t *testing.T) {
	req, err := NewBuilder().
		Index(keys.IndexGSI1).
		PartitionKey("docts#2025-03-01").
		SortBeginsWith("2025-03-01T10").
		Descending().
		Limit(25).
		Project("documentId", "path").
		Build()
	require.NoError(t, err)

	assert.Equal(t, keys.IndexGSI1, req.Index)
	assert.Equal(t, store.SortBeginsWith, req.Condition)
	assert.Equal(t, "2025-03-01T10", req.SortValue)
	assert.True(t, req.Descending)
	assert.Equal(t, int32(25), req.Limit)
	assert.Equal(t, []string{"documentId", "path"}, req.Projection)
}

func TestBuilder_SortBetween(t *testing.T) {
	req, err := NewBuilder().
		PartitionKey("docdate").
		SortBetween("2025-01-01", "2025-03-31").
		Build()
	require.NoError(t, err)

	assert.Equal(t, store.SortBetween, req.Condition)
	assert.Equal(t, "2025-01-01", req.SortValue)
	assert.Equal(t, "2025-03-31", req.SortUpper)
}

func TestBuilder_RejectsMissingPartitionKey(t *testing.T) {
	_, err := NewBuilder().SortEq("document").Build()
	assert.True(t, apperrors.IsValidation(err))
}

func TestBuilder_RejectsDuplicateSortCondition(t *testing.T) {
	_, err := NewBuilder().
		PartitionKey("docs#doc-1").
		SortEq("document").
		SortLte("zzz").
		Build()
	assert.True(t, apperrors.IsValidation(err))
}

func TestRequestFingerprint_IgnoresLimitAndStart(t *testing.T) {
	base := &store.QueryRequest{PartitionKey: "docdate", Descending: true}
	withPaging := &store.QueryRequest{
		PartitionKey: "docdate",
		Descending:   true,
		Limit:        50,
		StartKey:     store.Position{"PK": "docdate", "SK": "2025-01-01"},
	}

	assert.Equal(t, requestFingerprint(KindRange, base), requestFingerprint(KindRange, withPaging))
}

func TestRequestFingerprint_SeparatesShapes(t *testing.T) {
	a := &store.QueryRequest{PartitionKey: "docdate"}
	b := &store.QueryRequest{PartitionKey: "docdate", Descending: true}
	c := &store.QueryRequest{PartitionKey: "docdate", Condition: store.SortLte, SortValue: "2025-01-01"}

	assert.NotEqual(t, requestFingerprint(KindRange, a), requestFingerprint(KindRange, b))
	assert.NotEqual(t, requestFingerprint(KindRange, a), requestFingerprint(KindRange, c))
}

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstore/internal/keys"
	apperrors "docstore/pkg/errors"
)

func memItem(attrs map[string]string) Item {
	item := make(Item, len(attrs))
	for name, value := range attrs {
		item[name] = &types.AttributeValueMemberS{Value: value}
	}
	return item
}

func TestMemStore_PutGetDelete(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, memItem(map[string]string{
		keys.AttrPK: "docs#d1", keys.AttrSK: "document", "path": "f.txt",
	})))

	item, err := s.Get(ctx, "docs#d1", "document")
	require.NoError(t, err)
	assert.Equal(t, "f.txt", StringValue(item, "path"))

	require.NoError(t, s.Delete(ctx, "docs#d1", "document"))
	_, err = s.Get(ctx, "docs#d1", "document")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemStore_PutIfAbsent(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	item := memItem(map[string]string{keys.AttrPK: "docs#d1", keys.AttrSK: "document"})

	require.NoError(t, s.PutIfAbsent(ctx, item))
	err := s.PutIfAbsent(ctx, item)
	assert.True(t, apperrors.IsValidation(err))
}

func TestMemStore_QuerySortConditions(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	for _, sk := range []string{"attr#a", "attr#b", "document", "activity#1"} {
		require.NoError(t, s.Put(ctx, memItem(map[string]string{
			keys.AttrPK: "docs#d1", keys.AttrSK: sk,
		})))
	}

	tests := []struct {
		name string
		req  QueryRequest
		want []string
	}{
		{"all", QueryRequest{PartitionKey: "docs#d1"},
			[]string{"activity#1", "attr#a", "attr#b", "document"}},
		{"eq", QueryRequest{PartitionKey: "docs#d1", Condition: SortEq, SortValue: "document"},
			[]string{"document"}},
		{"begins with", QueryRequest{PartitionKey: "docs#d1", Condition: SortBeginsWith, SortValue: "attr#"},
			[]string{"attr#a", "attr#b"}},
		{"lte", QueryRequest{PartitionKey: "docs#d1", Condition: SortLte, SortValue: "attr#a"},
			[]string{"activity#1", "attr#a"}},
		{"between", QueryRequest{PartitionKey: "docs#d1", Condition: SortBetween, SortValue: "attr#a", SortUpper: "attr#z"},
			[]string{"attr#a", "attr#b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.Limit = 10
			result, err := s.Query(ctx, &req)
			require.NoError(t, err)

			var got []string
			for _, item := range result.Items {
				got = append(got, StringValue(item, keys.AttrSK))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemStore_QueryResumesDescending(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		require.NoError(t, s.Put(ctx, memItem(map[string]string{
			keys.AttrPK: "p", keys.AttrSK: fmt.Sprintf("k%d", i),
		})))
	}

	var got []string
	req := &QueryRequest{PartitionKey: "p", Descending: true, Limit: 3}
	for {
		result, err := s.Query(ctx, req)
		require.NoError(t, err)
		for _, item := range result.Items {
			got = append(got, StringValue(item, keys.AttrSK))
		}
		if !result.HasNext() {
			break
		}
		req.StartKey = result.Next
	}

	assert.Equal(t, []string{"k6", "k5", "k4", "k3", "k2", "k1", "k0"}, got)
}

func TestMemStore_GSIRequiresSortAttribute(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	// Projected into GSI1.
	require.NoError(t, s.Put(ctx, memItem(map[string]string{
		keys.AttrPK: "docs#d1", keys.AttrSK: "document",
		keys.AttrGSI1PK: "g", keys.AttrGSI1SK: "1",
	})))
	// Not projected: no GSI1 sort key.
	require.NoError(t, s.Put(ctx, memItem(map[string]string{
		keys.AttrPK: "docs#d2", keys.AttrSK: "document",
		keys.AttrGSI1PK: "g",
	})))

	result, err := s.Query(ctx, &QueryRequest{Index: keys.IndexGSI1, PartitionKey: "g", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
}

func TestMemStore_QueryProjection(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, memItem(map[string]string{
		keys.AttrPK: "p", keys.AttrSK: "s", "path": "f.txt", "userId": "u1",
	})))

	result, err := s.Query(ctx, &QueryRequest{
		PartitionKey: "p",
		Limit:        10,
		Projection:   []string{keys.AttrPK, keys.AttrSK, "path"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "f.txt", StringValue(result.Items[0], "path"))
	assert.Empty(t, StringValue(result.Items[0], "userId"))
}

func TestPositionOf(t *testing.T) {
	item := memItem(map[string]string{
		keys.AttrPK: "p", keys.AttrSK: "s",
		keys.AttrGSI1PK: "g", keys.AttrGSI1SK: "gs",
	})

	primary := PositionOf(item, keys.IndexPrimary)
	assert.Equal(t, Position{keys.AttrPK: "p", keys.AttrSK: "s"}, primary)

	gsi1 := PositionOf(item, keys.IndexGSI1)
	assert.Equal(t, Position{
		keys.AttrPK: "p", keys.AttrSK: "s",
		keys.AttrGSI1PK: "g", keys.AttrGSI1SK: "gs",
	}, gsi1)
}

package attributes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

func TestValue_Encode(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"string", NewString("invoice"), "invoice"},
		{"integer number", NewNumber(42), "42"},
		{"fractional number", NewNumber(3.25), "3.25"},
		{"boolean true", NewBoolean(true), "true"},
		{"boolean false", NewBoolean(false), "false"},
		{"key only", KeyOnly(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Encode())
		})
	}
}

func TestValue_ValidateRejectsUnknownType(t *testing.T) {
	err := Value{Type: ValueType("BLOB")}.Validate()
	assert.True(t, apperrors.IsValidation(err))
}

func TestNewRecord_Keys(t *testing.T) {
	r, err := NewRecord("acme", "doc-1", "category", NewString("invoice"))
	require.NoError(t, err)

	assert.Equal(t, "acme/docs#doc-1", r.PK)
	assert.Equal(t, "attr#category#invoice", r.SK)
	assert.Equal(t, "acme/attr#category", r.GSI1PK)
	assert.Equal(t, "invoice#doc-1", r.GSI1SK)
	assert.Equal(t, string(TypeString), r.ValueType)
}

func TestNewRecord_Validation(t *testing.T) {
	_, err := NewRecord("", "", "category", NewString("x"))
	assert.True(t, apperrors.IsValidation(err))

	_, err = NewRecord("", "doc-1", "", NewString("x"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestRecord_ValueRoundTrip(t *testing.T) {
	values := []Value{
		NewString("hello"),
		NewNumber(12.5),
		NewBoolean(true),
		KeyOnly(),
	}

	for _, v := range values {
		r, err := NewRecord("", "doc-1", "k", v)
		require.NoError(t, err)

		item, err := r.Item()
		require.NoError(t, err)
		parsed, err := FromItem(item)
		require.NoError(t, err)

		assert.Equal(t, v, parsed.Value())
	}
}

func newTestService() (*Service, *store.MemStore) {
	mem := store.NewMemStore()
	return NewService(mem, zap.NewNop()), mem
}

func TestService_ListForDocument(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "", "doc-1", "category", NewString("invoice")))
	require.NoError(t, svc.Set(ctx, "", "doc-1", "amount", NewNumber(99.5)))
	require.NoError(t, svc.Set(ctx, "", "doc-2", "category", NewString("receipt")))

	page, err := svc.ListForDocument(ctx, "", "doc-1", "", 10)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	first, err := FromItem(page.Items[0])
	require.NoError(t, err)
	assert.Equal(t, "amount", first.Key)
}

func TestService_FindEqual(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "", "doc-1", "category", NewString("invoice")))
	require.NoError(t, svc.Set(ctx, "", "doc-2", "category", NewString("invoice")))
	require.NoError(t, svc.Set(ctx, "", "doc-3", "category", NewString("receipt")))

	page, err := svc.FindEqual(ctx, "", "category", NewString("invoice"), "", 10)
	require.NoError(t, err)

	var ids []string
	for _, item := range page.Items {
		ids = append(ids, store.StringValue(item, "documentId"))
	}
	assert.Equal(t, []string{"doc-1", "doc-2"}, ids)
}

func TestService_FindEqual_KeyOnlyListsEveryHolder(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "", "doc-1", "starred", KeyOnly()))
	require.NoError(t, svc.Set(ctx, "", "doc-2", "starred", KeyOnly()))
	require.NoError(t, svc.Set(ctx, "", "doc-3", "other", KeyOnly()))

	page, err := svc.FindEqual(ctx, "", "starred", KeyOnly(), "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestService_HaveEqual(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "", "doc-1", "category", NewString("invoice")))
	require.NoError(t, svc.Set(ctx, "", "doc-2", "category", NewString("receipt")))
	require.NoError(t, svc.Set(ctx, "", "doc-3", "category", NewString("invoice")))

	found, err := svc.HaveEqual(ctx, "", "category", NewString("invoice"),
		[]string{"doc-1", "doc-2", "doc-3", "doc-4"})
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{
		"doc-1": true,
		"doc-2": false,
		"doc-3": true,
		"doc-4": false,
	}, found)
}

func TestService_Remove(t *testing.T) {
	svc, mem := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "", "doc-1", "category", NewString("invoice")))
	require.NoError(t, svc.Remove(ctx, "", "doc-1", "category", NewString("invoice")))

	assert.Equal(t, 0, mem.Len())
}

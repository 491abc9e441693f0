package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTypePredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
	}{
		{"validation", NewValidation("bad input"), IsValidation},
		{"not found", NewNotFound("missing"), IsNotFound},
		{"invalid cursor", NewInvalidCursor("stale", nil), IsInvalidCursor},
		{"store unavailable", NewStoreUnavailable("throttled", nil), IsStoreUnavailable},
		{"corrupt key", NewCorruptKey("garbage"), IsCorruptKey},
		{"internal", NewInternal("boom", nil), IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.predicate(tt.err))
			assert.False(t, tt.predicate(stderrors.New("plain")))
			assert.False(t, tt.predicate(nil))
		})
	}
}

func TestWrap_PreservesType(t *testing.T) {
	inner := NewNotFound("document missing")

	wrapped := Wrap(inner, "lookup failed")

	assert.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "lookup failed")
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrap(stderrors.New("socket closed"), "query failed")

	assert.True(t, IsInternal(wrapped))
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := NewStoreUnavailable("gave up", cause)

	require.True(t, stderrors.Is(err, cause))
}

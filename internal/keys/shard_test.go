package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "docstore/pkg/errors"
)

func TestShardLabels(t *testing.T) {
	assert.Equal(t, []string{"s00"}, ShardLabels(1))
	assert.Equal(t, []string{"s00", "s01", "s02"}, ShardLabels(3))
	assert.Equal(t, []string{"s00"}, ShardLabels(0))

	labels := ShardLabels(12)
	assert.Equal(t, "s11", labels[11])
}

func TestShardForID_IsStable(t *testing.T) {
	first := ShardForID("doc-42", 8)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ShardForID("doc-42", 8))
	}
}

func TestShardForID_StaysInAlphabet(t *testing.T) {
	labels := map[string]bool{}
	for _, l := range ShardLabels(4) {
		labels[l] = true
	}

	ids := []string{"a", "b", "doc-1", "doc-2", "x/y/z", "9f2c1e4a"}
	for _, id := range ids {
		assert.True(t, labels[ShardForID(id, 4)], "id %q landed outside the alphabet", id)
	}
}

func TestShardForID_SingleShard(t *testing.T) {
	assert.Equal(t, "s00", ShardForID("anything", 1))
	assert.Equal(t, "s00", ShardForID("anything", 0))
}

func TestAddRemoveShardSuffix(t *testing.T) {
	key := AddShardSuffix("activity#2025-03-01", "s03")
	assert.Equal(t, "activity#2025-03-01##s03", key)

	assert.Equal(t, "activity#2025-03-01", RemoveShardSuffix(key))

	// Keys without a suffix pass through untouched.
	assert.Equal(t, "activity#2025-03-01", RemoveShardSuffix("activity#2025-03-01"))
	// A trailing segment that is not a shard label is kept.
	assert.Equal(t, "activity##sXY", RemoveShardSuffix("activity##sXY"))
}

func TestExpandShards(t *testing.T) {
	physical, err := ExpandShards("acme/activity#2025-03-01", 3)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"acme/activity#2025-03-01##s00",
		"acme/activity#2025-03-01##s01",
		"acme/activity#2025-03-01##s02",
	}, physical)
}

func TestExpandShards_CoversEveryWriteShard(t *testing.T) {
	const count = 5
	physical, err := ExpandShards("docs#all", count)
	require.NoError(t, err)

	expanded := map[string]bool{}
	for _, p := range physical {
		expanded[p] = true
	}

	for _, id := range []string{"d1", "d2", "d3", "d4", "d5", "d6"} {
		write := AddShardSuffix("docs#all", ShardForID(id, count))
		assert.True(t, expanded[write], "write shard for %q not covered", id)
	}
}

func TestExpandShards_EmptyKey(t *testing.T) {
	_, err := ExpandShards("", 3)
	assert.True(t, apperrors.IsValidation(err))
}

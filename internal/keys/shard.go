package keys

import (
	"fmt"
	"hash/fnv"
	"strings"

	apperrors "docstore/pkg/errors"
)

// shardSeparator joins a logical index key and its shard label. The double
// delimiter keeps shard suffixes out of the normal "#" segment space.
const shardSeparator = Delimiter + Delimiter

// ShardLabel formats the label for shard i, e.g. "s00", "s07".
func ShardLabel(i int) string {
	return fmt.Sprintf("s%02d", i)
}

// ShardLabels returns the full shard alphabet for an index with count
// shards, in ascending label order.
func ShardLabels(count int) []string {
	if count < 1 {
		count = 1
	}
	labels := make([]string, count)
	for i := range labels {
		labels[i] = ShardLabel(i)
	}
	return labels
}

// ShardForID picks the stable shard label for a natural identifier.
// Records written under the same id always land on the same shard, so a
// fan-out read across all labels is complete.
func ShardForID(naturalID string, count int) string {
	if count <= 1 {
		return ShardLabel(0)
	}
	h := fnv.New32a()
	h.Write([]byte(naturalID))
	return ShardLabel(int(h.Sum32() % uint32(count)))
}

// AddShardSuffix appends a shard label to a logical key.
func AddShardSuffix(key, label string) string {
	if key == "" || label == "" {
		return key
	}
	return key + shardSeparator + label
}

// RemoveShardSuffix strips a trailing shard label, if present.
func RemoveShardSuffix(key string) string {
	idx := strings.LastIndex(key, shardSeparator)
	if idx < 0 {
		return key
	}
	suffix := key[idx+len(shardSeparator):]
	if len(suffix) == 3 && suffix[0] == 's' && isDigits(suffix[1:]) {
		return key[:idx]
	}
	return key
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ExpandShards enumerates every physical partition key a logical key is
// spread across. The shard count is fixed for the lifetime of an index;
// changing it requires a full re-index.
func ExpandShards(logicalKey string, count int) ([]string, error) {
	if logicalKey == "" {
		return nil, apperrors.NewValidation("logical key is required")
	}
	labels := ShardLabels(count)
	physical := make([]string, len(labels))
	for i, label := range labels {
		physical[i] = AddShardSuffix(logicalKey, label)
	}
	return physical, nil
}

package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Kind tags the cursor payload with the algorithm that produced it.
type Kind string

const (
	// KindRange is a plain single-partition range query.
	KindRange Kind = "range"
	// KindShard is a sharded fan-out query with per-shard positions.
	KindShard Kind = "shard"
	// KindFolderWalk is a recursive folder traversal.
	KindFolderWalk Kind = "folder-walk"
	// KindDateWalk is a newest-first walk across date buckets.
	KindDateWalk Kind = "date-walk"
)

// Cursor is the decoded continuation state of a paginated query. Callers
// only ever see its encoded, opaque form; all cross-call state lives here
// so the engine itself holds nothing between calls.
type Cursor struct {
	Kind        Kind           `json:"kind"`
	Fingerprint string         `json:"q"`
	Position    store.Position `json:"k,omitempty"`

	// Shards maps shard label to its continuation, for KindShard.
	Shards map[string]*ShardPosition `json:"shards,omitempty"`

	// Walk carries the traversal state, for KindFolderWalk and
	// KindDateWalk.
	Walk *WalkState `json:"walk,omitempty"`
}

// ShardPosition is one shard's continuation inside a combined cursor.
type ShardPosition struct {
	// Done marks a shard with no further items.
	Done bool `json:"done,omitempty"`
	// Position resumes the shard's next request; nil means the shard
	// has not advanced past its start.
	Position store.Position `json:"pos,omitempty"`
}

// WalkState is a traversal's cross-call state: the partition being
// listed, the store-native position inside it, and the queue of
// discovered but not yet visited partitions. Folder walks queue folder
// ids; date walks queue bucket days.
type WalkState struct {
	CurrentID   string         `json:"currentId"`
	StoreCursor store.Position `json:"storeCursor,omitempty"`
	Pending     []string       `json:"pendingQueue,omitempty"`
}

// Fingerprint hashes the shape of a query so a cursor replayed against
// different parameters is rejected instead of producing garbage pages.
func Fingerprint(parts ...string) string {
	h := fnv.New64a()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Encode serializes a cursor into its opaque token form. Encoding is
// deterministic: decoding and re-encoding a token yields identical bytes.
func Encode(c *Cursor) (string, error) {
	if c == nil {
		return "", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", apperrors.NewInternal("failed to encode cursor", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses an opaque token and verifies it belongs to the query
// shape identified by kind and fingerprint. An empty token means "start
// from the beginning" and decodes to nil.
func Decode(token string, kind Kind, fingerprint string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, apperrors.NewInvalidCursor("cursor is not valid base64", err)
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, apperrors.NewInvalidCursor("cursor payload is malformed", err)
	}

	if c.Kind != kind {
		return nil, apperrors.NewInvalidCursor(
			fmt.Sprintf("cursor kind %q does not match query kind %q", c.Kind, kind), nil)
	}
	if c.Fingerprint != fingerprint {
		return nil, apperrors.NewInvalidCursor("cursor does not match this query's parameters", nil)
	}

	return &c, nil
}

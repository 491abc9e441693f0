package documents

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"docstore/internal/dates"
	"docstore/internal/keys"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Activity types recorded on documents.
const (
	ActivityCreate = "create"
	ActivityUpdate = "update"
	ActivityDelete = "delete"
)

// activityTimeFormat is fixed-width, unlike RFC3339Nano which trims
// trailing zeros. Sort keys built from it stay the same length, so
// lexicographic order over the activity range is chronological order
// down to the nanosecond.
const activityTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ActivityRecord is one entry in a document's activity trail. GSI1
// projects it into the per-day activity index, which is sharded: a busy
// day's writes spread across a fixed shard alphabet, with each
// document's entries pinned to one shard by its id.
type ActivityRecord struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	DocumentID string `dynamodbav:"documentId"`
	Type       string `dynamodbav:"type"`
	UserID     string `dynamodbav:"userId,omitempty"`
	Timestamp  string `dynamodbav:"timestamp"`
}

// NewActivityRecord builds one activity entry for a document.
func NewActivityRecord(siteID, documentID, activityType, userID string, at time.Time, shardCount int) (ActivityRecord, error) {
	if documentID == "" {
		return ActivityRecord{}, apperrors.NewValidation("document id is required")
	}
	switch activityType {
	case ActivityCreate, ActivityUpdate, ActivityDelete:
	default:
		return ActivityRecord{}, apperrors.NewValidation("unknown activity type: " + activityType)
	}

	ts := at.UTC().Format(activityTimeFormat)
	day := at.UTC().Format(dates.DateFormat)
	shard := keys.ShardForID(documentID, shardCount)
	key, err := keys.Build(siteID, keys.PrefixDocs, documentID, keys.PrefixSKActivity, ts)
	if err != nil {
		return ActivityRecord{}, err
	}
	return ActivityRecord{
		PK:         key.PK,
		SK:         key.SK,
		GSI1PK:     keys.AddShardSuffix(ActivityPartitionKey(siteID, day), shard),
		GSI1SK:     ts + keys.Delimiter + documentID,
		DocumentID: documentID,
		Type:       activityType,
		UserID:     userID,
		Timestamp:  ts,
	}, nil
}

// ActivityPartitionKey is the scope-prefixed logical per-day activity
// partition, before shard expansion.
func ActivityPartitionKey(siteID, day string) string {
	return keys.ScopeKey(siteID, keys.PrefixSKActivity+day)
}

// Item marshals the record into its stored form.
func (r ActivityRecord) Item() (store.Item, error) {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, apperrors.NewInternal("failed to marshal activity record", err)
	}
	return item, nil
}

// ActivityFromItem unmarshals a stored activity row.
func ActivityFromItem(item store.Item) (ActivityRecord, error) {
	var r ActivityRecord
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return ActivityRecord{}, apperrors.NewInternal("failed to unmarshal activity record", err)
	}
	return r, nil
}

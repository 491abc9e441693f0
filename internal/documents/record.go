// Package documents owns the document entity: its primary record, its
// per-day time-series projection, its activity trail, and the save-time
// fan-out into the date bucket and folder indexes.
package documents

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"docstore/internal/dates"
	"docstore/internal/keys"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Document is the caller-facing shape of a document's metadata.
type Document struct {
	DocumentID   string
	Path         string
	ContentType  string
	UserID       string
	InsertedDate time.Time
}

// Record is the stored document row. GSI1 projects it into the per-day
// time series: documents inserted on the same day share a partition,
// ordered by full timestamp with the id as tie-break.
type Record struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	DocumentID   string `dynamodbav:"documentId"`
	Path         string `dynamodbav:"path,omitempty"`
	ContentType  string `dynamodbav:"contentType,omitempty"`
	UserID       string `dynamodbav:"userId,omitempty"`
	InsertedDate string `dynamodbav:"insertedDate"`
}

// NewRecord builds the stored form of a document.
func NewRecord(siteID string, doc *Document) (Record, error) {
	if doc.DocumentID == "" {
		return Record{}, apperrors.NewValidation("document id is required")
	}
	if doc.InsertedDate.IsZero() {
		return Record{}, apperrors.NewValidation("inserted date is required")
	}

	ts := doc.InsertedDate.UTC().Format(time.RFC3339)
	day := doc.InsertedDate.UTC().Format(dates.DateFormat)
	key, err := keys.Build(siteID, keys.PrefixDocs, doc.DocumentID, keys.SKDocument, "")
	if err != nil {
		return Record{}, err
	}
	return Record{
		PK:           key.PK,
		SK:           key.SK,
		GSI1PK:       TimeSeriesPartitionKey(siteID, day),
		GSI1SK:       ts + keys.Delimiter + doc.DocumentID,
		DocumentID:   doc.DocumentID,
		Path:         doc.Path,
		ContentType:  doc.ContentType,
		UserID:       doc.UserID,
		InsertedDate: ts,
	}, nil
}

// TimeSeriesPartitionKey is the scope-prefixed per-day partition of the
// document time series.
func TimeSeriesPartitionKey(siteID, day string) string {
	return keys.ScopeKey(siteID, keys.PrefixDocDateTS+day)
}

// Item marshals the record into its stored form.
func (r Record) Item() (store.Item, error) {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, apperrors.NewInternal("failed to marshal document record", err)
	}
	return item, nil
}

// FromItem unmarshals a stored document row.
func FromItem(item store.Item) (Record, error) {
	var r Record
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return Record{}, apperrors.NewInternal("failed to unmarshal document record", err)
	}
	return r, nil
}

// Document reconstructs the caller-facing shape of a stored row.
func (r Record) Document() (*Document, error) {
	inserted, err := time.Parse(time.RFC3339, r.InsertedDate)
	if err != nil {
		return nil, apperrors.NewCorruptKey("document has malformed inserted date: " + r.InsertedDate)
	}
	return &Document{
		DocumentID:   r.DocumentID,
		Path:         r.Path,
		ContentType:  r.ContentType,
		UserID:       r.UserID,
		InsertedDate: inserted,
	}, nil
}

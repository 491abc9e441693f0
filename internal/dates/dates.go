// Package dates maintains the per-site date bucket index: one row per
// calendar day on which at least one document was inserted. The bucket
// partition is what lets "list everything" run as a bounded series of
// per-day queries instead of a table scan.
package dates

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"

	"docstore/internal/keys"
	"docstore/internal/query"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// DateFormat is the bucket sort key layout. Lexicographic order on it is
// chronological order.
const DateFormat = "2006-01-02"

// Record is one date bucket row.
type Record struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	Date string `dynamodbav:"date"`
}

// PartitionKey returns the scope-prefixed bucket partition key of a site.
func PartitionKey(siteID string) string {
	return keys.ScopeKey(siteID, keys.PrefixDocDate)
}

// Service records and queries date buckets.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a date bucket service.
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// Record marks a day as populated. Recording the same day any number of
// times leaves exactly one row.
func (s *Service) Record(ctx context.Context, siteID string, t time.Time) error {
	date := t.UTC().Format(DateFormat)
	key, err := keys.Build(siteID, keys.PrefixDocDate, "", date, "")
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(Record{
		PK:   key.PK,
		SK:   key.SK,
		Date: date,
	})
	if err != nil {
		return apperrors.NewInternal("failed to marshal date bucket", err)
	}

	if err := s.store.PutIfAbsent(ctx, item); err != nil {
		// The bucket already existing is the expected steady state.
		if apperrors.IsValidation(err) {
			return nil
		}
		return err
	}
	s.logger.Debug("recorded date bucket",
		zap.String("siteId", siteID), zap.String("date", date))
	return nil
}

// MostRecent returns one page of populated days, newest first.
func (s *Service) MostRecent(ctx context.Context, siteID, cursor string, limit int32) (*query.Page, error) {
	req, err := query.NewBuilder().
		PartitionKey(PartitionKey(siteID)).
		Descending().
		Build()
	if err != nil {
		return nil, err
	}
	return query.NewRange(req).Execute(ctx, s.store, cursor, limit)
}

// OnOrBefore returns one page of populated days at or before date,
// newest first.
func (s *Service) OnOrBefore(ctx context.Context, siteID, date, cursor string, limit int32) (*query.Page, error) {
	if _, err := time.Parse(DateFormat, date); err != nil {
		return nil, apperrors.NewValidation("date must be formatted YYYY-MM-DD")
	}
	req, err := query.NewBuilder().
		PartitionKey(PartitionKey(siteID)).
		SortLte(date).
		Descending().
		Build()
	if err != nil {
		return nil, err
	}
	return query.NewRange(req).Execute(ctx, s.store, cursor, limit)
}

// DateOf extracts the bucket day from a stored row.
func DateOf(item store.Item) string {
	return store.StringValue(item, keys.AttrSK)
}

package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docstore/internal/dates"
	"docstore/internal/folders"
	"docstore/internal/keys"
	"docstore/internal/query"
	"docstore/internal/store"
	"docstore/pkg/config"
	apperrors "docstore/pkg/errors"
)

// deletePageSize bounds one round of partition cleanup during delete.
const deletePageSize = 100

// Service coordinates document writes across the record itself, the
// date bucket index, the folder index and the activity trail.
type Service struct {
	store          store.Store
	folders        *folders.Service
	dates          *dates.Service
	logger         *zap.Logger
	activityShards int
	limits         config.Limiter
	metrics        query.Metrics
	now            func() time.Time
}

// NewService creates a document service. activityShards fixes the fan-out
// width of the per-day activity index and must not change once data
// exists.
func NewService(s store.Store, f *folders.Service, d *dates.Service, activityShards int, logger *zap.Logger) *Service {
	if activityShards < 1 {
		activityShards = 1
	}
	return &Service{
		store:          s,
		folders:        f,
		dates:          d,
		logger:         logger,
		activityShards: activityShards,
		now:            time.Now,
	}
}

// WithLimits attaches the active page-size limits. Without it the
// defaults apply.
func (s *Service) WithLimits(l config.Limiter) *Service {
	s.limits = l
	return s
}

// WithMetrics attaches query metrics to every list path.
func (s *Service) WithMetrics(m query.Metrics) *Service {
	s.metrics = m
	return s
}

// run executes a query with the current page-size limits applied and
// metrics recorded.
func (s *Service) run(ctx context.Context, name string, q query.Query, cursor string, limit int32) (*query.Page, error) {
	return query.Instrument(name, q, s.metrics).Execute(ctx, s.store, cursor, s.limitsConfig().ClampLimit(limit))
}

func (s *Service) limitsConfig() *config.DynamicConfig {
	if s.limits != nil {
		return s.limits.Current()
	}
	return config.DefaultDynamicConfig()
}

// Save writes a document and fans out to every index that tracks it: the
// date bucket for its insertion day, the folder chain of its path, and
// an activity entry. Missing id and timestamp are filled in.
func (s *Service) Save(ctx context.Context, siteID string, doc *Document) error {
	if doc == nil {
		return apperrors.NewValidation("document is required")
	}
	if doc.DocumentID == "" {
		doc.DocumentID = uuid.NewString()
	}
	if doc.InsertedDate.IsZero() {
		doc.InsertedDate = s.now()
	}

	activityType := ActivityCreate
	if _, err := s.Get(ctx, siteID, doc.DocumentID); err == nil {
		activityType = ActivityUpdate
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	record, err := NewRecord(siteID, doc)
	if err != nil {
		return err
	}
	item, err := record.Item()
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, item); err != nil {
		return err
	}

	if err := s.dates.Record(ctx, siteID, doc.InsertedDate); err != nil {
		return err
	}
	if doc.Path != "" {
		if err := s.folders.IndexDocument(ctx, siteID, doc.DocumentID, doc.Path); err != nil {
			return err
		}
	}
	if err := s.recordActivity(ctx, siteID, doc.DocumentID, activityType, doc.UserID); err != nil {
		return err
	}

	s.logger.Info("saved document",
		zap.String("siteId", siteID),
		zap.String("documentId", doc.DocumentID),
		zap.String("activity", activityType))
	return nil
}

// Get returns a document's metadata.
func (s *Service) Get(ctx context.Context, siteID, documentID string) (*Document, error) {
	if documentID == "" {
		return nil, apperrors.NewValidation("document id is required")
	}
	item, err := s.store.Get(ctx, keys.ScopeKey(siteID, keys.PrefixDocs+documentID), keys.SKDocument)
	if err != nil {
		return nil, err
	}
	record, err := FromItem(item)
	if err != nil {
		return nil, err
	}
	return record.Document()
}

// Delete removes a document and its entire partition: the record, its
// attributes and its activity trail, plus the file entry in the folder
// index. Folder rows stay for their remaining children.
func (s *Service) Delete(ctx context.Context, siteID, documentID string) error {
	doc, err := s.Get(ctx, siteID, documentID)
	if err != nil {
		return err
	}

	pk := keys.ScopeKey(siteID, keys.PrefixDocs+documentID)
	for {
		result, err := s.store.Query(ctx, &store.QueryRequest{
			PartitionKey: pk,
			Limit:        deletePageSize,
			Projection:   []string{keys.AttrPK, keys.AttrSK},
		})
		if err != nil {
			return err
		}
		for _, item := range result.Items {
			k := keys.FromItem(item)
			if err := s.store.Delete(ctx, k.PK, k.SK); err != nil {
				return err
			}
		}
		if !result.HasNext() {
			break
		}
	}

	if doc.Path != "" {
		if err := s.folders.RemoveDocument(ctx, siteID, doc.Path); err != nil {
			return err
		}
	}

	s.logger.Info("deleted document",
		zap.String("siteId", siteID),
		zap.String("documentId", documentID))
	return nil
}

// ListByDate returns one page of documents inserted on a day, newest
// first.
func (s *Service) ListByDate(ctx context.Context, siteID, day, cursor string, limit int32) (*query.Page, error) {
	if _, err := time.Parse(dates.DateFormat, day); err != nil {
		return nil, apperrors.NewValidation("day must be formatted YYYY-MM-DD")
	}
	req, err := query.NewBuilder().
		Index(keys.IndexGSI1).
		PartitionKey(TimeSeriesPartitionKey(siteID, day)).
		Descending().
		Build()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "documents.list_by_date", query.NewRange(req), cursor, limit)
}

// ListAll returns one page of every document in a site, newest first.
func (s *Service) ListAll(ctx context.Context, siteID, cursor string, limit int32) (*query.Page, error) {
	w := &AllDocuments{
		SiteID:   siteID,
		Prefetch: s.limitsConfig().Limits.BucketPrefetch,
	}
	return s.run(ctx, "documents.list_all", w, cursor, limit)
}

// ListActivity returns one page of a document's activity trail, newest
// first.
func (s *Service) ListActivity(ctx context.Context, siteID, documentID, cursor string, limit int32) (*query.Page, error) {
	if documentID == "" {
		return nil, apperrors.NewValidation("document id is required")
	}
	req, err := query.NewBuilder().
		PartitionKey(keys.ScopeKey(siteID, keys.PrefixDocs+documentID)).
		SortBeginsWith(keys.PrefixSKActivity).
		Descending().
		Build()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "documents.list_activity", query.NewRange(req), cursor, limit)
}

// ListActivityByDate returns one page of a whole day's activity across
// every document, newest first, merged from all shards of the per-day
// activity index.
func (s *Service) ListActivityByDate(ctx context.Context, siteID, day, cursor string, limit int32) (*query.Page, error) {
	if _, err := time.Parse(dates.DateFormat, day); err != nil {
		return nil, apperrors.NewValidation("day must be formatted YYYY-MM-DD")
	}
	q := &query.Sharded{
		LogicalKey: ActivityPartitionKey(siteID, day),
		ShardCount: s.activityShards,
		Template: store.QueryRequest{
			Index:      keys.IndexGSI1,
			Descending: true,
		},
	}
	return s.run(ctx, "documents.activity_by_date", q, cursor, limit)
}

func (s *Service) recordActivity(ctx context.Context, siteID, documentID, activityType, userID string) error {
	record, err := NewActivityRecord(siteID, documentID, activityType, userID, s.now(), s.activityShards)
	if err != nil {
		return err
	}
	item, err := record.Item()
	if err != nil {
		return err
	}
	return s.store.Put(ctx, item)
}

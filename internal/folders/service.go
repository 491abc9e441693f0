package folders

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"docstore/internal/keys"
	"docstore/internal/query"
	"docstore/internal/store"
	"docstore/pkg/config"
	apperrors "docstore/pkg/errors"
)

// Service maintains folder partitions for documents and lists them.
type Service struct {
	store   store.Store
	logger  *zap.Logger
	limits  config.Limiter
	metrics query.Metrics
}

// NewService creates a folder index service.
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// WithLimits attaches the active page-size limits. Without it the
// defaults apply.
func (s *Service) WithLimits(l config.Limiter) *Service {
	s.limits = l
	return s
}

// WithMetrics attaches query metrics to the list and walk paths.
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

// IndexDocument writes the folder chain and file entry for a document
// path. Folder rows are create-if-absent so concurrent writers of
// sibling documents never clobber each other; the file row is always
// overwritten to pick up the latest document id.
func (s *Service) IndexDocument(ctx context.Context, siteID, documentID, path string) error {
	records, err := RecordsForPath(siteID, documentID, path, time.Now())
	if err != nil {
		return err
	}

	for _, r := range records {
		item, err := r.Item()
		if err != nil {
			return err
		}
		if r.IsFolder() {
			if err := s.store.PutIfAbsent(ctx, item); err != nil {
				if apperrors.IsValidation(err) {
					continue
				}
				return err
			}
			continue
		}
		if err := s.store.Put(ctx, item); err != nil {
			return err
		}
	}

	s.logger.Debug("indexed document path",
		zap.String("siteId", siteID),
		zap.String("documentId", documentID),
		zap.String("path", path))
	return nil
}

// RemoveDocument deletes the file entry of a document path. Folder rows
// stay: other documents may share the chain, and empty folders remain
// listable.
func (s *Service) RemoveDocument(ctx context.Context, siteID, path string) error {
	records, err := RecordsForPath(siteID, "", path, time.Now())
	if err != nil {
		return err
	}
	file := records[len(records)-1]
	return s.store.Delete(ctx, file.PK, file.SK)
}

// List returns one page of a folder's direct contents, folders before
// files, each group in path order.
func (s *Service) List(ctx context.Context, siteID, folderID, cursor string, limit int32) (*query.Page, error) {
	req, err := query.NewBuilder().
		PartitionKey(PartitionKey(siteID, folderID)).
		Build()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "folders.list", query.NewRange(req), cursor, limit)
}

// Walk returns one page of a recursive folder traversal rooted at
// folderID.
func (s *Service) Walk(ctx context.Context, siteID, folderID, cursor string, limit int32) (*query.Page, error) {
	w := &Walker{SiteID: siteID, FolderID: folderID}
	return s.run(ctx, "folders.walk", w, cursor, limit)
}

// isFolderRow reports whether a raw item is a subfolder entry without a
// full unmarshal.
func isFolderRow(item store.Item) bool {
	return strings.HasPrefix(store.StringValue(item, keys.AttrSK), keys.PrefixSKFolder)
}

package attributes

import (
	"context"

	"go.uber.org/zap"

	"docstore/internal/keys"
	"docstore/internal/query"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Service stores and searches document attributes.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates an attribute service.
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// Set writes one attribute on a document, replacing any row with the
// same key and value.
func (s *Service) Set(ctx context.Context, siteID, documentID, key string, value Value) error {
	r, err := NewRecord(siteID, documentID, key, value)
	if err != nil {
		return err
	}
	item, err := r.Item()
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, item); err != nil {
		return err
	}
	s.logger.Debug("set attribute",
		zap.String("siteId", siteID),
		zap.String("documentId", documentID),
		zap.String("key", key),
		zap.String("valueType", string(value.Type)))
	return nil
}

// Remove deletes one attribute value from a document.
func (s *Service) Remove(ctx context.Context, siteID, documentID, key string, value Value) error {
	r, err := NewRecord(siteID, documentID, key, value)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, r.PK, r.SK)
}

// ListForDocument returns one page of a document's attributes in key
// order.
func (s *Service) ListForDocument(ctx context.Context, siteID, documentID, cursor string, limit int32) (*query.Page, error) {
	if documentID == "" {
		return nil, apperrors.NewValidation("document id is required")
	}
	req, err := query.NewBuilder().
		PartitionKey(keys.ScopeKey(siteID, keys.PrefixDocs+documentID)).
		SortBeginsWith(keys.PrefixSKAttr).
		Build()
	if err != nil {
		return nil, err
	}
	return query.NewRange(req).Execute(ctx, s.store, cursor, limit)
}

// FindEqual returns one page of documents whose attribute equals value,
// ordered by document id via the equality index. A key-only value lists
// every document carrying the key.
func (s *Service) FindEqual(ctx context.Context, siteID, key string, value Value, cursor string, limit int32) (*query.Page, error) {
	if key == "" {
		return nil, apperrors.NewValidation("attribute key is required")
	}
	if err := value.Validate(); err != nil {
		return nil, err
	}

	b := query.NewBuilder().
		Index(keys.IndexGSI1).
		PartitionKey(EqualityPartitionKey(siteID, key))
	if value.Type != TypeKeyOnly {
		b = b.SortBeginsWith(value.Encode() + keys.Delimiter)
	}
	req, err := b.Build()
	if err != nil {
		return nil, err
	}
	return query.NewRange(req).Execute(ctx, s.store, cursor, limit)
}

// HaveEqual checks which of the given documents carry the attribute with
// exactly the given value. It runs as one batched point lookup instead
// of one query per document.
func (s *Service) HaveEqual(ctx context.Context, siteID, key string, value Value, documentIDs []string) (map[string]bool, error) {
	if key == "" {
		return nil, apperrors.NewValidation("attribute key is required")
	}
	if err := value.Validate(); err != nil {
		return nil, err
	}

	ks := make([]keys.EntityKey, 0, len(documentIDs))
	for _, id := range documentIDs {
		ks = append(ks, keys.EntityKey{
			PK: keys.ScopeKey(siteID, keys.PrefixDocs+id),
			SK: SortKey(key, value),
		})
	}

	items, err := s.store.GetBatch(ctx, ks)
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		found[id] = false
	}
	for _, item := range items {
		found[store.StringValue(item, "documentId")] = true
	}
	return found, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"docstore/internal/keys"
	apperrors "docstore/pkg/errors"
)

// GetBatch fetches many items by primary key in chunks of 100, retrying
// unprocessed keys. Missing keys are silently absent from the result;
// callers that need per-key resolution match on PK/SK.
func (s *DynamoStore) GetBatch(ctx context.Context, ks []keys.EntityKey) ([]Item, error) {
	if len(ks) == 0 {
		return nil, nil
	}

	const chunkSize = 100
	items := make([]Item, 0, len(ks))

	for i := 0; i < len(ks); i += chunkSize {
		end := min(i+chunkSize, len(ks))

		chunk := make([]map[string]types.AttributeValue, 0, end-i)
		for _, k := range ks[i:end] {
			chunk = append(chunk, k.PrimaryKeyAttrs())
		}

		got, err := s.readBatch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		items = append(items, got...)
	}

	return items, nil
}

func (s *DynamoStore) readBatch(ctx context.Context, requestKeys []map[string]types.AttributeValue) ([]Item, error) {
	const maxRetries = 3

	var items []Item
	unprocessed := requestKeys

	for retry := 0; retry < maxRetries && len(unprocessed) > 0; retry++ {
		input := &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				s.tableName: {Keys: unprocessed},
			},
		}

		var out *dynamodb.BatchGetItemOutput
		err := s.execute(ctx, "BatchGetItem", func(ctx context.Context) error {
			var err error
			out, err = s.client.BatchGetItem(ctx, input)
			return err
		})
		if err != nil {
			return nil, err
		}

		items = append(items, out.Responses[s.tableName]...)

		unprocessed = nil
		if pending, ok := out.UnprocessedKeys[s.tableName]; ok {
			unprocessed = pending.Keys
		}
		if len(unprocessed) > 0 {
			backoff := time.Duration(retry*retry+1) * 100 * time.Millisecond
			s.logger.Debug("Retrying unprocessed batch reads",
				zap.Int("unprocessedCount", len(unprocessed)),
				zap.Int("retry", retry+1),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if len(unprocessed) > 0 {
		return nil, apperrors.NewStoreUnavailable(
			fmt.Sprintf("failed to read %d keys after retries", len(unprocessed)), nil)
	}
	return items, nil
}

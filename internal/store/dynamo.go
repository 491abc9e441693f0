package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"docstore/internal/keys"
	apperrors "docstore/pkg/errors"
)

const defaultQueryLimit = 10

// Instrumentation receives store-level retry signals.
type Instrumentation interface {
	IncRetry(operation string)
}

// DynamoStore implements Store against DynamoDB. Transient errors are
// retried with backoff at the single-request level; a circuit breaker
// sheds load once the table is persistently unavailable.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	breaker   *gobreaker.CircuitBreaker
	logger    *zap.Logger
	instr     Instrumentation
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoDB-backed store for the given table.
func NewDynamoStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoStore {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dynamodb-" + tableName,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Store circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &DynamoStore{
		client:    client,
		tableName: tableName,
		breaker:   breaker,
		logger:    logger,
	}
}

// WithInstrumentation attaches retry metrics to the store.
func (s *DynamoStore) WithInstrumentation(instr Instrumentation) *DynamoStore {
	s.instr = instr
	return s
}

// Put writes an item unconditionally.
func (s *DynamoStore) Put(ctx context.Context, item Item) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}
	return s.execute(ctx, "PutItem", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, input)
		return err
	})
}

// PutIfAbsent writes an item only if its primary key does not exist yet.
// An existing item is reported as a validation failure, not overwritten.
func (s *DynamoStore) PutIfAbsent(ctx context.Context, item Item) error {
	condition := expression.Name(keys.AttrPK).AttributeNotExists()
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return apperrors.NewInternal("failed to build condition expression", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	err = s.execute(ctx, "PutItem", func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, input)
		return err
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return apperrors.NewValidation("item already exists")
	}
	return err
}

// PutBatch writes items in chunks of 25, retrying unprocessed entries.
func (s *DynamoStore) PutBatch(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	const batchSize = 25
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))

		requests := make([]types.WriteRequest, 0, end-i)
		for _, item := range items[i:end] {
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeBatch(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves one item by its primary key. A missing item is a
// NotFound error, distinct from a store failure.
func (s *DynamoStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			keys.AttrPK: &types.AttributeValueMemberS{Value: pk},
			keys.AttrSK: &types.AttributeValueMemberS{Value: sk},
		},
	}

	var out *dynamodb.GetItemOutput
	err := s.execute(ctx, "GetItem", func(ctx context.Context) error {
		var err error
		out, err = s.client.GetItem(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, apperrors.NewNotFound(fmt.Sprintf("item not found: %s %s", pk, sk))
	}
	return out.Item, nil
}

// Delete removes one item by its primary key.
func (s *DynamoStore) Delete(ctx context.Context, pk, sk string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			keys.AttrPK: &types.AttributeValueMemberS{Value: pk},
			keys.AttrSK: &types.AttributeValueMemberS{Value: sk},
		},
	}
	return s.execute(ctx, "DeleteItem", func(ctx context.Context) error {
		_, err := s.client.DeleteItem(ctx, input)
		return err
	})
}

// Query runs one bounded range request and returns one page.
func (s *DynamoStore) Query(ctx context.Context, req *QueryRequest) (*QueryResult, error) {
	input, err := s.buildQueryInput(req)
	if err != nil {
		return nil, err
	}

	var out *dynamodb.QueryOutput
	err = s.execute(ctx, "Query", func(ctx context.Context) error {
		var err error
		out, err = s.client.Query(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	next, err := positionFromAttrs(out.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Items: out.Items, Next: next}, nil
}

func (s *DynamoStore) buildQueryInput(req *QueryRequest) (*dynamodb.QueryInput, error) {
	if req.PartitionKey == "" {
		return nil, apperrors.NewValidation("partition key is required")
	}

	pkAttr := PartitionAttr(req.Index)
	skAttr := SortAttr(req.Index)

	names := map[string]string{"#pk": pkAttr}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: req.PartitionKey},
	}

	conditions := []string{"#pk = :pk"}
	switch req.Condition {
	case SortAll:
	case SortEq:
		names["#sk"] = skAttr
		values[":sk"] = &types.AttributeValueMemberS{Value: req.SortValue}
		conditions = append(conditions, "#sk = :sk")
	case SortBeginsWith:
		names["#sk"] = skAttr
		values[":sk"] = &types.AttributeValueMemberS{Value: req.SortValue}
		conditions = append(conditions, "begins_with(#sk, :sk)")
	case SortLte:
		names["#sk"] = skAttr
		values[":sk"] = &types.AttributeValueMemberS{Value: req.SortValue}
		conditions = append(conditions, "#sk <= :sk")
	case SortBetween:
		names["#sk"] = skAttr
		values[":sklo"] = &types.AttributeValueMemberS{Value: req.SortValue}
		values[":skhi"] = &types.AttributeValueMemberS{Value: req.SortUpper}
		conditions = append(conditions, "#sk BETWEEN :sklo AND :skhi")
	default:
		return nil, apperrors.NewValidation("unknown sort key condition")
	}

	limit := req.Limit
	if limit < 1 {
		limit = defaultQueryLimit
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    aws.String(strings.Join(conditions, " AND ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		Limit:                     aws.Int32(limit),
		ScanIndexForward:          aws.Bool(!req.Descending),
	}
	if req.Index != keys.IndexPrimary {
		input.IndexName = aws.String(req.Index)
	}
	if len(req.StartKey) > 0 {
		input.ExclusiveStartKey = attrsFromPosition(req.StartKey)
	}
	if len(req.Projection) > 0 {
		parts := make([]string, len(req.Projection))
		for i, attr := range req.Projection {
			placeholder := fmt.Sprintf("#p%d", i)
			names[placeholder] = attr
			parts[i] = placeholder
		}
		input.ProjectionExpression = aws.String(strings.Join(parts, ","))
	}

	return input, nil
}

// execute runs one store call through the circuit breaker with bounded
// retries. Retries never span merge-state decisions: a request either
// fully succeeds or its page fails.
func (s *DynamoStore) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	const maxRetries = 3

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if s.instr != nil {
				s.instr.IncRetry(operation)
			}
			backoff := time.Duration(attempt*attempt+1) * 100 * time.Millisecond
			s.logger.Warn("Retrying store operation",
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		_, err := s.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apperrors.NewStoreUnavailable("store circuit open", err)
		}
		if !isRetryable(err) {
			return apperrors.Wrap(err, operation+" failed")
		}
		lastErr = err
	}

	return apperrors.NewStoreUnavailable(operation+" failed after retries", lastErr)
}

func (s *DynamoStore) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	const maxRetries = 3

	unprocessed := requests
	for retry := 0; retry < maxRetries && len(unprocessed) > 0; retry++ {
		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: unprocessed,
			},
		}

		var out *dynamodb.BatchWriteItemOutput
		err := s.execute(ctx, "BatchWriteItem", func(ctx context.Context) error {
			var err error
			out, err = s.client.BatchWriteItem(ctx, input)
			return err
		})
		if err != nil {
			return err
		}

		unprocessed = out.UnprocessedItems[s.tableName]
		if len(unprocessed) > 0 {
			backoff := time.Duration(retry*retry+1) * 100 * time.Millisecond
			s.logger.Debug("Retrying unprocessed batch writes",
				zap.Int("unprocessedCount", len(unprocessed)),
				zap.Int("retry", retry+1),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if len(unprocessed) > 0 {
		return apperrors.NewStoreUnavailable(
			fmt.Sprintf("failed to write %d items after retries", len(unprocessed)), nil)
	}
	return nil
}

// positionFromAttrs converts a store-native last-evaluated key to a flat
// string map. Key attributes are string-typed by contract; anything else
// is corrupt data.
func positionFromAttrs(attrs map[string]types.AttributeValue) (Position, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	pos := make(Position, len(attrs))
	for name, value := range attrs {
		s, ok := value.(*types.AttributeValueMemberS)
		if !ok {
			return nil, apperrors.NewCorruptKey("non-string key attribute: " + name)
		}
		pos[name] = s.Value
	}
	return pos, nil
}

func attrsFromPosition(pos Position) map[string]types.AttributeValue {
	attrs := make(map[string]types.AttributeValue, len(pos))
	for name, value := range pos {
		attrs[name] = &types.AttributeValueMemberS{Value: value}
	}
	return attrs
}

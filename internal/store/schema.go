package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"docstore/internal/keys"
	apperrors "docstore/pkg/errors"
)

// CreateTable provisions the documents table with its two global
// secondary indexes and waits for it to become active. An existing table
// is left untouched.
func CreateTable(ctx context.Context, client *dynamodb.Client, tableName string) error {
	attrs := []types.AttributeDefinition{
		{AttributeName: aws.String(keys.AttrPK), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String(keys.AttrSK), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String(keys.AttrGSI1PK), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String(keys.AttrGSI1SK), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String(keys.AttrGSI2PK), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String(keys.AttrGSI2SK), AttributeType: types.ScalarAttributeTypeS},
	}

	// Each GSI projects the small attribute set common queries need so a
	// follow-up point read is unnecessary.
	projection := &types.Projection{
		ProjectionType: types.ProjectionTypeInclude,
		NonKeyAttributes: []string{
			"documentId", "insertedDate", "path", "type", "tagKey", "tagValue",
		},
	}

	input := &dynamodb.CreateTableInput{
		TableName:            aws.String(tableName),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: attrs,
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keys.AttrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(keys.AttrSK), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(keys.IndexGSI1),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(keys.AttrGSI1PK), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(keys.AttrGSI1SK), KeyType: types.KeyTypeRange},
				},
				Projection: projection,
			},
			{
				IndexName: aws.String(keys.IndexGSI2),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(keys.AttrGSI2PK), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(keys.AttrGSI2SK), KeyType: types.KeyTypeRange},
				},
				Projection: projection,
			},
		},
	}

	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var exists *types.ResourceInUseException
		if errors.As(err, &exists) {
			return nil
		}
		return apperrors.Wrap(err, "failed to create table")
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	describe := &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}
	if err := waiter.Wait(ctx, describe, 2*time.Minute); err != nil {
		return apperrors.Wrap(err, "table did not become active")
	}
	return nil
}

package attributes

import (
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"docstore/internal/keys"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Record is one stored attribute of a document. The primary key hangs it
// off the document's partition; GSI1 inverts it so equal values across
// documents share a partition, ordered by value then document id.
type Record struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`

	DocumentID   string   `dynamodbav:"documentId"`
	Key          string   `dynamodbav:"tagKey"`
	ValueType    string   `dynamodbav:"valueType"`
	StringValue  string   `dynamodbav:"tagValue,omitempty"`
	NumberValue  *float64 `dynamodbav:"numberValue,omitempty"`
	BooleanValue *bool    `dynamodbav:"booleanValue,omitempty"`
}

// NewRecord builds the stored form of one attribute.
func NewRecord(siteID, documentID, key string, value Value) (Record, error) {
	if documentID == "" {
		return Record{}, apperrors.NewValidation("document id is required")
	}
	if key == "" {
		return Record{}, apperrors.NewValidation("attribute key is required")
	}
	if err := value.Validate(); err != nil {
		return Record{}, err
	}

	encoded := value.Encode()
	k, err := keys.Build(siteID, keys.PrefixDocs, documentID, keys.PrefixSKAttr, key+keys.Delimiter+encoded)
	if err != nil {
		return Record{}, err
	}
	r := Record{
		PK:         k.PK,
		SK:         k.SK,
		GSI1PK:     EqualityPartitionKey(siteID, key),
		GSI1SK:     encoded + keys.Delimiter + documentID,
		DocumentID: documentID,
		Key:        key,
		ValueType:  string(value.Type),
	}
	switch value.Type {
	case TypeString:
		r.StringValue = value.String
	case TypeNumber:
		n := value.Number
		r.NumberValue = &n
	case TypeBoolean:
		b := value.Boolean
		r.BooleanValue = &b
	}
	return r, nil
}

// SortKey is the attribute's position in its document partition.
func SortKey(key string, value Value) string {
	return keys.PrefixSKAttr + key + keys.Delimiter + value.Encode()
}

// EqualityPartitionKey is the scope-prefixed GSI1 partition shared by
// every document carrying the given attribute key.
func EqualityPartitionKey(siteID, key string) string {
	return keys.ScopeKey(siteID, keys.PrefixSKAttr+key)
}

// Item marshals the record into its stored form.
func (r Record) Item() (store.Item, error) {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, apperrors.NewInternal("failed to marshal attribute record", err)
	}
	return item, nil
}

// FromItem unmarshals a stored attribute row.
func FromItem(item store.Item) (Record, error) {
	var r Record
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return Record{}, apperrors.NewInternal("failed to unmarshal attribute record", err)
	}
	return r, nil
}

// Value reconstructs the typed value of a stored row.
func (r Record) Value() Value {
	switch ValueType(r.ValueType) {
	case TypeString:
		return NewString(r.StringValue)
	case TypeNumber:
		if r.NumberValue != nil {
			return NewNumber(*r.NumberValue)
		}
		return NewNumber(0)
	case TypeBoolean:
		if r.BooleanValue != nil {
			return NewBoolean(*r.BooleanValue)
		}
		return NewBoolean(false)
	default:
		return KeyOnly()
	}
}

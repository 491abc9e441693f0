// Package keys builds and parses the table's composite keys.
//
// Every item lives in a single table addressed by PK/SK plus two global
// secondary indexes (GSI1, GSI2). Each entity namespace reserves its own
// partition-key prefix and sort-key prefix space so entities sharing a
// partition can never collide.
package keys

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "docstore/pkg/errors"
)

// Attribute names of the primary key and the two GSI projections.
const (
	AttrPK     = "PK"
	AttrSK     = "SK"
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"
	AttrGSI2PK = "GSI2PK"
	AttrGSI2SK = "GSI2SK"
)

// Index names. IndexPrimary selects the table itself.
const (
	IndexPrimary = ""
	IndexGSI1    = "GSI1"
	IndexGSI2    = "GSI2"
)

// Delimiter separates segments within a composite key.
const Delimiter = "#"

// Partition-key prefixes, one per entity namespace.
const (
	PrefixDocs       = "docs" + Delimiter
	PrefixFolder     = "folder" + Delimiter
	PrefixEntity     = "entity" + Delimiter
	PrefixEntityType = "entityType" + Delimiter
	PrefixDocDate    = "docdate"
	PrefixDocDateTS  = "docts" + Delimiter
)

// Sort-key prefixes. Ordering-sensitive relations embed a sortable
// timestamp after the prefix so range scans come back chronological.
const (
	SKDocument       = "document"
	PrefixSKActivity = "activity" + Delimiter
	PrefixSKAttr     = "attr" + Delimiter
	PrefixSKFolder   = "ff" + Delimiter
	PrefixSKFile     = "fi" + Delimiter
	PrefixSKLLM      = "llmresult" + Delimiter
)

// pkPrefixes is the registry used by Parse; longest match wins.
var pkPrefixes = []string{
	PrefixDocDateTS,
	PrefixDocs,
	PrefixFolder,
	PrefixEntityType,
	PrefixEntity,
	PrefixDocDate,
}

// skPrefixes is the registry of relation prefixes used by Parse.
var skPrefixes = []string{
	PrefixSKActivity,
	PrefixSKAttr,
	PrefixSKFolder,
	PrefixSKFile,
	PrefixSKLLM,
}

// EntityKey is the full key structure of one item: primary key plus up to
// two GSI projections. GSI fields are empty when the item is not projected
// into that index.
type EntityKey struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string
	GSI2PK string
	GSI2SK string
}

// PrimaryKeyAttrs returns the PK/SK attribute map used for point reads
// and deletes.
func (k EntityKey) PrimaryKeyAttrs() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: k.PK},
		AttrSK: &types.AttributeValueMemberS{Value: k.SK},
	}
}

// Attrs returns all non-empty key attributes for inclusion in a stored item.
func (k EntityKey) Attrs() map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: k.PK},
		AttrSK: &types.AttributeValueMemberS{Value: k.SK},
	}
	if k.GSI1PK != "" {
		item[AttrGSI1PK] = &types.AttributeValueMemberS{Value: k.GSI1PK}
	}
	if k.GSI1SK != "" {
		item[AttrGSI1SK] = &types.AttributeValueMemberS{Value: k.GSI1SK}
	}
	if k.GSI2PK != "" {
		item[AttrGSI2PK] = &types.AttributeValueMemberS{Value: k.GSI2PK}
	}
	if k.GSI2SK != "" {
		item[AttrGSI2SK] = &types.AttributeValueMemberS{Value: k.GSI2SK}
	}
	return item
}

// PartitionKey returns the partition key of the given index.
func (k EntityKey) PartitionKey(index string) string {
	switch index {
	case IndexGSI1:
		return k.GSI1PK
	case IndexGSI2:
		return k.GSI2PK
	default:
		return k.PK
	}
}

// FromItem extracts the key attributes from a stored item.
func FromItem(item map[string]types.AttributeValue) EntityKey {
	return EntityKey{
		PK:     stringAttr(item, AttrPK),
		SK:     stringAttr(item, AttrSK),
		GSI1PK: stringAttr(item, AttrGSI1PK),
		GSI1SK: stringAttr(item, AttrGSI1SK),
		GSI2PK: stringAttr(item, AttrGSI2PK),
		GSI2SK: stringAttr(item, AttrGSI2SK),
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Components are the parsed parts of an entity key.
type Components struct {
	// SiteID is the tenant scope; empty for the default tenant.
	SiteID string
	// Prefix is the entity namespace prefix, e.g. "docs#".
	Prefix string
	// EntityID is the id portion of the partition key.
	EntityID string
	// Relation is the sort-key prefix, e.g. "activity#". For relations
	// without a reserved prefix it holds the whole sort key.
	Relation string
	// Discriminator is the sort-key remainder after the relation prefix.
	Discriminator string
}

// Build produces the deterministic primary key for an entity. It is pure:
// identical inputs always yield the identical key.
func Build(siteID, prefix, entityID, relation, discriminator string) (EntityKey, error) {
	if prefix == "" {
		return EntityKey{}, apperrors.NewValidation("entity prefix is required")
	}
	// The date bucket partition and the root folder partition carry no
	// entity id; every other namespace requires one.
	if entityID == "" && prefix != PrefixDocDate && prefix != PrefixFolder {
		return EntityKey{}, apperrors.NewValidation("entity id is required")
	}
	if relation == "" {
		return EntityKey{}, apperrors.NewValidation("relation is required")
	}
	return EntityKey{
		PK: ScopeKey(siteID, prefix+entityID),
		SK: relation + discriminator,
	}, nil
}

// Parse inverts Build for any key it produced. A key that does not match a
// registered namespace is corrupt data, never "not found".
func Parse(pk, sk string) (Components, error) {
	var c Components
	if pk == "" || sk == "" {
		return c, apperrors.NewCorruptKey("empty key segment")
	}

	c.SiteID, pk = SplitScopeKey(pk)

	matched := false
	for _, prefix := range pkPrefixes {
		if strings.HasPrefix(pk, prefix) {
			c.Prefix = prefix
			c.EntityID = strings.TrimPrefix(pk, prefix)
			matched = true
			break
		}
	}
	if !matched {
		return Components{}, apperrors.NewCorruptKey("unknown partition key prefix: " + pk)
	}

	c.Relation = sk
	for _, prefix := range skPrefixes {
		if strings.HasPrefix(sk, prefix) {
			c.Relation = prefix
			c.Discriminator = strings.TrimPrefix(sk, prefix)
			break
		}
	}

	return c, nil
}

// DefaultSiteID is the tenant encoded with no key prefix.
const DefaultSiteID = "default"

// ScopeKey prefixes a key with the tenant scope. The default tenant is
// encoded with no prefix at all.
func ScopeKey(siteID, key string) string {
	if siteID != "" && siteID != DefaultSiteID {
		return siteID + "/" + key
	}
	return key
}

// SplitScopeKey splits a stored key into tenant scope and remainder. Keys
// without a scope prefix belong to the default tenant (empty site id).
func SplitScopeKey(s string) (siteID, rest string) {
	idx := strings.Index(s, "/")
	if idx <= 0 || idx == len(s)-1 {
		return "", s
	}
	// A doubled slash is part of the key itself, not a scope separator.
	if s[idx+1] == '/' {
		return "", s
	}
	siteID = s[:idx]
	if siteID == DefaultSiteID {
		siteID = ""
	}
	return siteID, s[idx+1:]
}

// StripScope removes the site prefix from a stored key.
func StripScope(siteID, s string) string {
	if siteID != "" && siteID != DefaultSiteID {
		return strings.TrimPrefix(s, siteID+"/")
	}
	return strings.TrimPrefix(s, DefaultSiteID+"/")
}

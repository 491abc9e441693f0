package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "docstore/pkg/errors"
)

func TestBuild_RoundTripsThroughParse(t *testing.T) {
	tests := []struct {
		name          string
		siteID        string
		prefix        string
		entityID      string
		relation      string
		discriminator string
	}{
		{"document default tenant", "", PrefixDocs, "doc-1", SKDocument, ""},
		{"document named tenant", "acme", PrefixDocs, "doc-1", SKDocument, ""},
		{"activity entry", "acme", PrefixDocs, "doc-1", PrefixSKActivity, "2025-03-01T10:00:00Z"},
		{"attribute entry", "", PrefixDocs, "doc-2", PrefixSKAttr, "category#invoice"},
		{"folder entry", "", PrefixFolder, "parent-1", PrefixSKFolder, "reports"},
		{"file entry", "tenant2", PrefixFolder, "parent-1", PrefixSKFile, "q1.pdf"},
		{"entity", "", PrefixEntity, "e-9", SKDocument, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Build(tt.siteID, tt.prefix, tt.entityID, tt.relation, tt.discriminator)
			require.NoError(t, err)

			parsed, err := Parse(key.PK, key.SK)
			require.NoError(t, err)

			assert.Equal(t, tt.siteID, parsed.SiteID)
			assert.Equal(t, tt.prefix, parsed.Prefix)
			assert.Equal(t, tt.entityID, parsed.EntityID)
			if tt.discriminator != "" {
				assert.Equal(t, tt.relation, parsed.Relation)
				assert.Equal(t, tt.discriminator, parsed.Discriminator)
			}
		})
	}
}

func TestBuild_IsDeterministic(t *testing.T) {
	a, err := Build("acme", PrefixDocs, "doc-1", SKDocument, "")
	require.NoError(t, err)
	b, err := Build("acme", PrefixDocs, "doc-1", SKDocument, "")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuild_Validation(t *testing.T) {
	_, err := Build("", "", "doc-1", SKDocument, "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = Build("", PrefixDocs, "", SKDocument, "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = Build("", PrefixDocs, "doc-1", "", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestBuild_RootFolderPartition(t *testing.T) {
	// Top-level folder entries live in the id-less folder partition.
	key, err := Build("acme", PrefixFolder, "", PrefixSKFolder, "reports")
	require.NoError(t, err)
	assert.Equal(t, "acme/folder#", key.PK)
	assert.Equal(t, "ff#reports", key.SK)

	parsed, err := Parse(key.PK, key.SK)
	require.NoError(t, err)
	assert.Equal(t, PrefixFolder, parsed.Prefix)
	assert.Empty(t, parsed.EntityID)
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "docs#doc-1", ScopeKey("", "docs#doc-1"))
	assert.Equal(t, "docs#doc-1", ScopeKey(DefaultSiteID, "docs#doc-1"))
	assert.Equal(t, "acme/docs#doc-1", ScopeKey("acme", "docs#doc-1"))
}

func TestSplitScopeKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		wantSite string
		wantRest string
	}{
		{"no scope", "docs#doc-1", "", "docs#doc-1"},
		{"named scope", "acme/docs#doc-1", "acme", "docs#doc-1"},
		{"default written explicitly", "default/docs#doc-1", "", "docs#doc-1"},
		{"doubled slash stays in key", "a//docs#doc-1", "", "a//docs#doc-1"},
		{"trailing slash only", "docs#doc-1/", "", "docs#doc-1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site, rest := SplitScopeKey(tt.key)
			assert.Equal(t, tt.wantSite, site)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestParse_RejectsCorruptKeys(t *testing.T) {
	_, err := Parse("", "document")
	assert.True(t, apperrors.IsCorruptKey(err))

	_, err = Parse("docs#doc-1", "")
	assert.True(t, apperrors.IsCorruptKey(err))

	_, err = Parse("unknown#doc-1", "document")
	assert.True(t, apperrors.IsCorruptKey(err))
}

func TestEntityKey_Attrs(t *testing.T) {
	key := EntityKey{
		PK:     "docs#doc-1",
		SK:     "document",
		GSI1PK: "docts#2025-03-01",
		GSI1SK: "2025-03-01T10:00:00Z#doc-1",
	}

	attrs := key.Attrs()
	assert.Len(t, attrs, 4)
	assert.NotContains(t, attrs, AttrGSI2PK)

	primary := key.PrimaryKeyAttrs()
	assert.Len(t, primary, 2)
}

func TestEntityKey_PartitionKey(t *testing.T) {
	key := EntityKey{PK: "p", GSI1PK: "g1", GSI2PK: "g2"}

	assert.Equal(t, "p", key.PartitionKey(IndexPrimary))
	assert.Equal(t, "g1", key.PartitionKey(IndexGSI1))
	assert.Equal(t, "g2", key.PartitionKey(IndexGSI2))
}

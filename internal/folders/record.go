// Package folders maintains the per-folder index partitions and walks
// them recursively with a resumable composite cursor.
package folders

import (
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"

	"docstore/internal/keys"
	"docstore/internal/store"
	apperrors "docstore/pkg/errors"
)

// Record types stored in a folder partition.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
)

// RootID is the parent id of top-level entries.
const RootID = ""

// folderNamespace seeds the deterministic folder ids so re-indexing the
// same path never mints a second id for the same folder.
var folderNamespace = uuid.MustParse("9f2c1e4a-6b3d-4f8e-9a71-c05d82e4b6f0")

// IndexRecord is one entry in a folder partition: a subfolder or a file.
// Folders and files share the partition; the ff#/fi# sort prefixes keep
// folders grouped ahead of files.
type IndexRecord struct {
	PK               string `dynamodbav:"PK"`
	SK               string `dynamodbav:"SK"`
	DocumentID       string `dynamodbav:"documentId"`
	ParentDocumentID string `dynamodbav:"parentDocumentId,omitempty"`
	Path             string `dynamodbav:"path"`
	Type             string `dynamodbav:"type"`
	InsertedDate     string `dynamodbav:"insertedDate"`
}

// Item marshals the record into its stored form.
func (r IndexRecord) Item() (store.Item, error) {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, apperrors.NewInternal("failed to marshal folder index record", err)
	}
	return item, nil
}

// FromItem unmarshals a stored folder partition entry.
func FromItem(item store.Item) (IndexRecord, error) {
	var r IndexRecord
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return IndexRecord{}, apperrors.NewInternal("failed to unmarshal folder index record", err)
	}
	return r, nil
}

// IsFolder reports whether the record names a subfolder.
func (r IndexRecord) IsFolder() bool {
	return r.Type == TypeFolder
}

// FolderID derives the stable id of a folder from its full path within a
// site. Identical paths always yield the identical id.
func FolderID(siteID, fullPath string) string {
	scoped := keys.ScopeKey(siteID, fullPath)
	return uuid.NewSHA1(folderNamespace, []byte(scoped)).String()
}

// PartitionKey returns the scope-prefixed partition key of a folder's
// contents.
func PartitionKey(siteID, folderID string) string {
	return keys.ScopeKey(siteID, keys.PrefixFolder+folderID)
}

// RecordsForPath expands a document path into its folder chain plus one
// file entry. For "a/b/c.txt" that is folder "a" at the top level, folder
// "b" under it, and file "c.txt" under "a/b". Expansion is deterministic,
// so re-indexing the same path writes the same rows.
func RecordsForPath(siteID, documentID, path string, now time.Time) ([]IndexRecord, error) {
	clean := strings.Trim(path, "/")
	if clean == "" {
		return nil, apperrors.NewValidation("document path is required")
	}

	segments := strings.Split(clean, "/")
	inserted := now.UTC().Format(time.RFC3339)

	records := make([]IndexRecord, 0, len(segments))
	parentID := RootID
	fullPath := ""
	for _, segment := range segments[:len(segments)-1] {
		if fullPath == "" {
			fullPath = segment
		} else {
			fullPath += "/" + segment
		}
		id := FolderID(siteID, fullPath)
		key, err := keys.Build(siteID, keys.PrefixFolder, parentID, keys.PrefixSKFolder, segment)
		if err != nil {
			return nil, err
		}
		records = append(records, IndexRecord{
			PK:               key.PK,
			SK:               key.SK,
			DocumentID:       id,
			ParentDocumentID: parentID,
			Path:             segment,
			Type:             TypeFolder,
			InsertedDate:     inserted,
		})
		parentID = id
	}

	filename := segments[len(segments)-1]
	fileKey, err := keys.Build(siteID, keys.PrefixFolder, parentID, keys.PrefixSKFile, filename)
	if err != nil {
		return nil, err
	}
	records = append(records, IndexRecord{
		PK:               fileKey.PK,
		SK:               fileKey.SK,
		DocumentID:       documentID,
		ParentDocumentID: parentID,
		Path:             filename,
		Type:             TypeFile,
		InsertedDate:     inserted,
	})
	return records, nil
}

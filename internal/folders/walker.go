package folders

import (
	"context"

	"docstore/internal/query"
	"docstore/internal/store"
)

// defaultWalkLimit applies when a caller passes no page limit.
const defaultWalkLimit = 10

// Walker lists a folder and everything beneath it, breadth-first in
// discovery order, as a sequence of bounded pages. All traversal state
// lives in the cursor: the folder currently being listed, the position
// inside it, and the queue of discovered but unvisited folders.
//
// The walk is weakly consistent under concurrent writers. Folders
// already listed are never revisited, so an entry created there
// mid-walk is missed; an entry created or deleted in a folder still
// pending is seen or not seen according to the store's state when that
// folder is reached.
type Walker struct {
	SiteID string
	// FolderID roots the walk; RootID walks the whole site.
	FolderID string
}

var _ query.Query = (*Walker)(nil)

func (w *Walker) fingerprint() string {
	return query.Fingerprint(string(query.KindFolderWalk), w.SiteID, w.FolderID)
}

// Execute produces the next page of the traversal. Within one call the
// walker keeps descending past empty folders, so only the terminal call
// can come back empty. Once a call has accumulated items it finishes the
// current folder but never starts listing the next one; that keeps the
// pending queue the only cross-folder state a cursor must carry.
func (w *Walker) Execute(ctx context.Context, s store.Store, cursor string, limit int32) (*query.Page, error) {
	if limit < 1 {
		limit = defaultWalkLimit
	}

	fingerprint := w.fingerprint()
	c, err := query.Decode(cursor, query.KindFolderWalk, fingerprint)
	if err != nil {
		return nil, err
	}

	state := query.WalkState{CurrentID: w.FolderID}
	if c != nil && c.Walk != nil {
		state = *c.Walk
	}

	page := &query.Page{}
	done := false

	for int32(len(page.Items)) < limit {
		req, err := query.NewBuilder().
			PartitionKey(PartitionKey(w.SiteID, state.CurrentID)).
			Limit(limit - int32(len(page.Items))).
			StartAt(state.StoreCursor).
			Build()
		if err != nil {
			return nil, err
		}

		result, err := s.Query(ctx, req)
		if err != nil {
			// The cursor still describes the last fully consumed
			// position, so the caller can retry the same page.
			return nil, err
		}

		for _, item := range result.Items {
			page.Items = append(page.Items, item)
			if isFolderRow(item) {
				state.Pending = append(state.Pending, store.StringValue(item, "documentId"))
			}
		}

		if result.HasNext() {
			state.StoreCursor = result.Next
			continue
		}

		// Current folder exhausted.
		if len(state.Pending) == 0 {
			done = true
			break
		}
		next := state.Pending[0]
		state = query.WalkState{CurrentID: next, Pending: state.Pending[1:]}
		if len(page.Items) > 0 {
			break
		}
	}

	if !done {
		page.NextCursor, err = query.Encode(&query.Cursor{
			Kind:        query.KindFolderWalk,
			Fingerprint: fingerprint,
			Walk:        &state,
		})
		if err != nil {
			return nil, err
		}
	}
	return page, nil
}

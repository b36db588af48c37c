package interfaces

import (
	"context"
	"errors"
)

// AnyFilter disables the post type or status filter of a DocumentQuery.
const AnyFilter = "any"

// ErrDocumentNotFound reports a document id that no longer resolves in the store.
var ErrDocumentNotFound = errors.New("documents: document not found")

// Document is the unit the migrator reads and rewrites. Only Content is ever
// written back.
type Document struct {
	ID       int64
	Title    string
	PostType string
	Status   string
	Content  string
}

// DocumentQuery selects the next page of candidate document ids.
type DocumentQuery struct {
	// After is the exclusive lower bound for ids (the resume cursor).
	After int64
	// Limit caps the number of ids returned.
	Limit int
	// PostType restricts documents to a type; AnyFilter or empty disables the filter.
	PostType string
	// Status restricts documents to a status; AnyFilter or empty disables the filter.
	Status string
	// Contains restricts documents to those whose content includes the substring.
	Contains string
}

// DocumentStore is the document collaborator used by the batch engine.
type DocumentStore interface {
	// FetchIDs returns ids greater than query.After, ascending, at most query.Limit.
	FetchIDs(ctx context.Context, query DocumentQuery) ([]int64, error)
	// Fetch returns the document or ErrDocumentNotFound.
	Fetch(ctx context.Context, id int64) (*Document, error)
	// Write replaces the document content.
	Write(ctx context.Context, id int64, content string) error
	// Title returns the display title of the document.
	Title(ctx context.Context, id int64) (string, error)
}

// CheckpointStore persists the resume cursor between runs.
type CheckpointStore interface {
	// Load returns the last saved checkpoint, zero when none was saved.
	Load(ctx context.Context) (int64, error)
	// Save persists the checkpoint. Negative values are stored as zero.
	Save(ctx context.Context, id int64) error
}

package documents

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/goliatone/go-faqmigrate/pkg/interfaces"
)

// MemoryStore keeps documents in-memory. It backs tests and dry experiments.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[int64]interfaces.Document
	filter Filter
	writes int
}

var _ interfaces.DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore constructs a store seeded with docs.
func NewMemoryStore(docs ...interfaces.Document) *MemoryStore {
	store := &MemoryStore{
		docs:   make(map[int64]interfaces.Document, len(docs)),
		filter: DefaultFilter(),
	}
	for _, doc := range docs {
		store.docs[doc.ID] = doc
	}
	return store
}

// Put inserts or replaces a document.
func (s *MemoryStore) Put(doc interfaces.Document) {
	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()
}

// Delete removes a document.
func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
}

// Get returns a copy of the stored document.
func (s *MemoryStore) Get(id int64) (interfaces.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Writes returns how many writes the store accepted.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// FetchIDs returns matching ids greater than query.After in ascending order.
func (s *MemoryStore) FetchIDs(ctx context.Context, query interfaces.DocumentQuery) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.docs))
	for id, doc := range s.docs {
		if id <= query.After || !s.filter.Match(doc, query) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if limit := normalizeLimit(query.Limit); len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Fetch returns the document or interfaces.ErrDocumentNotFound.
func (s *MemoryStore) Fetch(ctx context.Context, id int64) (*interfaces.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
	}
	return &doc, nil
}

// Write replaces the document content.
func (s *MemoryStore) Write(ctx context.Context, id int64, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: %d", interfaces.ErrDocumentNotFound, id)
	}
	doc.Content = content
	s.docs[id] = doc
	s.writes++
	return nil
}

// Title returns the document title.
func (s *MemoryStore) Title(ctx context.Context, id int64) (string, error) {
	doc, err := s.Fetch(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Title, nil
}

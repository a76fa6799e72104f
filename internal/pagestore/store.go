// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pagestore holds fetched page content keyed by source ID.
// The store is populated by the fetcher before research begins and is
// read-only for every downstream phase; Snapshot hands out a stable,
// insertion-ordered copy so concurrent executors never observe mutation.
// Implements: prd001-scraping (R2, R3).
package pagestore

import (
	"sync"

	"github.com/pdiddy/company-research/pkg/types"
)

// Store is an in-memory page store. Writes happen only during the fetch
// phase; reads afterward are lock-free copies via Snapshot.
type Store struct {
	mu    sync.RWMutex
	pages map[string]types.Page
	order []string
}

// New returns an empty store.
func New() *Store {
	return &Store{pages: make(map[string]types.Page)}
}

// Add inserts or replaces a page. Insertion order is preserved for
// first-time source IDs; replacing an existing page keeps its position.
func (s *Store) Add(p types.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[p.SourceID]; !ok {
		s.order = append(s.order, p.SourceID)
	}
	s.pages[p.SourceID] = p
}

// Get returns the page for sourceID, if present.
func (s *Store) Get(sourceID string) (types.Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[sourceID]
	return p, ok
}

// Snapshot returns all pages in insertion order. The returned slice is a
// copy; callers may reorder it freely (the context ranker does).
func (s *Store) Snapshot() []types.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Page, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pages[id])
	}
	return out
}

// SourceIDs returns the source IDs in insertion order.
func (s *Store) SourceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored pages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

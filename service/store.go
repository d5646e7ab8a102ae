package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

// DocumentStore is an in-memory registry of uploaded documents.
// It holds the extracted text /chat uses as context, so it is bounded and
// drops the oldest documents first.
type DocumentStore struct {
	documents    map[string]*model.StoredDocument
	mu           sync.RWMutex
	maxDocuments int // 0 = unlimited
}

// NewDocumentStore creates a registry using the configured bound
func NewDocumentStore(cfg *config.StoreConfig) *DocumentStore {
	maxDocuments := cfg.MaxDocuments
	if maxDocuments < 0 {
		maxDocuments = 0
	}
	slog.Info("document store initialized", "max_documents", maxDocuments)
	return &DocumentStore{
		documents:    make(map[string]*model.StoredDocument),
		maxDocuments: maxDocuments,
	}
}

// Save registers doc and returns the documents evicted to make room
func (s *DocumentStore) Save(doc *model.StoredDocument) []*model.StoredDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	s.documents[doc.ID] = doc

	return s.cleanupIfNeeded()
}

// Get returns the document only when owner uploaded it
func (s *DocumentStore) Get(owner, id string) *model.StoredDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok || doc.Owner != owner {
		return nil
	}
	return doc
}

// ListByOwner returns owner's documents oldest first
func (s *DocumentStore) ListByOwner(owner string) []*model.StoredDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.StoredDocument
	for _, d := range s.documents {
		if d.Owner == owner {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// cleanupIfNeeded removes the oldest documents past maxDocuments.
// Must be called with lock held
func (s *DocumentStore) cleanupIfNeeded() []*model.StoredDocument {
	if s.maxDocuments <= 0 || len(s.documents) <= s.maxDocuments {
		return nil
	}

	docs := make([]*model.StoredDocument, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	removeCount := len(docs) - s.maxDocuments
	for i := 0; i < removeCount; i++ {
		slog.Info("evicting old document",
			"doc_id", docs[i].ID,
			"created_at", docs[i].CreatedAt,
		)
		delete(s.documents, docs[i].ID)
	}
	return docs[:removeCount]
}

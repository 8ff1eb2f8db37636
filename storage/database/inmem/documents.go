package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/campus/storage"
)

// DB keeps documents in memory, per resource, in insertion order.
type DB struct {
	mu     sync.RWMutex
	tables map[string]*table
}

type table struct {
	order []string
	docs  map[string]storage.Document
}

var _ storage.Repository = (*DB)(nil)

func New() *DB {
	return &DB{tables: make(map[string]*table)}
}

func (db *DB) table(resource string) *table {
	tbl, ok := db.tables[resource]
	if !ok {
		tbl = &table{docs: make(map[string]storage.Document)}
		db.tables[resource] = tbl
	}
	return tbl
}

func (db *DB) List(_ context.Context, resource string, q storage.Query) ([]storage.Document, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	docs := make([]storage.Document, 0)
	tbl, ok := db.tables[resource]
	if !ok {
		return docs, nil
	}
	for _, id := range tbl.order {
		if doc := tbl.docs[id]; q.Matches(doc.Data) {
			docs = append(docs, doc)
		}
	}
	if len(q.Ordering) > 0 {
		storage.Sort(docs, q.Ordering)
	}
	return docs, nil
}

func (db *DB) Get(_ context.Context, resource, id string) (storage.Document, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if tbl, ok := db.tables[resource]; ok {
		if doc, ok := tbl.docs[id]; ok {
			return doc, nil
		}
	}
	return storage.Document{}, storage.ErrNotFound
}

func (db *DB) Create(_ context.Context, doc storage.Document) (storage.Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl := db.table(doc.Resource)
	if _, exists := tbl.docs[doc.ID]; exists {
		return storage.Document{}, storage.ErrConflict
	}
	now := storage.NowFunc().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now
	tbl.docs[doc.ID] = doc
	tbl.order = append(tbl.order, doc.ID)
	return doc, nil
}

func (db *DB) Update(_ context.Context, doc storage.Document) (storage.Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl, ok := db.tables[doc.Resource]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	old, ok := tbl.docs[doc.ID]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	doc.CreatedAt = old.CreatedAt
	doc.UpdatedAt = storage.NowFunc().UTC()
	tbl.docs[doc.ID] = doc
	return doc, nil
}

func (db *DB) Delete(_ context.Context, resource, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl, ok := db.tables[resource]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok = tbl.docs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(tbl.docs, id)
	for i, docID := range tbl.order {
		if docID == id {
			tbl.order = append(tbl.order[:i], tbl.order[i+1:]...)
			break
		}
	}
	return nil
}

// Reset drops every document.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = make(map[string]*table)
}

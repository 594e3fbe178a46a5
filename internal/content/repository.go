// Package content holds the in-memory heritage archive.
package content

import (
	"strings"
	"sync"

	"heritagecore/pkg/domain"

	"golang.org/x/text/cases"
)

// Repository is an ordered, id-addressed collection of heritage items. New
// items are kept newest first. It is safe for concurrent use.
type Repository struct {
	mu    sync.RWMutex
	items []domain.HeritageItem
}

// NewRepository returns a repository holding items in the given order.
func NewRepository(items ...domain.HeritageItem) *Repository {
	r := &Repository{items: make([]domain.HeritageItem, 0, len(items))}
	r.items = append(r.items, items...)
	return r
}

// Add prepends item. Callers supply a fresh id; duplicates are not checked.
func (r *Repository) Add(item domain.HeritageItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]domain.HeritageItem{item}, r.items...)
}

// Update replaces the item with the same id. A missing id leaves the
// collection untouched and reports OutcomeNotFound.
func (r *Repository) Update(item domain.HeritageItem) domain.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == item.ID {
			r.items[i] = item
			return domain.OutcomeFound
		}
	}
	return domain.OutcomeNotFound
}

// Remove deletes the item with id. Removing a missing id is a no-op.
func (r *Repository) Remove(id string) domain.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return domain.OutcomeFound
		}
	}
	return domain.OutcomeNotFound
}

// Get returns the item with id.
func (r *Repository) Get(id string) (domain.HeritageItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.HeritageItem{}, false
}

// List returns a copy of every item in collection order.
func (r *Repository) List() []domain.HeritageItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.HeritageItem, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of items.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Query returns the items of village (every item for "All") whose title or
// village contains term, ignoring case. Collection order is preserved.
func (r *Repository) Query(village, term string) []domain.HeritageItem {
	fold := cases.Fold()
	needle := fold.String(term)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.HeritageItem, 0, len(r.items))
	for _, item := range r.items {
		if village != domain.AllVillages && item.Village != village {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(item.Title), needle) &&
			!strings.Contains(fold.String(item.Village), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

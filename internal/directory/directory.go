// Package directory holds the signed-in user's shelf collection,
// populated by a single list call and read by the scanner and the
// toggle coordinator.
package directory

import (
	"context"
	"sync"

	"shelfsync/pkg/models"
)

type Lister interface {
	ListShelves(ctx context.Context) ([]models.Shelf, error)
}

type Directory struct {
	Remote Lister

	mu      sync.RWMutex
	shelves []models.Shelf
}

func New(remote Lister) *Directory {
	return &Directory{Remote: remote}
}

// List fetches the shelf collection from the remote and replaces the
// cached copy. Order is whatever the remote returned.
func (d *Directory) List(ctx context.Context) ([]models.Shelf, error) {
	shelves, err := d.Remote.ListShelves(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.shelves = shelves
	d.mu.Unlock()

	return shelves, nil
}

// Shelves returns the cached collection, fetching it first if no list
// call has succeeded yet.
func (d *Directory) Shelves(ctx context.Context) ([]models.Shelf, error) {
	d.mu.RLock()
	cached := d.shelves
	d.mu.RUnlock()

	if cached != nil {
		return cached, nil
	}
	return d.List(ctx)
}

func (d *Directory) ByID(id string) (models.Shelf, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.shelves {
		if s.ID == id {
			return s, true
		}
	}
	return models.Shelf{}, false
}

// ByKind returns the first shelf of the given kind. Canonical kinds
// and Owned exist once per user; Custom lookups should use ByID.
func (d *Directory) ByKind(kind models.ShelfKind) (models.Shelf, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.shelves {
		if s.Kind == kind {
			return s, true
		}
	}
	return models.Shelf{}, false
}

// Package tracker maintains per-club reading progress: a status value
// plus a page counter that must stay consistent with each other. The
// transition rules live in Apply, a pure function; the Tracker wraps
// it with validation and persistence.
package tracker

import (
	"context"
	"log"

	"shelfsync/pkg/faults"
	"shelfsync/pkg/models"
)

type Store interface {
	GetProgress(ctx context.Context, clubID, editionID string) (models.ReadingProgress, error)
	UpdateProgress(ctx context.Context, clubID string, p models.ReadingProgress) (models.ReadingProgress, error)
}

type Tracker struct {
	Remote Store
}

func New(remote Store) *Tracker {
	return &Tracker{Remote: remote}
}

// UpdateRequest carries one user action. Nil fields mean "keep the
// current value"; TotalPages is book metadata the caller may supply
// when it knows it.
type UpdateRequest struct {
	Status      models.ReadingStatus
	CurrentPage *int
	TotalPages  *int
}

// Get reads the current progress record. Editions the club has never
// touched come back zero-valued with status not_started.
func (t *Tracker) Get(ctx context.Context, clubID, editionID string) (models.ReadingProgress, error) {
	if clubID == "" || editionID == "" {
		return models.ReadingProgress{}, faults.Wrap(faults.ErrValidation, "progress get", "club id and edition id required")
	}
	p, err := t.Remote.GetProgress(ctx, clubID, editionID)
	if err != nil {
		return models.ReadingProgress{}, err
	}
	if p.Status == "" {
		p.Status = models.StatusNotStarted
	}
	return p, nil
}

// Update validates the request, derives the next consistent state from
// the current record and persists it. Validation failures never reach
// the network.
func (t *Tracker) Update(ctx context.Context, clubID, editionID string, req UpdateRequest) (models.ReadingProgress, error) {
	if clubID == "" || editionID == "" {
		return models.ReadingProgress{}, faults.Wrap(faults.ErrValidation, "progress update", "club id and edition id required")
	}
	if req.CurrentPage != nil && *req.CurrentPage < 0 {
		return models.ReadingProgress{}, faults.Wrap(faults.ErrValidation, "progress update", "current_page must be >= 0")
	}
	if req.TotalPages != nil && *req.TotalPages <= 0 {
		return models.ReadingProgress{}, faults.Wrap(faults.ErrValidation, "progress update", "total_pages must be > 0")
	}

	cur, err := t.Get(ctx, clubID, editionID)
	if err != nil {
		return models.ReadingProgress{}, err
	}
	cur.EditionID = editionID

	next := Apply(cur, req)
	saved, err := t.Remote.UpdateProgress(ctx, clubID, next)
	if err != nil {
		return models.ReadingProgress{}, err
	}
	log.Printf("[progress] club %s edition %s -> %s page %d", clubID, editionID, saved.Status, saved.CurrentPage)
	return saved, nil
}

// Apply derives the next progress state from the current one and a
// request. Rules, in order:
//
//  1. an explicit status selection replaces the current status
//  2. the page is clamped to [0, totalPages] when the total is known
//  3. a page update above zero promotes not_started to reading:
//     page movement is evidence reading has begun
//  4. a page meeting or exceeding totalPages forces completed, no
//     matter what status was selected in the same request
func Apply(cur models.ReadingProgress, req UpdateRequest) models.ReadingProgress {
	next := cur

	if req.TotalPages != nil {
		next.TotalPages = req.TotalPages
	}
	if req.Status != "" {
		next.Status = req.Status
	}
	if next.Status == "" {
		next.Status = models.StatusNotStarted
	}
	if req.CurrentPage != nil {
		next.CurrentPage = *req.CurrentPage
	}
	if next.CurrentPage < 0 {
		next.CurrentPage = 0
	}

	total := 0
	if next.TotalPages != nil {
		total = *next.TotalPages
	}
	if total > 0 && next.CurrentPage > total {
		next.CurrentPage = total
	}

	if next.Status == models.StatusNotStarted && req.CurrentPage != nil && next.CurrentPage > 0 {
		next.Status = models.StatusReading
	}
	if total > 0 && next.CurrentPage >= total {
		next.Status = models.StatusCompleted
	}

	return next
}

// Package toggle executes add/remove mutations for one shelf and one
// edition, keeps the locally rendered membership view optimistic but
// truthful, and enforces the rule that at most one canonical
// reading-status shelf holds an edition at a time.
package toggle

import (
	"context"
	"fmt"
	"log"
	"sync"

	"shelfsync/internal/directory"
	"shelfsync/internal/scanner"
	"shelfsync/pkg/faults"
	"shelfsync/pkg/models"
)

type Mutator interface {
	AddEdition(ctx context.Context, shelfID, editionID string) error
	RemoveEdition(ctx context.Context, shelfID, editionID string) error
}

type Prober interface {
	Scan(ctx context.Context, shelves []models.Shelf, editionID string) (scanner.Result, error)
	ProbeOne(ctx context.Context, shelfID, editionID string) (bool, error)
}

type Coordinator struct {
	Dir     *directory.Directory
	Remote  Mutator
	Scanner Prober

	mu    sync.Mutex
	views map[string]models.MembershipSet // editionID -> last known membership
	dirty map[string]bool                 // editions needing a full rescan before toggling
	locks map[string]*sync.Mutex          // per-edition toggle serialization
}

func New(dir *directory.Directory, remote Mutator, sc Prober) *Coordinator {
	return &Coordinator{
		Dir:     dir,
		Remote:  remote,
		Scanner: sc,
		views:   make(map[string]models.MembershipSet),
		dirty:   make(map[string]bool),
		locks:   make(map[string]*sync.Mutex),
	}
}

// View returns the last known membership for an edition, or nil when
// the edition has never been scanned. The copy is the caller's own.
func (c *Coordinator) View(editionID string) models.MembershipSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.views[editionID]; ok {
		return v.Clone()
	}
	return nil
}

// Refresh runs a full scan for the edition and installs the result as
// the rendered view. Book-detail views call this for initial paint.
func (c *Coordinator) Refresh(ctx context.Context, editionID string) (scanner.Result, error) {
	shelves, err := c.Dir.Shelves(ctx)
	if err != nil {
		return scanner.Result{}, err
	}
	res, err := c.Scanner.Scan(ctx, shelves, editionID)
	if err != nil {
		return res, err
	}

	c.mu.Lock()
	c.views[editionID] = res.Members.Clone()
	if res.Complete() {
		delete(c.dirty, editionID)
	}
	c.mu.Unlock()
	return res, nil
}

// ToggleKind resolves a canonical or owned kind to the user's shelf of
// that kind and toggles it.
func (c *Coordinator) ToggleKind(ctx context.Context, kind models.ShelfKind, editionID string) (models.MembershipSet, error) {
	if kind == "" || kind == models.KindCustom {
		return nil, faults.Wrap(faults.ErrValidation, "toggle", "a concrete shelf kind is required")
	}
	if _, err := c.Dir.Shelves(ctx); err != nil {
		return nil, err
	}
	shelf, ok := c.Dir.ByKind(kind)
	if !ok {
		return nil, faults.Wrap(faults.ErrValidation, "toggle", fmt.Sprintf("no shelf of kind %s", kind))
	}
	return c.Toggle(ctx, shelf.ID, editionID)
}

// Toggle flips the edition's membership on one shelf. Member editions
// are removed, non-members added; a canonical add also clears the
// previous canonical member so two reading statuses are never rendered
// at once, even transiently. Every path ends with reconciliation
// against the remote, and the reconciled value is what sticks.
//
// Toggles against the same edition are serialized: a second call waits
// for the in-flight one to settle before reading membership, so two
// exclusivity swaps can never race each other.
func (c *Coordinator) Toggle(ctx context.Context, shelfID, editionID string) (models.MembershipSet, error) {
	if shelfID == "" || editionID == "" {
		return nil, faults.Wrap(faults.ErrValidation, "toggle", "shelf id and edition id required")
	}

	shelves, err := c.Dir.Shelves(ctx)
	if err != nil {
		return nil, err
	}
	shelf, ok := c.Dir.ByID(shelfID)
	if !ok {
		return nil, faults.Wrap(faults.ErrValidation, "toggle", "unknown shelf "+shelfID)
	}

	lock := c.editionLock(editionID)
	lock.Lock()
	defer lock.Unlock()

	// a failed exclusivity swap leaves server truth unknown; insist on
	// a clean full scan before another toggle may run
	if c.isDirty(editionID) {
		res, err := c.Refresh(ctx, editionID)
		if err != nil {
			return nil, err
		}
		if !res.Complete() {
			return res.Members.Clone(), faults.Wrap(faults.ErrInvariantViolation, "toggle",
				"edition needs a full reconciliation scan and the last one was partial")
		}
	}

	view := c.currentView(editionID)
	if view == nil {
		res, err := c.Refresh(ctx, editionID)
		if err != nil {
			return nil, err
		}
		view = res.Members.Clone()
	}

	if view.Has(shelf.ID) {
		return c.remove(ctx, shelf, editionID, view)
	}
	return c.add(ctx, shelves, shelf, editionID, view)
}

func (c *Coordinator) remove(ctx context.Context, shelf models.Shelf, editionID string, view models.MembershipSet) (models.MembershipSet, error) {
	// optimistic: clear locally first
	c.patchView(editionID, shelf.ID, false)

	// once issued, the mutation is never cancelled; only rendering
	// callbacks of a departed view get dropped
	mctx := context.WithoutCancel(ctx)
	if err := c.Remote.RemoveEdition(mctx, shelf.ID, editionID); err != nil {
		c.patchView(editionID, shelf.ID, view.Has(shelf.ID)) // roll back
		return c.View(editionID), err
	}

	c.reconcileOne(mctx, shelf.ID, editionID)
	return c.View(editionID), nil
}

func (c *Coordinator) add(ctx context.Context, shelves []models.Shelf, shelf models.Shelf, editionID string, view models.MembershipSet) (models.MembershipSet, error) {
	prev := ""
	if shelf.Kind.Canonical() {
		prev = view.CanonicalMember(shelves)
	}

	// optimistic: set the new member and, for a canonical move, clear
	// the old one in the same local update
	c.patchView(editionID, shelf.ID, true)
	if prev != "" && prev != shelf.ID {
		c.patchView(editionID, prev, false)
	}

	mctx := context.WithoutCancel(ctx)
	if err := c.Remote.AddEdition(mctx, shelf.ID, editionID); err != nil {
		c.patchView(editionID, shelf.ID, false)
		if prev != "" && prev != shelf.ID {
			c.patchView(editionID, prev, true)
		}
		return c.View(editionID), err
	}

	if prev != "" && prev != shelf.ID {
		// the remote offers no atomic swap: clear the old canonical
		// shelf as a second mutation
		if err := c.Remote.RemoveEdition(mctx, prev, editionID); err != nil {
			// add landed, remove did not: server now holds two
			// canonical statuses. Mark the edition dirty and attempt
			// repair by rescan; the caller sees a hard failure.
			log.Printf("[toggle] exclusivity swap incomplete for edition %s: %v", editionID, err)
			c.markDirty(editionID)
			if res, rerr := c.Refresh(mctx, editionID); rerr == nil && res.Complete() {
				c.clearDirty(editionID)
			}
			return c.View(editionID), faults.Wrap(faults.ErrInvariantViolation, "toggle",
				"exclusivity swap incomplete: "+err.Error())
		}
	}

	if shelf.Kind.Canonical() {
		// a swap touched two shelves; reconcile with a full scan
		if _, err := c.Refresh(mctx, editionID); err != nil {
			log.Printf("[toggle] post-swap rescan failed for edition %s: %v", editionID, err)
		}
	} else {
		c.reconcileOne(mctx, shelf.ID, editionID)
	}
	return c.View(editionID), nil
}

// reconcileOne re-probes a single shelf and lets the confirmed value
// replace the optimistic guess.
func (c *Coordinator) reconcileOne(ctx context.Context, shelfID, editionID string) {
	member, err := c.Scanner.ProbeOne(ctx, shelfID, editionID)
	if err != nil {
		// the optimistic value stands until the next scan repairs it
		log.Printf("[toggle] reconcile probe failed for shelf %s edition %s: %v", shelfID, editionID, err)
		return
	}
	c.patchView(editionID, shelfID, member)
}

func (c *Coordinator) editionLock(editionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[editionID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[editionID] = lock
	}
	return lock
}

func (c *Coordinator) currentView(editionID string) models.MembershipSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.views[editionID]; ok {
		return v.Clone()
	}
	return nil
}

func (c *Coordinator) patchView(editionID, shelfID string, member bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[editionID]
	if !ok {
		v = make(models.MembershipSet)
		c.views[editionID] = v
	}
	if member {
		v[shelfID] = true
	} else {
		delete(v, shelfID)
	}
}

func (c *Coordinator) isDirty(editionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty[editionID]
}

func (c *Coordinator) markDirty(editionID string) {
	c.mu.Lock()
	c.dirty[editionID] = true
	c.mu.Unlock()
}

func (c *Coordinator) clearDirty(editionID string) {
	c.mu.Lock()
	delete(c.dirty, editionID)
	c.mu.Unlock()
}

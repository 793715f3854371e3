// Package scanner determines which of a user's shelves currently
// contain a given edition. Every shelf is probed concurrently and
// independently: one unreachable shelf slows nothing else down and
// is reported as unconfirmed rather than failing the whole scan.
package scanner

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"shelfsync/pkg/faults"
	"shelfsync/pkg/models"
)

const defaultProbeTimeout = 5 * time.Second

type ContentLister interface {
	ShelfEditions(ctx context.Context, shelfID string) ([]string, error)
}

// ProbeFunc is called as each probe settles, so a view can paint
// toggles incrementally instead of waiting for the slowest shelf.
// err is non-nil when the probe failed and member is meaningless.
type ProbeFunc func(shelf models.Shelf, member bool, err error)

type Scanner struct {
	Remote       ContentLister
	ProbeTimeout time.Duration

	// OnProbe, when set, observes every settled probe. Called from
	// probe goroutines; implementations do their own locking.
	OnProbe ProbeFunc
}

func New(remote ContentLister) *Scanner {
	return &Scanner{Remote: remote, ProbeTimeout: defaultProbeTimeout}
}

// Result is one scan's outcome. Members only ever contains shelves
// whose probe succeeded, so a partial scan is a subset of a full one:
// an unconfirmed shelf renders as "not a member", never the reverse.
type Result struct {
	EditionID   string
	Members     models.MembershipSet
	Unconfirmed []string
}

// Complete reports whether every probe settled successfully.
func (r Result) Complete() bool {
	return len(r.Unconfirmed) == 0
}

type probeOutcome struct {
	shelf  models.Shelf
	member bool
	err    error
}

// Scan probes every shelf for editionID and joins the results. Probe
// failures are absorbed: the shelf lands in Result.Unconfirmed and
// its siblings are unaffected. The returned error is non-nil only
// when the scan as a whole cannot proceed (bad input, missing
// credential, cancelled context); even then the partial Result is
// valid as far as it goes.
func (s *Scanner) Scan(ctx context.Context, shelves []models.Shelf, editionID string) (Result, error) {
	res := Result{EditionID: editionID, Members: make(models.MembershipSet)}
	if editionID == "" {
		return res, faults.Wrap(faults.ErrValidation, "scan", "edition id required")
	}
	if len(shelves) == 0 {
		return res, nil
	}

	timeout := s.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	outcomes := make(chan probeOutcome, len(shelves))
	for _, shelf := range shelves {
		go func(shelf models.Shelf) {
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			member, err := s.probe(probeCtx, shelf.ID, editionID)
			if s.OnProbe != nil {
				s.OnProbe(shelf, member, err)
			}
			outcomes <- probeOutcome{shelf: shelf, member: member, err: err}
		}(shelf)
	}

	var authErr error
	for range shelves {
		o := <-outcomes
		if o.err != nil {
			log.Printf("[scan] shelf %s (%s) probe failed: %v", o.shelf.ID, o.shelf.Name, o.err)
			res.Unconfirmed = append(res.Unconfirmed, o.shelf.ID)
			if errors.Is(o.err, faults.ErrAuthRequired) && authErr == nil {
				authErr = o.err
			}
			continue
		}
		if o.member {
			res.Members[o.shelf.ID] = true
		}
	}
	sort.Strings(res.Unconfirmed)

	// a missing credential fails every probe the same way; report it
	// once at the scan level so the caller can prompt for login
	if authErr != nil {
		return res, authErr
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Scanner) probe(ctx context.Context, shelfID, editionID string) (bool, error) {
	editions, err := s.Remote.ShelfEditions(ctx, shelfID)
	if err != nil {
		return false, err
	}
	for _, id := range editions {
		if id == editionID {
			return true, nil
		}
	}
	return false, nil
}

// ProbeOne re-checks a single shelf, used by the toggle coordinator
// for targeted reconciliation after a mutation.
func (s *Scanner) ProbeOne(ctx context.Context, shelfID, editionID string) (bool, error) {
	timeout := s.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.probe(probeCtx, shelfID, editionID)
}

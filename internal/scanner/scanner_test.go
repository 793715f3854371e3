package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsync/pkg/faults"
	"shelfsync/pkg/models"
)

// fakeRemote serves shelf contents from a map; shelves listed in slow
// block until the probe context expires, shelves in broken fail fast.
type fakeRemote struct {
	mu       sync.Mutex
	contents map[string][]string
	slow     map[string]bool
	broken   map[string]error
	calls    int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		contents: make(map[string][]string),
		slow:     make(map[string]bool),
		broken:   make(map[string]error),
	}
}

func (f *fakeRemote) ShelfEditions(ctx context.Context, shelfID string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	slow := f.slow[shelfID]
	err := f.broken[shelfID]
	editions := append([]string(nil), f.contents[shelfID]...)
	f.mu.Unlock()

	if slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return editions, nil
}

func testShelves(n int) []models.Shelf {
	kinds := []models.ShelfKind{
		models.KindWantToRead, models.KindReading, models.KindRead,
		models.KindOwned, models.KindCustom,
	}
	out := make([]models.Shelf, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Shelf{
			ID:   string(rune('a' + i)),
			Name: "shelf-" + string(rune('a'+i)),
			Kind: kinds[i%len(kinds)],
		})
	}
	return out
}

func TestScanFindsMembers(t *testing.T) {
	remote := newFakeRemote()
	remote.contents["a"] = []string{"x", "y"}
	remote.contents["c"] = []string{"x"}

	sc := New(remote)
	res, err := sc.Scan(context.Background(), testShelves(5), "x")
	require.NoError(t, err)
	assert.True(t, res.Complete())
	assert.True(t, res.Members.Has("a"))
	assert.True(t, res.Members.Has("c"))
	assert.False(t, res.Members.Has("b"))
	assert.Len(t, res.Members, 2)
}

func TestScanOneTimeoutFlagsUnconfirmed(t *testing.T) {
	remote := newFakeRemote()
	remote.contents["a"] = []string{"x"}
	remote.contents["e"] = []string{"x"}
	remote.slow["c"] = true // shelf #3 never answers

	sc := New(remote)
	sc.ProbeTimeout = 30 * time.Millisecond

	res, err := sc.Scan(context.Background(), testShelves(5), "x")
	require.NoError(t, err, "a single stuck probe must not fail the scan")
	assert.Equal(t, []string{"c"}, res.Unconfirmed)
	assert.False(t, res.Complete())
	assert.True(t, res.Members.Has("a"))
	assert.True(t, res.Members.Has("e"))
	assert.False(t, res.Members.Has("c"), "unconfirmed shelves must not appear as members")
}

func TestScanMonotonicUnderFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.contents["a"] = []string{"x"}
	remote.contents["b"] = []string{"x"}
	remote.contents["d"] = []string{"x"}

	sc := New(remote)
	full, err := sc.Scan(context.Background(), testShelves(5), "x")
	require.NoError(t, err)

	remote.broken["b"] = errors.New("boom")
	partial, err := sc.Scan(context.Background(), testShelves(5), "x")
	require.NoError(t, err)

	// partial members are a subset of full members, never a superset
	for id := range partial.Members {
		assert.True(t, full.Members.Has(id))
	}
	assert.Less(t, len(partial.Members), len(full.Members))
	assert.Equal(t, []string{"b"}, partial.Unconfirmed)
}

func TestScanReportsProbes(t *testing.T) {
	remote := newFakeRemote()
	remote.contents["a"] = []string{"x"}
	remote.broken["b"] = errors.New("boom")

	var mu sync.Mutex
	settled := make(map[string]bool)
	failed := make(map[string]bool)

	sc := New(remote)
	sc.OnProbe = func(shelf models.Shelf, member bool, err error) {
		mu.Lock()
		defer mu.Unlock()
		settled[shelf.ID] = true
		if err != nil {
			failed[shelf.ID] = true
		}
	}

	_, err := sc.Scan(context.Background(), testShelves(3), "x")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, settled, 3)
	assert.True(t, failed["b"])
	assert.False(t, failed["a"])
}

func TestScanEmptyEditionRejected(t *testing.T) {
	sc := New(newFakeRemote())
	_, err := sc.Scan(context.Background(), testShelves(2), "")
	assert.ErrorIs(t, err, faults.ErrValidation)
}

func TestScanSurfacesAuthFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.broken["a"] = faults.Wrap(faults.ErrAuthRequired, "probe", "")
	remote.broken["b"] = faults.Wrap(faults.ErrAuthRequired, "probe", "")

	sc := New(remote)
	res, err := sc.Scan(context.Background(), testShelves(2), "x")
	assert.ErrorIs(t, err, faults.ErrAuthRequired)
	assert.Empty(t, res.Members)
}

func TestScanCancelled(t *testing.T) {
	remote := newFakeRemote()
	remote.slow["a"] = true
	remote.slow["b"] = true

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	sc := New(remote)
	sc.ProbeTimeout = time.Second

	res, err := sc.Scan(ctx, testShelves(2), "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Unconfirmed, 2)
}

func TestProbeOne(t *testing.T) {
	remote := newFakeRemote()
	remote.contents["a"] = []string{"x"}

	sc := New(remote)
	member, err := sc.ProbeOne(context.Background(), "a", "x")
	require.NoError(t, err)
	assert.True(t, member)

	member, err = sc.ProbeOne(context.Background(), "a", "y")
	require.NoError(t, err)
	assert.False(t, member)
}

package shelfd

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsync/internal/creds"
	"shelfsync/internal/directory"
	"shelfsync/internal/remote"
	"shelfsync/internal/scanner"
	"shelfsync/internal/toggle"
	"shelfsync/internal/tracker"
	"shelfsync/pkg/database"
	"shelfsync/pkg/faults"
	"shelfsync/pkg/models"
)

// startServer brings up a full shelfd on an in-memory database and
// returns a client already signed in as a fresh user.
func startServer(t *testing.T) (*httptest.Server, *remote.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	srv := httptest.NewServer(NewRouter(db, DefaultAuthConfig(), nil))
	t.Cleanup(srv.Close)

	anon := remote.NewClient(srv.URL, creds.None{})
	res, err := anon.Register(context.Background(), "reader", "reader@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	return srv, remote.NewClient(srv.URL, creds.Static(res.Token))
}

func TestRegisterSeedsDefaultShelves(t *testing.T) {
	_, client := startServer(t)

	shelves, err := client.ListShelves(context.Background())
	require.NoError(t, err)
	require.Len(t, shelves, 4)

	kinds := make(map[models.ShelfKind]bool)
	for _, s := range shelves {
		kinds[s.Kind] = true
	}
	assert.True(t, kinds[models.KindWantToRead])
	assert.True(t, kinds[models.KindReading])
	assert.True(t, kinds[models.KindRead])
	assert.True(t, kinds[models.KindOwned])
}

func TestUnauthenticatedRejected(t *testing.T) {
	srv, _ := startServer(t)

	anon := remote.NewClient(srv.URL, creds.Static("garbage"))
	_, err := anon.ListShelves(context.Background())
	assert.ErrorIs(t, err, faults.ErrAuthRequired)
}

func TestEndToEndCanonicalSwap(t *testing.T) {
	_, client := startServer(t)
	ctx := context.Background()

	dir := directory.New(client)
	sc := scanner.New(client)
	coord := toggle.New(dir, client, sc)

	// edition X starts on Want to Read only
	_, err := coord.ToggleKind(ctx, models.KindWantToRead, "edition-x")
	require.NoError(t, err)
	_, err = coord.ToggleKind(ctx, models.KindOwned, "edition-x")
	require.NoError(t, err)

	wtr, _ := dir.ByKind(models.KindWantToRead)
	rdg, _ := dir.ByKind(models.KindReading)
	own, _ := dir.ByKind(models.KindOwned)

	view, err := coord.ToggleKind(ctx, models.KindReading, "edition-x")
	require.NoError(t, err)

	// optimistic/reconciled local view
	assert.True(t, view.Has(rdg.ID))
	assert.False(t, view.Has(wtr.ID))
	assert.True(t, view.Has(own.ID))

	// independently scanned server truth agrees
	shelves, err := dir.List(ctx)
	require.NoError(t, err)
	res, err := sc.Scan(ctx, shelves, "edition-x")
	require.NoError(t, err)
	require.True(t, res.Complete())
	assert.True(t, res.Members.Has(rdg.ID))
	assert.False(t, res.Members.Has(wtr.ID))
	assert.True(t, res.Members.Has(own.ID))
}

func TestCustomShelvesUnconstrained(t *testing.T) {
	_, client := startServer(t)
	ctx := context.Background()

	fav, err := client.CreateShelf(ctx, "Favorites", false)
	require.NoError(t, err)
	loan, err := client.CreateShelf(ctx, "Loaned Out", true)
	require.NoError(t, err)

	dir := directory.New(client)
	sc := scanner.New(client)
	coord := toggle.New(dir, client, sc)

	_, err = coord.Toggle(ctx, fav.ID, "edition-y")
	require.NoError(t, err)
	view, err := coord.Toggle(ctx, loan.ID, "edition-y")
	require.NoError(t, err)

	// both custom shelves hold the edition at once
	assert.True(t, view.Has(fav.ID))
	assert.True(t, view.Has(loan.ID))
}

func TestProgressOverServer(t *testing.T) {
	_, client := startServer(t)
	ctx := context.Background()

	track := tracker.New(client)

	total := 300
	page := 5
	p, err := track.Update(ctx, "club-1", "edition-z", tracker.UpdateRequest{
		CurrentPage: &page,
		TotalPages:  &total,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReading, p.Status, "page movement starts the book")
	assert.Equal(t, 5, p.CurrentPage)

	// finishing the book, even while asking for on_hold
	page = 300
	p, err = track.Update(ctx, "club-1", "edition-z", tracker.UpdateRequest{
		Status:      models.StatusOnHold,
		CurrentPage: &page,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)

	got, err := track.Get(ctx, "club-1", "edition-z")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 300, got.CurrentPage)
	require.NotNil(t, got.TotalPages)
	assert.Equal(t, 300, *got.TotalPages)
}

func TestShelfPaginationRoundTrip(t *testing.T) {
	_, client := startServer(t)
	ctx := context.Background()

	shelf, err := client.CreateShelf(ctx, "Backlog", false)
	require.NoError(t, err)

	want := make([]string, 0, 250)
	for i := 0; i < 250; i++ {
		id := "bulk-" + string(rune('a'+i/26)) + string(rune('a'+i%26))
		want = append(want, id)
		require.NoError(t, client.AddEdition(ctx, shelf.ID, id))
	}

	got, err := client.ShelfEditions(ctx, shelf.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
}

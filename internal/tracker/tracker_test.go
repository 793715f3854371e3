package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfsync/pkg/faults"
	"shelfsync/pkg/models"
)

func intp(n int) *int { return &n }

type fakeStore struct {
	records map[string]models.ReadingProgress
	fail    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]models.ReadingProgress)}
}

func (f *fakeStore) key(clubID, editionID string) string { return clubID + "/" + editionID }

func (f *fakeStore) GetProgress(ctx context.Context, clubID, editionID string) (models.ReadingProgress, error) {
	if f.fail != nil {
		return models.ReadingProgress{}, f.fail
	}
	p, ok := f.records[f.key(clubID, editionID)]
	if !ok {
		return models.ReadingProgress{
			ClubID:    clubID,
			EditionID: editionID,
			Status:    models.StatusNotStarted,
		}, nil
	}
	return p, nil
}

func (f *fakeStore) UpdateProgress(ctx context.Context, clubID string, p models.ReadingProgress) (models.ReadingProgress, error) {
	if f.fail != nil {
		return models.ReadingProgress{}, f.fail
	}
	p.ClubID = clubID
	f.records[f.key(clubID, p.EditionID)] = p
	return p, nil
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		cur        models.ReadingProgress
		req        UpdateRequest
		wantStatus models.ReadingStatus
		wantPage   int
	}{
		{
			name:       "page update promotes not_started to reading",
			cur:        models.ReadingProgress{Status: models.StatusNotStarted, TotalPages: intp(300)},
			req:        UpdateRequest{CurrentPage: intp(5)},
			wantStatus: models.StatusReading,
			wantPage:   5,
		},
		{
			name:       "meeting total forces completed over explicit status",
			cur:        models.ReadingProgress{Status: models.StatusReading, TotalPages: intp(300)},
			req:        UpdateRequest{Status: models.StatusOnHold, CurrentPage: intp(300)},
			wantStatus: models.StatusCompleted,
			wantPage:   300,
		},
		{
			name:       "exceeding total clamps and completes",
			cur:        models.ReadingProgress{Status: models.StatusReading, TotalPages: intp(200)},
			req:        UpdateRequest{CurrentPage: intp(999)},
			wantStatus: models.StatusCompleted,
			wantPage:   200,
		},
		{
			name:       "explicit on_hold from reading",
			cur:        models.ReadingProgress{Status: models.StatusReading, CurrentPage: 50, TotalPages: intp(300)},
			req:        UpdateRequest{Status: models.StatusOnHold},
			wantStatus: models.StatusOnHold,
			wantPage:   50,
		},
		{
			name:       "explicit reading resumes on_hold",
			cur:        models.ReadingProgress{Status: models.StatusOnHold, CurrentPage: 50},
			req:        UpdateRequest{Status: models.StatusReading},
			wantStatus: models.StatusReading,
			wantPage:   50,
		},
		{
			name:       "explicit completed without page position",
			cur:        models.ReadingProgress{Status: models.StatusReading, CurrentPage: 10},
			req:        UpdateRequest{Status: models.StatusCompleted},
			wantStatus: models.StatusCompleted,
			wantPage:   10,
		},
		{
			name:       "unknown total leaves page unclamped",
			cur:        models.ReadingProgress{Status: models.StatusReading},
			req:        UpdateRequest{CurrentPage: intp(5000)},
			wantStatus: models.StatusReading,
			wantPage:   5000,
		},
		{
			name:       "page zero does not promote",
			cur:        models.ReadingProgress{Status: models.StatusNotStarted, TotalPages: intp(300)},
			req:        UpdateRequest{CurrentPage: intp(0)},
			wantStatus: models.StatusNotStarted,
			wantPage:   0,
		},
		{
			name:       "total supplied in same update triggers completion",
			cur:        models.ReadingProgress{Status: models.StatusReading, CurrentPage: 120},
			req:        UpdateRequest{TotalPages: intp(120)},
			wantStatus: models.StatusCompleted,
			wantPage:   120,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(tc.cur, tc.req)
			assert.Equal(t, tc.wantStatus, got.Status)
			assert.Equal(t, tc.wantPage, got.CurrentPage)
		})
	}
}

func TestUpdatePersists(t *testing.T) {
	store := newFakeStore()
	track := New(store)
	ctx := context.Background()

	p, err := track.Update(ctx, "club-1", "ed-1", UpdateRequest{
		CurrentPage: intp(5),
		TotalPages:  intp(300),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReading, p.Status)
	assert.Equal(t, 5, p.CurrentPage)

	// second update builds on the stored record
	p, err = track.Update(ctx, "club-1", "ed-1", UpdateRequest{CurrentPage: intp(300)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.Equal(t, 300, p.CurrentPage)
}

func TestUpdateValidation(t *testing.T) {
	store := newFakeStore()
	track := New(store)
	ctx := context.Background()

	_, err := track.Update(ctx, "club-1", "ed-1", UpdateRequest{CurrentPage: intp(-1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrValidation)

	_, err = track.Update(ctx, "", "ed-1", UpdateRequest{})
	assert.ErrorIs(t, err, faults.ErrValidation)

	_, err = track.Update(ctx, "club-1", "ed-1", UpdateRequest{TotalPages: intp(0)})
	assert.ErrorIs(t, err, faults.ErrValidation)

	// nothing reached the store
	assert.Empty(t, store.records)
}

func TestUpdateRemoteFailure(t *testing.T) {
	store := newFakeStore()
	store.fail = faults.Wrap(faults.ErrRemoteUnavailable, "test", "down")
	track := New(store)

	_, err := track.Update(context.Background(), "club-1", "ed-1", UpdateRequest{CurrentPage: intp(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrRemoteUnavailable)
}

func TestGetDefaultsStatus(t *testing.T) {
	store := newFakeStore()
	store.records["club-1/ed-1"] = models.ReadingProgress{ClubID: "club-1", EditionID: "ed-1"}
	track := New(store)

	p, err := track.Get(context.Background(), "club-1", "ed-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotStarted, p.Status)
}

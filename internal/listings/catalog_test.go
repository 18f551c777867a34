package listings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

type failingRepo struct {
	Repository
	err error
}

func (f failingRepo) GetByID(ctx context.Context, id string) (*Listing, error) {
	return nil, f.err
}

func TestCatalogFindRecentDefaultsToUserLimit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	for i := 0; i < 8; i++ {
		_, err := repo.Create(ctx, benidormRent("x"))
		require.NoError(t, err)
	}
	catalog := NewCatalog(repo, logging.Discard())

	got, err := catalog.FindRecent(ctx, "benidorm", DealRent, RoomsOne, 0)
	require.NoError(t, err)
	assert.Len(t, got, UserLimit)

	got, err = catalog.FindRecent(ctx, "alicante", DealRent, RoomsOne, UserLimit)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = catalog.FindActive(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestCatalogLookupToleratesMissesAndErrors(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()
	repo.Seed(SampleListings()...)
	catalog := NewCatalog(repo, logging.Discard())

	l, ok := catalog.Lookup(ctx, "ben_rent_1_1")
	require.True(t, ok)
	assert.Equal(t, "Бенидорм, 1 спальня, 600€/мес", l.Title)

	_, ok = catalog.Lookup(ctx, "")
	assert.False(t, ok)
	_, ok = catalog.Lookup(ctx, "nope")
	assert.False(t, ok)

	broken := NewCatalog(failingRepo{Repository: repo, err: errors.New("db down")}, logging.Discard())
	_, ok = broken.Lookup(ctx, "ben_rent_1_1")
	assert.False(t, ok)
}

func TestCatalogDeactivateWrapsNotFound(t *testing.T) {
	catalog := NewCatalog(newTestRepo(), logging.Discard())
	err := catalog.Deactivate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

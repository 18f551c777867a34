package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listingCols = []string{"id", "city_code", "deal_type", "rooms", "title", "description", "link", "active", "created_at"}

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresRepositoryWithExec(mock), mock
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO listings").
		WithArgs(pgxmock.AnyArg(), "benidorm", "rent", "1", "Уютная квартира", "Уютная квартира\nс видом на море", "https://t.me/x/1").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	listing, err := repo.Create(context.Background(), &CreateListingRequest{
		CityCode:    "benidorm",
		DealType:    DealRent,
		Rooms:       RoomsOne,
		Title:       "Уютная квартира",
		Description: "Уютная квартира\nс видом на море",
		Link:        "https://t.me/x/1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, listing.ID)
	assert.True(t, listing.Active)
	assert.Equal(t, created, listing.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("INSERT INTO listings").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), benidormRent("A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listings: insert failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM listings WHERE id").WithArgs("abc").
		WillReturnRows(pgxmock.NewRows(listingCols).
			AddRow("abc", "calpe", "buy", "3+", "Вилла", "desc", "https://x", false, created))

	listing, err := repo.GetByID(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, DealBuy, listing.DealType)
	assert.Equal(t, RoomsThreePlus, listing.Rooms)
	assert.False(t, listing.Active)

	mock.ExpectQuery("FROM listings WHERE id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrListingNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindRecent(t *testing.T) {
	repo, mock := newMockRepo(t)
	newer := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery("WHERE active = TRUE").
		WithArgs("benidorm", "rent", "1", 5).
		WillReturnRows(pgxmock.NewRows(listingCols).
			AddRow("n", "benidorm", "rent", "1", "newer", "d", "l", true, newer).
			AddRow("o", "benidorm", "rent", "1", "older", "d", "l", true, older))

	got, err := repo.FindRecent(context.Background(), Filter{CityCode: "benidorm", DealType: DealRent, Rooms: RoomsOne}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"newer", "older"}, titles(got))

	got, err = repo.FindRecent(context.Background(), Filter{}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeactivate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE listings SET active = FALSE").WithArgs("abc").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.Deactivate(context.Background(), "abc"))

	mock.ExpectExec("UPDATE listings SET active = FALSE").WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.Deactivate(context.Background(), "missing"), ErrListingNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

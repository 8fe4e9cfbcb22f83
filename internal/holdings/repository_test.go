package holdings

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestRepo(t *testing.T) *Repository {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	created, err := repo.Create(Holding{
		Symbol: "AAPL",
		Lots: []Lot{
			{Quantity: 10, Price: 150, Date: "2023-01-15"},
			{Quantity: 5, Price: 170, Date: "2023-06-01"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	require.Len(t, got.Lots, 2)
	assert.Equal(t, 10.0, got.Lots[0].Quantity)
	assert.Equal(t, 15.0, got.Quantity())
}

func TestGetNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReplacesLots(t *testing.T) {
	repo := setupTestRepo(t)

	created, err := repo.Create(Holding{
		Symbol: "MSFT",
		Lots:   []Lot{{Quantity: 3, Price: 400, Date: "2024-01-10"}},
	})
	require.NoError(t, err)

	created.Lots = append(created.Lots, Lot{Quantity: 2, Price: 420, Date: "2024-03-01"})
	updated, err := repo.Update(created)
	require.NoError(t, err)

	got, err := repo.Get(updated.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lots, 2)
	assert.Equal(t, 5.0, got.Quantity())
}

func TestUpdateNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Update(Holding{ID: "missing", Symbol: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := setupTestRepo(t)

	created, err := repo.Create(Holding{Symbol: "VTI"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(created.ID))

	_, err = repo.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(created.ID), ErrNotFound)
}

func TestListOrderedBySymbol(t *testing.T) {
	repo := setupTestRepo(t)

	for _, symbol := range []string{"MSFT", "AAPL", "VTI"} {
		_, err := repo.Create(Holding{Symbol: symbol})
		require.NoError(t, err)
	}

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "AAPL", list[0].Symbol)
	assert.Equal(t, "VTI", list[2].Symbol)
}

func TestLegacyFieldsSurviveRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)

	created, err := repo.Create(Holding{
		Symbol:             "OLD",
		LegacyQuantity:     12,
		LegacyAveragePrice: 88.5,
		CreatedAt:          "2021-04-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "2021-04-01T00:00:00Z", created.CreatedAt, "caller-supplied CreatedAt is preserved")

	got, err := repo.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.LegacyQuantity)
	assert.Equal(t, 88.5, got.LegacyAveragePrice)
	assert.Equal(t, 12.0, got.Quantity())
}

func TestHoldingQuantityPrefersLots(t *testing.T) {
	h := Holding{
		Symbol:         "AAPL",
		LegacyQuantity: 99,
		Lots:           []Lot{{Quantity: 4, Price: 100}},
	}
	assert.Equal(t, 4.0, h.Quantity())
}

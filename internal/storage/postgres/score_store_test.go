package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/openwax/internal/score"
)

var scoreColumns = []string{"url", "title", "score", "times", "updated_at"}

func TestNewScoreStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewScoreStoreWithPool(mock, "scores; DROP TABLE x")
	require.Error(t, err)

	store, err := NewScoreStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "scores", store.table)

	_, err = NewScoreStoreWithPool(nil, "scores")
	require.Error(t, err)
}

func TestNewScoreStoreRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := NewScoreStore(context.Background(), Config{})
	require.ErrorContains(t, err, "store.dsn")
}

func TestEnsureSchemaCreatesTableAndIndex(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scores").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS scores_updated_at_idx").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByURLReturnsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery("SELECT url, title, score, times, updated_at FROM scores WHERE url =").
		WithArgs("http://example.com/").
		WillReturnRows(mock.NewRows(scoreColumns).AddRow("http://example.com/", "Home", int64(7), int64(3), now))

	rec, err := store.FindByURL(context.Background(), "http://example.com/")
	require.NoError(t, err)
	require.Equal(t, score.Record{URL: "http://example.com/", Title: "Home", Score: 7, Times: 3, UpdatedAt: now}, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByURLMapsNoRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT url, title, score, times, updated_at FROM scores").
		WithArgs("http://missing.com/").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.FindByURL(context.Background(), "http://missing.com/")
	require.ErrorIs(t, err, score.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByURLWrapsDriverErrors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	boom := errors.New("connection refused")
	mock.ExpectQuery("SELECT url").WithArgs("http://example.com/").WillReturnError(boom)

	_, err = store.FindByURL(context.Background(), "http://example.com/")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, score.ErrNotFound)
}

func TestRecentOrdersAndLimits(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	newer := time.Unix(200, 0).UTC()
	older := time.Unix(100, 0).UTC()
	mock.ExpectQuery("ORDER BY updated_at DESC LIMIT").
		WithArgs(score.RecentLimit).
		WillReturnRows(mock.NewRows(scoreColumns).
			AddRow("http://b.com/", "B", int64(2), int64(1), newer).
			AddRow("http://a.com/", "A", int64(1), int64(4), older))

	list, err := store.Recent(context.Background(), score.RecentLimit)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "http://b.com/", list[0].URL)
	require.Equal(t, int64(4), list[1].Times)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPatternUsesRegexOperator(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	mock.ExpectQuery("WHERE url ~").
		WithArgs("example.com").
		WillReturnRows(mock.NewRows(scoreColumns))

	list, err := store.FindByPattern(context.Background(), "example.com")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUpsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	rec := score.Record{
		URL:       "http://example.com/page",
		Title:     "Home",
		Score:     7,
		Times:     2,
		UpdatedAt: time.Unix(1700000000, 0).UTC(),
	}
	mock.ExpectExec("INSERT INTO scores").
		WithArgs(rec.URL, rec.Title, rec.Score, rec.Times, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWrapsErrors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	boom := errors.New("deadlock detected")
	mock.ExpectExec("INSERT INTO scores").WillReturnError(boom)

	err = store.Save(context.Background(), score.Record{URL: "http://example.com/", Times: 1})
	require.ErrorIs(t, err, boom)
}

func TestPingReportsFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScoreStoreWithPool(mock, "scores")
	require.NoError(t, err)

	boom := errors.New("no route to host")
	mock.ExpectPing().WillReturnError(boom)

	require.ErrorIs(t, store.Ping(context.Background()), boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

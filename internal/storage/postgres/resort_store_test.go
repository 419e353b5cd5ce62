package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/skiresort-ranker/internal/resort"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
)

func newMockStore(t *testing.T) (*ResortStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithSession(mock)
	require.NoError(t, err)
	return store, mock
}

func TestReplaceRegionRecreatesTable(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	records := []resort.Record{
		{Name: "Zermatt", Highest: 3883, Lowest: 1562, Drop: 2321},
		{Name: "Kitzsteinhorn", Highest: 3029.4, Lowest: 728.6, Drop: 2300},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "europe"`)).
		WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "europe"`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"europe"}, []string{"name", "highest", "lowest", "diff"}).
		WillReturnResult(2)
	mock.ExpectCommit()

	require.NoError(t, store.ReplaceRegion(context.Background(), "europe", records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRegionSanitizesKey(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "europe_austria"`)).
		WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "europe_austria"`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCommit()

	require.NoError(t, store.ReplaceRegion(context.Background(), "europe/austria", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRegionRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	boom := errors.New("permission denied")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "asia"`)).
		WillReturnResult(pgxmock.NewResult("DROP TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "asia"`)).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.ReplaceRegion(context.Background(), "asia", []resort.Record{{Name: "Niseko"}})
	require.ErrorIs(t, err, boom)
	var pErr *storage.PersistenceError
	require.ErrorAs(t, err, &pErr)
	require.Equal(t, "replace", pErr.Op)
	require.Equal(t, "asia", pErr.Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRegionBeginFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := store.ReplaceRegion(context.Background(), "asia", nil)
	require.ErrorContains(t, err, "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRegionRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	store, _ := newMockStore(t)
	err := store.ReplaceRegion(context.Background(), "", nil)
	var pErr *storage.PersistenceError
	require.ErrorAs(t, err, &pErr)
}

func TestQueryOrdersAndLimits(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	rows := pgxmock.NewRows([]string{"name", "highest", "lowest", "diff"}).
		AddRow("Zermatt", int64(3883), int64(1562), int64(2321)).
		AddRow("Kitzsteinhorn", int64(3029), int64(729), int64(2300))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT name, highest, lowest, diff FROM "europe" ORDER BY diff DESC, name ASC LIMIT $1`)).
		WithArgs(20).
		WillReturnRows(rows)

	got, err := store.Query(context.Background(), "europe", storage.DefaultSort())
	require.NoError(t, err)
	require.Equal(t, []resort.Record{
		{Name: "Zermatt", Highest: 3883, Lowest: 1562, Drop: 2321},
		{Name: "Kitzsteinhorn", Highest: 3029, Lowest: 729, Drop: 2300},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryNormalizesUnknownSort(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT name, highest, lowest, diff FROM "europe" ORDER BY diff DESC, name ASC LIMIT $1`)).
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{"name", "highest", "lowest", "diff"}))

	got, err := store.Query(context.Background(), "europe",
		storage.Sort{Column: "1; DROP TABLE europe", Direction: "--"})
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryMissingTable(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "antarctica"`)).
		WithArgs(5).
		WillReturnError(errors.New(`relation "antarctica" does not exist`))

	_, err := store.Query(context.Background(), "antarctica", storage.NewSort("name", "ASC", 5))
	var pErr *storage.PersistenceError
	require.ErrorAs(t, err, &pErr)
	require.Equal(t, "query", pErr.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectPing()
	require.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.Error(t, store.Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.Error(t, err)

	_, err = NewWithSession(nil)
	require.Error(t, err)
}

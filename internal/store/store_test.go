package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enquinity/pdquery/internal/dialect"
	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

func newMockSource(t *testing.T, opts ...Option) (*Source, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})
	return ForEntity(db, "orders", model.Simple{}, opts...), mock
}

func TestSource_GetDataScansColumns(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectQuery(`SELECT "orders".* FROM "orders" WHERE "orders"."status" = 'open'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
			AddRow(int64(1), "open").
			AddRow(int64(2), []byte("open")))

	rows, err := src.Query().Where("status", "open").SelectAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first, ok := rows[0].(*ir.Columns)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "status"}, first.Keys())
	assert.Equal(t, "open", ir.Value(rows[1], "status"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_LazyCursorClosesRows(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectQuery(`SELECT "orders".* FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2))).
		RowsWillBeClosed()

	rows, err := src.Query().Select(context.Background())
	require.NoError(t, err)
	require.True(t, rows.Next())
	assert.Equal(t, int64(1), ir.Value(rows.Row(), "id"))
	require.NoError(t, rows.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_GetFirstLimitsToOneRow(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectQuery(`SELECT "orders".* FROM "orders" ORDER BY "orders"."total" DESC LIMIT 1 OFFSET 2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total"}).AddRow(int64(4), int64(20)))

	row, err := src.Query().OrderBy("total", false).Offset(2).SelectFirst(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), ir.Value(row, "id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_HasRowsOnEmptyResult(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectQuery(`SELECT "orders".* FROM "orders" WHERE "orders"."id" = 9 LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ok, err := src.Query().Where(queryir.Key, 9).HasRows(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_Count(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectQuery(`SELECT count(*) AS "count" FROM "orders" WHERE "orders"."total" > 10`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := src.Query().Where("total", ">", 10).OrderBy("id", true).Limit(1).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_Writes(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectExec(`UPDATE "orders" SET "status" = 'closed' WHERE "orders"."total" < 5`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "orders" WHERE "orders"."status" = 'closed'`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "orders" ("id","status") VALUES (7,'new')`).
		WillReturnResult(sqlmock.NewResult(7, 1))

	ctx := context.Background()
	n, err := src.UpdateQuery().Set("status", "closed").Where("total", "<", 5).Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = src.DeleteQuery().Where("status", "closed").Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = src.InsertData(ctx, ir.Record{"id": 7, "status": "new"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = src.InsertData(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_DatabaseErrorsAreWrapped(t *testing.T) {
	src, mock := newMockSource(t)
	boom := errors.New("boom")
	mock.ExpectQuery(`SELECT "orders".* FROM "orders"`).WillReturnError(boom)
	mock.ExpectExec(`DELETE FROM "orders"`).WillReturnError(boom)

	_, err := src.Query().SelectAll(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "select orders")

	_, err = src.DeleteQuery().Delete(context.Background())
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_CompileErrorsSkipTheDatabase(t *testing.T) {
	src, mock := newMockSource(t)

	_, err := src.Query().Where("total", "~", 1).SelectAll(context.Background())
	assert.True(t, queryir.IsUnsupportedOperator(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSource_LogsStatements(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	src, mock := newMockSource(t, WithLogger(logger), WithDialect(dialect.MySQL))
	mock.ExpectQuery("SELECT `orders`.* FROM `orders`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := src.Query().SelectAll(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "statement=\"SELECT `orders`.* FROM `orders`\"")
}

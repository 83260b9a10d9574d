package reshape

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	return &Table{
		Name:        "x",
		Code:        "X",
		KeyColumns:  []string{"year"},
		ValueColumn: "value",
		Rows: []*TableRow{
			{Key: []string{"2000"}, Value: Value{Kind: ValueNumber, Number: 10}},
			{Key: []string{"2001"}, Value: Value{Kind: ValueNumber, Number: 12.5}},
		},
	}
}

func testStore(t *testing.T, db *sql.DB) *SQLStore {
	t.Helper()

	return NewSQLStore(db)
}

func TestSQLStore_Ping(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec(
		"^" + regexp.QuoteMeta("SELECT 1") + "$",
	).WillReturnResult(sqlmock.NewResult(0, 0))

	s := testStore(t, db)
	require.NoError(t, s.Ping())
}

func TestSQLStore_CreateTable(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec(
		"^" + regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS x (year TEXT, value REAL)") + "$",
	).WillReturnResult(sqlmock.NewResult(0, 0))

	s := testStore(t, db)
	require.NoError(t, s.CreateTable(testTable()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CreateTable_TextValue(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	table := testTable()
	table.Rows = append(table.Rows, &TableRow{
		Key:   []string{"2002"},
		Value: Value{Kind: ValueText, Text: "no data"},
	})

	mock.ExpectExec(
		"^" + regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS x (year TEXT, value TEXT)") + "$",
	).WillReturnResult(sqlmock.NewResult(0, 0))

	s := testStore(t, db)
	require.NoError(t, s.CreateTable(table))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_WriteTable(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(
		"^" + regexp.QuoteMeta("INSERT INTO x (year, value) VALUES (?,?)") + "$",
	)
	prep.ExpectExec().WithArgs("2000", float64(10)).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("2001", float64(12.5)).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	s := testStore(t, db)
	require.NoError(t, s.WriteTable(testTable()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_WriteTable_InvalidName(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)

	table := testTable()
	table.Name = "x; DROP TABLE users"

	s := testStore(t, db)
	require.Error(t, s.WriteTable(table))
}

func TestSQLStore_ReadTable(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"year", "value"}).
		AddRow("2000", float64(10)).
		AddRow("2001", float64(12.5))

	mock.ExpectQuery(
		"^" + regexp.QuoteMeta("SELECT year, value FROM x") + "$",
	).WillReturnRows(rows)

	s := testStore(t, db)
	table, err := s.ReadTable("x", []string{"year"})
	require.NoError(t, err)
	require.Equal(t, &Table{
		Name:        "x",
		KeyColumns:  []string{"year"},
		ValueColumn: "value",
		Rows: []*TableRow{
			{Key: []string{"2000"}, Value: Value{Kind: ValueNumber, Number: 10}},
			{Key: []string{"2001"}, Value: Value{Kind: ValueNumber, Number: 12.5}},
		},
	}, table)
}

func TestSQLStore_ReadLookup(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"code", "title"}).
		AddRow("X", "Some indicator").
		AddRow("Y", "Other indicator")

	mock.ExpectQuery(
		"^" + regexp.QuoteMeta("SELECT code, title FROM labels") + "$",
	).WillReturnRows(rows)

	s := testStore(t, db)
	lookup, err := s.ReadLookup("labels")
	require.NoError(t, err)
	require.Equal(t, 2, lookup.Len())

	title, ok := lookup.Title("X")
	require.True(t, ok)
	require.Equal(t, "Some indicator", title)
}

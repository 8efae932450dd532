package database

import (
	"context"
	"errors"
	"testing"

	"github.com/Alias1177/LottoPredictor/internal/variant"
	"github.com/Alias1177/LottoPredictor/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionParamsDSN(t *testing.T) {
	p := ConnectionParams{
		Host:     "localhost",
		Port:     "5432",
		User:     "lotto",
		Password: "secret",
		DBName:   "draws",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=lotto password=secret dbname=draws sslmode=disable", p.DSN())
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &DB{DB: conn, logger: zerolog.Nop()}, mock
}

func dlt(t *testing.T) models.VariantConfig {
	t.Helper()
	v, err := variant.Default().Lookup("dlt")
	require.NoError(t, err)
	return v
}

func TestLoadOrdersByIssueNumber(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"issue", "red", "blue"}).
		AddRow("9001", []byte("{01,02,03,04,05}"), []byte("{01,02}")).
		AddRow("24001", []byte("{05,12,03,33,08}"), []byte("{02,09}"))
	mock.ExpectQuery(`SELECT issue, red, blue\s+FROM draw_records\s+WHERE variant = \$1\s+ORDER BY length\(issue\), issue`).
		WithArgs("dlt").
		WillReturnRows(rows)

	records, err := db.Load(context.Background(), dlt(t))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "9001", records[0].Issue)
	assert.Equal(t, models.DrawRecord{Issue: "24001", Red: []string{"05", "12", "03", "33", "08"}, Blue: []string{"02", "09"}}, records[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadEmptyArchiveIsMissingData(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`FROM draw_records`).
		WithArgs("dlt").
		WillReturnRows(sqlmock.NewRows([]string{"issue", "red", "blue"}))

	_, err := db.Load(context.Background(), dlt(t))
	assert.ErrorIs(t, err, models.ErrMissingData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveReplacesVariantRowsInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)

	records := []models.DrawRecord{
		{Issue: "24001", Red: []string{"01", "02", "03", "04", "05"}, Blue: []string{"01", "02"}},
		{Issue: "24002", Red: []string{"05", "12", "03", "33", "08"}, Blue: []string{"02", "09"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM draw_records WHERE variant = \$1`).
		WithArgs("dlt").
		WillReturnResult(sqlmock.NewResult(0, 3))
	prep := mock.ExpectPrepare(`INSERT INTO draw_records`)
	for _, rec := range records {
		prep.ExpectExec().
			WithArgs("dlt", rec.Issue, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, db.Save(context.Background(), dlt(t), records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM draw_records`).
		WithArgs("dlt").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(`INSERT INTO draw_records`).
		ExpectExec().
		WithArgs("dlt", "24001", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := db.Save(context.Background(), dlt(t), []models.DrawRecord{
		{Issue: "24001", Red: []string{"01", "02", "03", "04", "05"}, Blue: []string{"01", "02"}},
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PreferenceStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPreferenceStore(Wrap(db, zerolog.Nop())), mock
}

func TestPreferenceStore_Get(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT pref_value FROM visitor_preferences WHERE pref_key = \?`).
		WithArgs("v1:selected_plan").
		WillReturnRows(sqlmock.NewRows([]string{"pref_value"}).AddRow("starter"))

	v, ok, err := s.Get(context.Background(), "v1:selected_plan")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "starter", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceStore_GetMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT pref_value`).
		WithArgs("v1:billing_preference").
		WillReturnRows(sqlmock.NewRows([]string{"pref_value"}))

	_, ok, err := s.Get(context.Background(), "v1:billing_preference")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceStore_Set(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO visitor_preferences .* ON DUPLICATE KEY UPDATE`).
		WithArgs("v1:billing_preference", "annual").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(context.Background(), "v1:billing_preference", "annual"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceStore_Errors(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT pref_value`).WillReturnError(boom)
	mock.ExpectExec(`INSERT INTO visitor_preferences`).WillReturnError(boom)

	_, _, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v"), boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceStore_EnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS visitor_preferences`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db:3306", User: "app", Password: "pw", DBName: "edu"}
	assert.Equal(t, "app:pw@tcp(db:3306)/edu?parseTime=true", cfg.DSN())
}

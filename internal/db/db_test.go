package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert booking: %w", &pq.Error{Code: "23505"})))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23514"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "40001"}))
	assert.False(t, IsUniqueViolation(sql.ErrNoRows))
}

func TestIsLockTimeout(t *testing.T) {
	assert.True(t, IsLockTimeout(&pq.Error{Code: "55P03"}))
	assert.False(t, IsLockTimeout(&pq.Error{Code: "23505"}))
	assert.False(t, IsLockTimeout(nil))
}

func TestExists(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	database := sqlx.NewDb(raw, "sqlmock")
	defer database.Close()

	query := "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := Exists(context.Background(), database, query, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("b@example.com").
		WillReturnError(sql.ErrNoRows)

	ok, err = Exists(context.Background(), database, query, "b@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert invoice: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: invoices.job_id")))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsDuplicateKeyErr(&pq.Error{Code: "23505"}))
}

func TestIsRetryableErr(t *testing.T) {
	assert.False(t, IsRetryableErr(nil))
	assert.True(t, IsRetryableErr(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryableErr(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"})))
	assert.True(t, IsRetryableErr(errors.New("database is locked")))
	assert.False(t, IsRetryableErr(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryableErr(errors.New("boom")))
	assert.True(t, IsRetryableErr(&pq.Error{Code: "40001"}))
}

func TestDialect(t *testing.T) {
	for _, kind := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialect(Config{Type: kind, Host: "localhost", Port: "5432"})
		assert.NoError(t, err, kind)
		assert.NotNil(t, d, kind)
	}
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(Config{Host: "db", User: "u", Password: "p", Name: "shop", Port: "5432", SSLMode: "disable"})
	assert.Equal(t, "host=db user=u password=p dbname=shop port=5432 sslmode=disable TimeZone=UTC", dsn)
}

package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("otra cosa")))
}

func TestIsLockTimeout(t *testing.T) {
	assert.True(t, isLockTimeout(fmt.Errorf("lock: %w", &pgconn.PgError{Code: "55P03"})))
	assert.True(t, isLockTimeout(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, isLockTimeout(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isLockTimeout(errors.New("55P03")))
}

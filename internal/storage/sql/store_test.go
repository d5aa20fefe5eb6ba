package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStore_UnsupportedDriver(t *testing.T) {
	store, err := NewStore("sqlite", "file::memory:", 1, 1, 0)

	assert.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "$3", Postgres.Placeholder(3))
	assert.Equal(t, "?", MySQL.Placeholder(3))
	assert.Equal(t, `"email_address"`, Postgres.Quote("email_address"))
	assert.Equal(t, "`email_address`", MySQL.Quote("email_address"))
	assert.True(t, Postgres.SupportsReturning())
	assert.False(t, MySQL.SupportsReturning())
}

package sqldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SQLite(t *testing.T) {
	db, err := New(context.Background(), Options{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	assert.NoError(t, Ping(context.Background(), db))
	assert.True(t, db.Config.TranslateError)
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), Options{Driver: "postgres", DSN: "x"})
	assert.EqualError(t, err, `unsupported sql driver "postgres"`)
}

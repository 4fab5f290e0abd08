package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchema(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "nested", "dir", "test.db")})
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"events", "competitors", "positions", "migrations"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestTransactionRollsBack(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "tx.db")})
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = Transaction(context.Background(), db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO events (id, name, start_ms, end_ms) VALUES ('e1', 'x', 0, 1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n))
	assert.Zero(t, n)
}

func TestTransactionHonoursContext(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "tx.db")})
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err = Transaction(ctx, db, func(tx *sql.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLoadMigrationsOrdersAndSkips(t *testing.T) {
	source := fstest.MapFS{
		"010_later.sql":  {Data: []byte("SELECT 1;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"readme.md":      {Data: []byte("ignored")},
		"bad_name.sql":   {Data: []byte("ignored")},
	}

	migrations, err := NewMigrationManager(nil, source).LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "002_second", migrations[0].Name)
	assert.Equal(t, 10, migrations[1].Version)
}

// Package sqlite implements the store driver on an embedded SQLite
// database.
package sqlite

import (
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/4uffin/aura-bot/store"
)

type DB struct {
	db *sql.DB
}

// NewDB opens the SQLite database at the given DSN.
//
// Pragmas:
// - busy_timeout: the polling loop and the summarization job share the
//   file; waiting beats failing on a momentarily locked database.
// - journal_mode=WAL: the recommended journal mode, prevents most
//   locking issues.
//
// When using the `modernc.org/sqlite` driver, each pragma must be
// prefixed with `_pragma=`.
func NewDB(dsn string) (store.Driver, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", dsn+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}

	// SQLite: a single connection is optimal with WAL; every write is
	// its own implicit transaction, which gives the per-row atomicity
	// the store contract requires.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB}, nil
}

func (d *DB) GetDB() any {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

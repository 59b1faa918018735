package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_handle TEXT NOT NULL,
		memory_key TEXT NOT NULL,
		memory_value TEXT NOT NULL,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(user_handle, memory_key)
	)`,
	`CREATE TABLE IF NOT EXISTS general_knowledge (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic TEXT NOT NULL,
		information TEXT NOT NULL,
		tags TEXT,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE TABLE IF NOT EXISTS post_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_handle TEXT NOT NULL,
		post_text TEXT NOT NULL,
		post_uri TEXT UNIQUE NOT NULL,
		thread_context TEXT,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE TABLE IF NOT EXISTS summarized_knowledge (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		summary_type TEXT NOT NULL,
		user_handle TEXT,
		summary_content TEXT NOT NULL,
		tags TEXT,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
		UNIQUE(summary_type, user_handle)
	)`,
	`CREATE TABLE IF NOT EXISTS blocklist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		word TEXT NOT NULL UNIQUE,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_stops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_uri TEXT NOT NULL UNIQUE,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE TABLE IF NOT EXISTS response_directives (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		directive_text TEXT NOT NULL,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
	`CREATE TABLE IF NOT EXISTS reply_streaks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_uri TEXT NOT NULL UNIQUE,
		streak_count INTEGER NOT NULL DEFAULT 0,
		created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
	)`,
}

// defaultBlocklist seeds the blocklist on first startup. Seeding uses
// INSERT OR IGNORE so operator additions and removals survive
// restarts.
var defaultBlocklist = []string{
	"kill", "die", "suicide", "hurt", "attack",
	"nazi", "fascist", "racist", "slur", "murder", "bomb",
	"terrorist", "extremist", "radical", "genocide", "holocaust",
	"rape", "sexual assault", "abuse", "torture", "weapon", "drug",
}

// Migrate bootstraps the schema, applies additive column migrations,
// and seeds the default blocklist. Every step is idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create table")
		}
	}

	// Databases created before the tags columns existed get them added
	// in place; existing rows are preserved with NULL tags.
	for _, table := range []string{"general_knowledge", "summarized_knowledge"} {
		if err := d.ensureColumn(ctx, table, "tags", "TEXT"); err != nil {
			return err
		}
	}

	for _, word := range defaultBlocklist {
		if _, err := d.db.ExecContext(ctx, "INSERT OR IGNORE INTO blocklist (word) VALUES (?)", word); err != nil {
			return errors.Wrapf(err, "failed to seed blocklist word %q", word)
		}
	}

	return nil
}

// ensureColumn adds the column to the table when it is missing.
func (d *DB) ensureColumn(ctx context.Context, table, column, columnType string) error {
	rows, err := d.db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return errors.Wrapf(err, "failed to inspect table %s", table)
	}
	defer rows.Close()

	exists := false
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return errors.Wrap(err, "failed to scan table info")
		}
		if name == column {
			exists = true
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate table info")
	}
	if exists {
		return nil
	}

	_, err = d.db.ExecContext(ctx, "ALTER TABLE "+table+" ADD COLUMN "+column+" "+columnType)
	if err != nil {
		return errors.Wrapf(err, "failed to add column %s to %s", column, table)
	}
	return nil
}

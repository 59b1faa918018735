package sqlite

import (
	"context"

	"github.com/pkg/errors"
)

func (d *DB) ListBlocklistWords(ctx context.Context) ([]string, error) {
	// Lexicographic order keeps the first-match semantics of the
	// blocklist scan deterministic.
	rows, err := d.db.QueryContext(ctx, "SELECT word FROM blocklist ORDER BY word")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list blocklist words")
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (d *DB) AddBlocklistWord(ctx context.Context, word string) error {
	if _, err := d.db.ExecContext(ctx, "INSERT OR IGNORE INTO blocklist (word) VALUES (?)", word); err != nil {
		return errors.Wrap(err, "failed to add blocklist word")
	}
	return nil
}

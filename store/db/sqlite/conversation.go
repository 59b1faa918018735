package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

func (d *DB) CreateConversationStop(ctx context.Context, rootURI string) error {
	if _, err := d.db.ExecContext(ctx, "INSERT OR IGNORE INTO conversation_stops (root_uri) VALUES (?)", rootURI); err != nil {
		return errors.Wrap(err, "failed to create conversation stop")
	}
	return nil
}

func (d *DB) HasConversationStop(ctx context.Context, rootURI string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, "SELECT 1 FROM conversation_stops WHERE root_uri = ?", rootURI).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to check conversation stop")
	}
	return true, nil
}

func (d *DB) GetReplyStreak(ctx context.Context, rootURI string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT streak_count FROM reply_streaks WHERE root_uri = ?", rootURI).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get reply streak")
	}
	return count, nil
}

func (d *DB) IncrementReplyStreak(ctx context.Context, rootURI string) error {
	stmt := `
		INSERT INTO reply_streaks (root_uri, streak_count)
		VALUES (?, 1)
		ON CONFLICT (root_uri) DO UPDATE SET
			streak_count = streak_count + 1,
			created_ts = strftime('%s', 'now')
	`
	if _, err := d.db.ExecContext(ctx, stmt, rootURI); err != nil {
		return errors.Wrap(err, "failed to increment reply streak")
	}
	return nil
}

func (d *DB) ResetReplyStreak(ctx context.Context, rootURI string) error {
	stmt := `
		INSERT INTO reply_streaks (root_uri, streak_count)
		VALUES (?, 0)
		ON CONFLICT (root_uri) DO UPDATE SET
			streak_count = 0,
			created_ts = strftime('%s', 'now')
	`
	if _, err := d.db.ExecContext(ctx, stmt, rootURI); err != nil {
		return errors.Wrap(err, "failed to reset reply streak")
	}
	return nil
}

package sqlite

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/4uffin/aura-bot/store"
)

func (d *DB) UpsertPostHistory(ctx context.Context, record *store.PostHistoryRecord) error {
	stmt := `
		INSERT INTO post_history (user_handle, post_text, post_uri, thread_context)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (post_uri) DO UPDATE SET
			user_handle = excluded.user_handle,
			post_text = excluded.post_text,
			thread_context = excluded.thread_context,
			created_ts = strftime('%s', 'now')
	`
	if _, err := d.db.ExecContext(ctx, stmt, record.Owner, record.Text, record.URI, record.ThreadContext); err != nil {
		return errors.Wrap(err, "failed to upsert post history")
	}
	return nil
}

func (d *DB) ListPostHistory(ctx context.Context, find *store.FindPostHistory) ([]*store.PostHistoryRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_handle, post_text, post_uri, IFNULL(thread_context, ''), created_ts
		FROM post_history
		WHERE user_handle = ?
		ORDER BY created_ts DESC LIMIT ?
	`, find.Owner, find.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list post history")
	}
	defer rows.Close()

	var records []*store.PostHistoryRecord
	for rows.Next() {
		var record store.PostHistoryRecord
		if err := rows.Scan(&record.ID, &record.Owner, &record.Text, &record.URI, &record.ThreadContext, &record.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan post history record")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate post history")
	}
	return records, nil
}

func (d *DB) ListRecentActiveOwners(ctx context.Context, since time.Time, limit int) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT user_handle FROM post_history
		WHERE created_ts > ?
		GROUP BY user_handle
		ORDER BY MAX(created_ts) DESC LIMIT ?
	`, since.Unix(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent active owners")
	}
	defer rows.Close()

	return scanStrings(rows)
}

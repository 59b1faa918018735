package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/4uffin/aura-bot/store"
)

func (d *DB) UpsertUserSummary(ctx context.Context, upsert *store.UpsertUserSummary) error {
	stmt := `
		INSERT INTO summarized_knowledge (summary_type, user_handle, summary_content, tags)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (summary_type, user_handle) DO UPDATE SET
			summary_content = excluded.summary_content,
			tags = excluded.tags,
			updated_ts = strftime('%s', 'now')
	`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.SummaryType, upsert.Owner, upsert.Content, upsert.Tags); err != nil {
		return errors.Wrap(err, "failed to upsert user summary")
	}
	return nil
}

func (d *DB) ListUserSummaries(ctx context.Context, find *store.FindUserSummary) ([]*store.UserSummary, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.SummaryType != "" {
		where, args = append(where, "summary_type = ?"), append(args, find.SummaryType)
	}
	if find.Owner != "" {
		where, args = append(where, "user_handle = ?"), append(args, find.Owner)
	}

	query := `
		SELECT id, summary_type, IFNULL(user_handle, ''), summary_content, IFNULL(tags, ''), created_ts, updated_ts
		FROM summarized_knowledge
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user summaries")
	}
	defer rows.Close()

	var summaries []*store.UserSummary
	for rows.Next() {
		var summary store.UserSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.SummaryType,
			&summary.Owner,
			&summary.Content,
			&summary.Tags,
			&summary.CreatedTs,
			&summary.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user summary")
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate user summaries")
	}
	return summaries, nil
}

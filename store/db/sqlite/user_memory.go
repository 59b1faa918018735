package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/4uffin/aura-bot/store"
)

func (d *DB) UpsertUserMemory(ctx context.Context, upsert *store.UpsertUserMemory) error {
	stmt := `
		INSERT INTO user_memories (user_handle, memory_key, memory_value)
		VALUES (?, ?, ?)
		ON CONFLICT (user_handle, memory_key) DO UPDATE SET
			memory_value = excluded.memory_value,
			created_ts = strftime('%s', 'now')
	`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Owner, upsert.Key, upsert.Value); err != nil {
		return errors.Wrap(err, "failed to upsert user memory")
	}
	return nil
}

func (d *DB) ListUserMemories(ctx context.Context, owner string) ([]*store.UserMemory, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_handle, memory_key, memory_value, created_ts
		FROM user_memories
		WHERE user_handle = ?
		ORDER BY created_ts DESC
	`, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user memories")
	}
	defer rows.Close()

	var memories []*store.UserMemory
	for rows.Next() {
		var memory store.UserMemory
		if err := rows.Scan(&memory.ID, &memory.Owner, &memory.Key, &memory.Value, &memory.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan user memory")
		}
		memories = append(memories, &memory)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate user memories")
	}
	return memories, nil
}

func (d *DB) ListMemoryOwners(ctx context.Context, limit int) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT DISTINCT user_handle FROM user_memories ORDER BY user_handle LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memory owners")
	}
	defer rows.Close()

	return scanStrings(rows)
}

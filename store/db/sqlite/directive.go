package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

func (d *DB) GetLatestDirective(ctx context.Context) (string, error) {
	var text string
	err := d.db.QueryRowContext(ctx, `
		SELECT directive_text FROM response_directives
		ORDER BY created_ts DESC, id DESC LIMIT 1
	`).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get latest directive")
	}
	return text, nil
}

func (d *DB) CreateDirective(ctx context.Context, text string) error {
	if _, err := d.db.ExecContext(ctx, "INSERT INTO response_directives (directive_text) VALUES (?)", text); err != nil {
		return errors.Wrap(err, "failed to create directive")
	}
	return nil
}

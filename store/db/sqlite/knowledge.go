package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/4uffin/aura-bot/store"
)

func (d *DB) CreateKnowledge(ctx context.Context, create *store.KnowledgeItem) error {
	stmt := `INSERT INTO general_knowledge (topic, information, tags) VALUES (?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt, create.Topic, create.Body, create.Tags); err != nil {
		return errors.Wrap(err, "failed to create knowledge")
	}
	return nil
}

func (d *DB) KnowledgeExists(ctx context.Context, body string, prefixLen int) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM general_knowledge WHERE information = ?", body,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "failed to check knowledge existence")
	}
	if count > 0 {
		return true, nil
	}

	// Near-duplicate check on the body prefix. Escape LIKE wildcards so
	// a body containing % or _ cannot over-match.
	prefix := body
	if len(prefix) > prefixLen {
		prefix = prefix[:prefixLen]
	}
	prefix = escapeLike(prefix)
	err = d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM general_knowledge WHERE information LIKE ? ESCAPE '\'`, prefix+"%",
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "failed to check knowledge prefix")
	}
	return count > 0, nil
}

func (d *DB) SearchKnowledge(ctx context.Context, find *store.FindKnowledge) ([]*store.KnowledgeItem, error) {
	if len(find.Terms) == 0 {
		return nil, nil
	}

	conditions, args := []string{}, []any{}
	for _, term := range find.Terms {
		pattern := "%" + escapeLike(term) + "%"
		conditions = append(conditions,
			`topic LIKE ? ESCAPE '\'`,
			`information LIKE ? ESCAPE '\'`,
			`tags LIKE ? ESCAPE '\'`,
		)
		args = append(args, pattern, pattern, pattern)
	}

	query := `
		SELECT DISTINCT id, topic, information, IFNULL(tags, ''), created_ts
		FROM general_knowledge
		WHERE ` + strings.Join(conditions, " OR ") + `
		ORDER BY created_ts DESC LIMIT ?`
	args = append(args, find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		// A store predating the tags column still answers topic/body
		// searches.
		if strings.Contains(err.Error(), "no such column: tags") {
			return d.searchKnowledgeLegacy(ctx, find)
		}
		return nil, errors.Wrap(err, "failed to search knowledge")
	}
	defer rows.Close()

	return scanKnowledge(rows)
}

func (d *DB) searchKnowledgeLegacy(ctx context.Context, find *store.FindKnowledge) ([]*store.KnowledgeItem, error) {
	conditions, args := []string{}, []any{}
	for _, term := range find.Terms {
		pattern := "%" + escapeLike(term) + "%"
		conditions = append(conditions, `topic LIKE ? ESCAPE '\'`, `information LIKE ? ESCAPE '\'`)
		args = append(args, pattern, pattern)
	}

	query := `
		SELECT DISTINCT id, topic, information, '' AS tags, created_ts
		FROM general_knowledge
		WHERE ` + strings.Join(conditions, " OR ") + `
		ORDER BY created_ts DESC LIMIT ?`
	args = append(args, find.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search knowledge (legacy schema)")
	}
	defer rows.Close()

	return scanKnowledge(rows)
}

func scanKnowledge(rows *sql.Rows) ([]*store.KnowledgeItem, error) {
	var items []*store.KnowledgeItem
	for rows.Next() {
		var item store.KnowledgeItem
		if err := rows.Scan(&item.ID, &item.Topic, &item.Body, &item.Tags, &item.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge item")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate knowledge items")
	}
	return items, nil
}

func (d *DB) ListKnowledgeTopics(ctx context.Context, limit int) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT DISTINCT topic FROM general_knowledge ORDER BY topic LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list knowledge topics")
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (d *DB) ListKnowledgeTags(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT DISTINCT tags FROM general_knowledge WHERE tags IS NOT NULL AND tags != ''
	`)
	if err != nil {
		if strings.Contains(err.Error(), "no such column: tags") {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list knowledge tags")
	}
	defer rows.Close()

	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, errors.Wrap(err, "failed to scan string column")
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate string rows")
	}
	return values, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

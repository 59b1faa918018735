package store

import "context"

// Directive is a standing behavioral instruction merged into the
// agent's persona prompt. Directives are append-only; the latest
// record by timestamp is the authoritative one.
type Directive struct {
	ID        int64
	Text      string
	CreatedTs int64
}

// GetLatestDirective returns the text of the most recent directive,
// or the empty string when none has been saved.
func (s *Store) GetLatestDirective(ctx context.Context) (string, error) {
	return s.driver.GetLatestDirective(ctx)
}

// SaveDirective appends a new directive. Existing directives are
// never overwritten; merging old and new instructions happens through
// the reasoning service before the combined text is saved here.
func (s *Store) SaveDirective(ctx context.Context, text string) error {
	return s.driver.CreateDirective(ctx, text)
}

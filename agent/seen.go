package agent

import (
	"bufio"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// SeenLog is the durable dedup set for handled notifications: an
// append-only, newline-delimited file of post URIs, mirrored in
// memory. The in-memory set is advisory; the file is the source of
// truth and is re-read only at startup.
type SeenLog struct {
	path string

	mu   sync.Mutex
	uris map[string]struct{}
	file *os.File
}

// OpenSeenLog loads the log at path into memory, creating the file if
// absent, and keeps it open for appends.
func OpenSeenLog(path string) (*SeenLog, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open seen log %s", path)
	}

	uris := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			uris[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "failed to read seen log %s", path)
	}

	return &SeenLog{path: path, uris: uris, file: file}, nil
}

// Contains reports whether the URI was already processed.
func (s *SeenLog) Contains(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.uris[uri]
	return ok
}

// Add records the URI as processed, appending it to the file before
// updating the in-memory set. A URI already present is a no-op.
func (s *SeenLog) Add(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uris[uri]; ok {
		return nil
	}
	if _, err := s.file.WriteString(uri + "\n"); err != nil {
		return errors.Wrapf(err, "failed to append to seen log %s", s.path)
	}
	s.uris[uri] = struct{}{}
	return nil
}

// Len returns the number of recorded URIs.
func (s *SeenLog) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uris)
}

func (s *SeenLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

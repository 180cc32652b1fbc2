// Package skiplist records repositories that previously returned a
// permission-denied or not-found response, so later runs do not query them
// again. The file is append-only and is read once at startup.
package skiplist

import (
	"fmt"
	"os"
	"strings"
)

// SkipList is the in-memory view of the durable skip list file.
type SkipList struct {
	path    string
	entries map[string]bool
}

// Load reads the skip list at path. A missing file yields an empty list.
func Load(path string) (*SkipList, error) {
	s := &SkipList{
		path:    path,
		entries: make(map[string]bool),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read skip list %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		repo := strings.TrimSpace(line)
		if repo == "" {
			continue
		}
		s.entries[repo] = true
	}
	return s, nil
}

// Contains reports whether the repository is recorded in the skip list.
func (s *SkipList) Contains(repo string) bool {
	return s.entries[repo]
}

// Add appends the repository to the file and the in-memory set. The file is
// only ever appended to, never rewritten. Adding a repository twice is a
// no-op.
func (s *SkipList) Add(repo string) error {
	if s.entries[repo] {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open skip list %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(repo + "\n"); err != nil {
		return fmt.Errorf("failed to append to skip list %s: %w", s.path, err)
	}

	s.entries[repo] = true
	return nil
}

// Len returns the number of recorded repositories.
func (s *SkipList) Len() int {
	return len(s.entries)
}

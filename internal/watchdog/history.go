package watchdog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// History is the de-dup store of already-processed article links. The
// whole file is rewritten after each new signal so a crash mid-scan
// loses at most the in-flight entry.
type History struct {
	path  string
	links []string
	seen  map[string]bool
}

// LoadHistory reads the link list from path. A missing file yields an
// empty history.
func LoadHistory(path string) (*History, error) {
	h := &History{path: path, seen: map[string]bool{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if err := json.Unmarshal(data, &h.links); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	for _, link := range h.links {
		h.seen[link] = true
	}
	return h, nil
}

// Seen reports whether the link was already processed.
func (h *History) Seen(link string) bool {
	return h.seen[link]
}

// Add records a processed link and persists the full list.
func (h *History) Add(link string) error {
	if h.seen[link] {
		return nil
	}
	h.links = append(h.links, link)
	h.seen[link] = true

	data, err := json.Marshal(h.links)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Len returns the number of recorded links.
func (h *History) Len() int {
	return len(h.links)
}

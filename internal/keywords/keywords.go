// Package keywords loads the leaderboard-name keyword list Discovery
// scans for, from a plain text file, and supports a last-writer-wins
// hot reload without restarting the process.
package keywords

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Cache holds the current keyword list, safe for concurrent reads
// from many site workers while Reload swaps it out.
type Cache struct {
	mu   sync.RWMutex
	path string
	list []string
}

// Load reads path (one lowercase keyword per line; blank lines and
// lines starting with '#' are ignored) once at startup.
func Load(path string) (*Cache, error) {
	c := &Cache{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads path and atomically replaces the keyword list.
// Concurrent callers racing Reload see whichever read finished last
// (last-writer-wins), since there is no ordering requirement between
// independent reload triggers.
func (c *Cache) Reload() error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("keywords: open %s: %w", c.path, err)
	}
	defer f.Close()

	var list []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("keywords: read %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.list = list
	c.mu.Unlock()
	return nil
}

// List returns a snapshot of the current keyword list.
func (c *Cache) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.list))
	copy(out, c.list)
	return out
}

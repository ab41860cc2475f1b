// Package archive stores raw fetched page bodies for offline re-extraction.
package archive

import (
	"context"
	"fmt"
	"sync"
)

// MemoryArchive keeps page bodies in memory for development and tests.
type MemoryArchive struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{data: make(map[string][]byte)}
}

// Put stores the body under path and returns a pseudo URI.
func (a *MemoryArchive) Put(_ context.Context, path string, _ string, data []byte) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[path] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s", path), nil
}

// Get returns a stored body, or false when the path is unknown.
func (a *MemoryArchive) Get(path string) ([]byte, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	body, ok := a.data[path]
	return body, ok
}

// Len returns the number of stored objects.
func (a *MemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data)
}

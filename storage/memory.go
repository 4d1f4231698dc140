package storage

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStore keeps files in a map. Used by tests and local development; it
// mimics the S3 store's URL scheme so slot references look the same either way.
type MemoryStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (m *MemoryStore) urlFor(key string) string {
	return "memory://" + key
}

func (m *MemoryStore) keyFor(fileURL string) string {
	return strings.TrimPrefix(fileURL, "memory://")
}

func (m *MemoryStore) Save(key string, file io.Reader) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data
	return m.urlFor(key), nil
}

func (m *MemoryStore) Open(fileURL string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[m.keyFor(fileURL)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", fileURL)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(fileURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, m.keyFor(fileURL))
	return nil
}

func (m *MemoryStore) Exists(fileURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[m.keyFor(fileURL)]
	return ok, nil
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no object exists at the path.
var ErrNotFound = errors.New("Document not found")

// Store is opaque blob storage keyed by path. One Store serves one bucket.
type Store interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// Upload is a file received from a client, ready to be stored.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// BidDocumentPath namespaces a bid attachment by vendor and bid: vendor/bid/millis-name.
func BidDocumentPath(vendorID, bidID uuid.UUID, name string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s", vendorID, bidID, at.UnixMilli(), SanitizeName(name))
}

// RFPDocumentPath namespaces an RFP attachment by RFP: rfp/millis-name.
func RFPDocumentPath(rfpID uuid.UUID, name string, at time.Time) string {
	return fmt.Sprintf("%s/%d-%s", rfpID, at.UnixMilli(), SanitizeName(name))
}

// SanitizeName keeps the base name and replaces characters storage backends reject in keys.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, name)
}

// MemoryStore keeps objects in process memory. Used by the "memory" driver for local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[path] = cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

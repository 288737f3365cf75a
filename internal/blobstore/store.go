// Package blobstore holds encoded images in memory behind short-lived handles.
package blobstore

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PathPrefix is the URL path under which blobs are served.
const PathPrefix = "/blob/"

// ErrNotFound is returned for unknown or revoked handles.
var ErrNotFound = errors.New("blob not found")

// Blob is one stored binary resource.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
	Created     time.Time
}

// Store maps opaque IDs to blobs. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

// New returns an empty Store.
func New() *Store {
	return &Store{blobs: make(map[string]Blob)}
}

// Put stores data and returns its handle.
func (s *Store) Put(name, contentType string, data []byte) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.blobs[id] = Blob{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		Created:     time.Now(),
	}
	s.mu.Unlock()
	return id
}

// Get returns the blob behind id, or ErrNotFound.
func (s *Store) Get(id string) (Blob, error) {
	s.mu.RLock()
	b, ok := s.blobs[id]
	s.mu.RUnlock()
	if !ok {
		return Blob{}, ErrNotFound
	}
	return b, nil
}

// Revoke releases the blob behind id. Unknown ids are ignored.
func (s *Store) Revoke(id string) {
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
}

// Len reports how many blobs are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// URL returns the page-relative path serving id.
func URL(id string) string {
	return PathPrefix + id
}

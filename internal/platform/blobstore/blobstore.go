// Package blobstore stores uploaded document binaries. Documents keep only
// the object key; the bytes live here.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrBlobNotFound = errors.New("blob not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// BlobStore is implemented by MinioStore and InMemoryBlobStore.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, *ObjectInfo, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds the key for a user's document: users/<owner>/<uuid>.<ext>.
func ObjectKey(ownerID uuid.UUID, fileName string) string {
	ext := ""
	if i := strings.LastIndexByte(fileName, '.'); i >= 0 && i < len(fileName)-1 {
		ext = "." + strings.ToLower(fileName[i+1:])
	}
	return fmt.Sprintf("users/%s/%s%s", ownerID, uuid.NewString(), ext)
}

// ContentHash returns the hex SHA-256 of data, used for duplicate detection.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type storedBlob struct {
	info ObjectInfo
	data []byte
}

// InMemoryBlobStore is a thread-safe BlobStore for tests and local development.
type InMemoryBlobStore struct {
	mu      sync.RWMutex
	blobs   map[string]*storedBlob
	baseURL string
	now     func() time.Time
}

// NewInMemoryBlobStore returns a store whose presigned URLs point at baseURL.
func NewInMemoryBlobStore(baseURL string) *InMemoryBlobStore {
	return &InMemoryBlobStore{
		blobs:   make(map[string]*storedBlob),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (s *InMemoryBlobStore) Put(_ context.Context, key, contentType string, data []byte) error {
	if key == "" {
		return fmt.Errorf("blob key is required")
	}
	buf := bytes.Clone(data)

	s.mu.Lock()
	s.blobs[key] = &storedBlob{
		info: ObjectInfo{Key: key, ContentType: contentType, Size: int64(len(buf))},
		data: buf,
	}
	s.mu.Unlock()
	return nil
}

func (s *InMemoryBlobStore) Get(_ context.Context, key string) ([]byte, *ObjectInfo, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	info := blob.info
	return bytes.Clone(blob.data), &info, nil
}

func (s *InMemoryBlobStore) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrBlobNotFound
	}
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(s.now().Add(ttl).Unix(), 10))
	return s.baseURL + "/" + key + "?" + q.Encode(), nil
}

// Delete is idempotent.
func (s *InMemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored objects.
func (s *InMemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

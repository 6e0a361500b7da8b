package blobstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInMemoryBlobStore_PutGet(t *testing.T) {
	s := NewInMemoryBlobStore("http://localhost:8000/files")
	ctx := context.Background()

	data := []byte("%PDF-1.4 lab report")
	if err := s.Put(ctx, "users/a/b.pdf", "application/pdf", data); err != nil {
		t.Fatalf("put: %v", err)
	}
	data[0] = 'X'

	got, info, err := s.Get(ctx, "users/a/b.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "%PDF-1.4 lab report" {
		t.Errorf("stored bytes changed after put: %q", got)
	}
	if info.ContentType != "application/pdf" || info.Size != int64(len(got)) {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestInMemoryBlobStore_NotFound(t *testing.T) {
	s := NewInMemoryBlobStore("http://x")
	ctx := context.Background()

	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound from Get, got %v", err)
	}
	if _, err := s.PresignedURL(ctx, "missing", time.Minute); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound from PresignedURL, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

func TestInMemoryBlobStore_PresignedURL(t *testing.T) {
	s := NewInMemoryBlobStore("http://localhost:8000/files/")
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	_ = s.Put(ctx, "k.png", "image/png", []byte{1})
	u, err := s.PresignedURL(ctx, "k.png", time.Hour)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if u != "http://localhost:8000/files/k.png?expires=1700003600" {
		t.Errorf("unexpected url %s", u)
	}
}

func TestInMemoryBlobStore_Delete(t *testing.T) {
	s := NewInMemoryBlobStore("http://x")
	ctx := context.Background()
	_ = s.Put(ctx, "a", "text/plain", []byte("a"))
	_ = s.Put(ctx, "b", "text/plain", []byte("b"))

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 object left, got %d", s.Len())
	}
}

func TestObjectKey(t *testing.T) {
	owner := uuid.New()
	key := ObjectKey(owner, "Blood Test.PDF")
	if !strings.HasPrefix(key, "users/"+owner.String()+"/") {
		t.Errorf("expected owner prefix, got %s", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Errorf("expected lower-cased extension, got %s", key)
	}
	if ObjectKey(owner, "a.pdf") == ObjectKey(owner, "a.pdf") {
		t.Error("expected unique keys")
	}
	if strings.HasSuffix(ObjectKey(owner, "noext."), ".") {
		t.Error("expected no trailing dot")
	}
}

func TestContentHash(t *testing.T) {
	if ContentHash([]byte("abc")) != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Error("unexpected sha256")
	}
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ObjectStore is the slice of storage.Storage used by exports.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// ExportResult describes an uploaded snapshot.
type ExportResult struct {
	Bucket string
	Key    string
	Count  int
}

// ExportService writes a JSON snapshot of all users to object storage.
// The snapshot uses the public user shape, so hashes are never exported.
type ExportService struct {
	users *UserService
	store ObjectStore
	now   func() time.Time
}

func NewExportService(users *UserService, store ObjectStore) *ExportService {
	return &ExportService{users: users, store: store, now: time.Now}
}

// Export uploads the snapshot under key, generating one when key is empty.
func (s *ExportService) Export(ctx context.Context, key string) (ExportResult, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("list users: %w", err)
	}

	data, err := json.Marshal(users)
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode users: %w", err)
	}

	if key == "" {
		key = fmt.Sprintf("exports/users-%s-%s.json", s.now().UTC().Format("20060102T150405Z"), uuid.NewString())
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		return ExportResult{}, fmt.Errorf("ensure bucket: %w", err)
	}
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return ExportResult{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return ExportResult{Bucket: s.store.Bucket(), Key: key, Count: len(users)}, nil
}

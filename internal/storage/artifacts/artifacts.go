// Package artifacts stores predicted structure files in the object store.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const (
	structureContentType = "chemical/x-pdb"
	defaultPresignTTL    = 10 * time.Minute
)

type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(client *minio.Client, bucket string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &Store{client: client, bucket: bucket}, nil
}

// StructureKey is the object key layout for a run's predicted structure.
func StructureKey(runID string) string {
	return fmt.Sprintf("runs/%s/structure.pdb", runID)
}

// PutStructure uploads the PDB content and returns its object key.
func (s *Store) PutStructure(ctx context.Context, runID, pdbContent string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("artifact store not initialized")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	if pdbContent == "" {
		return "", fmt.Errorf("structure content is empty")
	}

	key := StructureKey(runID)
	opts := minio.PutObjectOptions{ContentType: structureContentType}
	_, err := s.client.PutObject(ctx, s.bucket, key, strings.NewReader(pdbContent), int64(len(pdbContent)), opts)
	if err != nil {
		return "", fmt.Errorf("put structure: %w", err)
	}
	return key, nil
}

// GetStructure streams the stored PDB content for a run.
func (s *Store) GetStructure(ctx context.Context, runID string) (io.ReadCloser, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("artifact store not initialized")
	}
	key := StructureKey(strings.TrimSpace(runID))

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get structure: %w", err)
	}
	// GetObject is lazy; surface missing objects now instead of at read time.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("stat structure: %w", err)
	}
	return obj, nil
}

// PresignGetStructure returns a short-lived download URL for a run's
// structure.
func (s *Store) PresignGetStructure(ctx context.Context, runID string, ttl time.Duration) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("artifact store not initialized")
	}
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	key := StructureKey(strings.TrimSpace(runID))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign structure: %w", err)
	}
	return u.String(), nil
}

package artifacts

import (
	"context"
	"fmt"
	"io"
	"strings"

	"resume-builder/internal/shared/storage/object"
)

const markupContentType = "text/html; charset=utf-8"

// MarkupKey returns the deterministic storage key of a version's markup.
func MarkupKey(userID int64, resumeID string, version int) string {
	return fmt.Sprintf("%d/%s/html/resume_html_%d_v%d.html", userID, resumeID, userID, version)
}

// Store persists generated markup under per-user/resume/version keys.
type Store struct {
	objects object.ObjectStore
}

// New wraps an object store.
func New(objects object.ObjectStore) *Store {
	return &Store{objects: objects}
}

// SaveMarkup writes markup for the version and returns its storage key.
func (s *Store) SaveMarkup(ctx context.Context, userID int64, resumeID string, version int, markup string) (string, error) {
	if strings.TrimSpace(resumeID) == "" || version < 1 {
		return "", fmt.Errorf("save markup: %w", object.ErrInvalidKey)
	}
	key := MarkupKey(userID, resumeID, version)
	if _, err := s.objects.Put(ctx, key, markupContentType, strings.NewReader(markup)); err != nil {
		return "", fmt.Errorf("save markup %s: %w", key, err)
	}
	return key, nil
}

// OpenMarkup opens a stored artifact by key.
func (s *Store) OpenMarkup(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.objects.Open(ctx, key)
}

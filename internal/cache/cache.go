package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrMiss is returned when a key is absent or has expired.
var ErrMiss = errors.New("cache miss")

// Turn is one message of a user's conversational transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Cache is the volatile store shared by all users: per-user session
// transcripts and the generated markup per (user, resume, version).
type Cache interface {
	GetMarkup(ctx context.Context, userID int64, resumeID string, version int) (string, error)
	SetMarkup(ctx context.Context, userID int64, resumeID string, version int, markup string) error
	DeleteMarkup(ctx context.Context, userID int64, resumeID string, version int) error
	AppendSession(ctx context.Context, userID int64, turns ...Turn) error
	Session(ctx context.Context, userID int64, limit int) ([]Turn, error)
	// ClearUser removes the user's transcript and every cached markup entry.
	ClearUser(ctx context.Context, userID int64) error
}

// MarkupKey is the cache key for the generated markup of one resume version.
// Keys stay under the user's prefix so ClearUser sweeps every resume.
func MarkupKey(userID int64, resumeID string, version int) string {
	return fmt.Sprintf("resume:html:%d:%s:%d", userID, resumeID, version)
}

func markupPattern(userID int64) string {
	return fmt.Sprintf("resume:html:%d:*", userID)
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("agents:session:resume_session:%d", userID)
}

func sessionMessagesKey(userID int64) string {
	return sessionKey(userID) + ":messages"
}

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryMarkupExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute, time.Hour)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.SetMarkup(ctx, 3, "r1", 1, "<p>"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := c.GetMarkup(ctx, 3, "r1", 1); err != nil || got != "<p>" {
		t.Fatalf("get = %q, %v", got, err)
	}
	now = now.Add(time.Minute)
	if _, err := c.GetMarkup(ctx, 3, "r1", 1); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestMemoryMarkupIsScopedToResume(t *testing.T) {
	c := NewMemory(0, 0)
	ctx := context.Background()
	_ = c.SetMarkup(ctx, 3, "a", 1, "<p>a</p>")
	_ = c.SetMarkup(ctx, 3, "b", 1, "<p>b</p>")

	if got, _ := c.GetMarkup(ctx, 3, "a", 1); got != "<p>a</p>" {
		t.Fatalf("expected resume a markup, got %q", got)
	}
	if err := c.DeleteMarkup(ctx, 3, "b", 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := c.GetMarkup(ctx, 3, "a", 1); got != "<p>a</p>" {
		t.Fatalf("expected resume a untouched, got %q", got)
	}
}

func TestMemorySessionLimitAndClear(t *testing.T) {
	c := NewMemory(0, 0)
	ctx := context.Background()
	_ = c.AppendSession(ctx, 9, Turn{Role: "user", Content: "a"}, Turn{Role: "assistant", Content: "b"})
	_ = c.SetMarkup(ctx, 9, "r1", 1, "x")
	_ = c.SetMarkup(ctx, 90, "r1", 1, "y")

	turns, _ := c.Session(ctx, 9, 1)
	if len(turns) != 1 || turns[0].Content != "b" {
		t.Fatalf("unexpected turns %+v", turns)
	}

	if err := c.ClearUser(ctx, 9); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if turns, _ := c.Session(ctx, 9, 0); len(turns) != 0 {
		t.Fatalf("expected empty session, got %+v", turns)
	}
	if _, err := c.GetMarkup(ctx, 9, "r1", 1); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected markup cleared, got %v", err)
	}
	if got, _ := c.GetMarkup(ctx, 90, "r1", 1); got != "y" {
		t.Fatalf("expected user 90 untouched, got %q", got)
	}
}

func TestMemoryHonorsCanceledContext(t *testing.T) {
	c := NewMemory(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.SetMarkup(ctx, 1, "r1", 1, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

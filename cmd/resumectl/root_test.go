package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := outWriter
	outWriter = &buf
	t.Cleanup(func() { outWriter = prev })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func devEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "dev")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("EVENTS_SQS_QUEUE_URL", "")
	t.Setenv("LOCAL_STORE_DIR", t.TempDir())
}

func TestUsersCreatePrintsUser(t *testing.T) {
	devEnv(t)

	out, err := runCLI(t, "users", "create", "--id", "77", "--name", "Ivan")
	if err != nil {
		t.Fatalf("users create: %v", err)
	}
	var user struct {
		TelegramID int64  `json:"telegramId"`
		Name       string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &user); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if user.TelegramID != 77 || user.Name != "Ivan" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestUsersGetRejectsBadID(t *testing.T) {
	devEnv(t)
	if _, err := runCLI(t, "users", "get", "abc"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestInstructionsCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("creator: build it\neditor: change it\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(bad, []byte("creator: build it\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := runCLI(t, "instructions", good)
	if err != nil {
		t.Fatalf("instructions: %v", err)
	}
	var counts map[string]int
	if err := json.Unmarshal([]byte(out), &counts); err != nil || counts["creator_chars"] != len("build it") {
		t.Fatalf("unexpected output %q, %v", out, err)
	}

	if _, err := runCLI(t, "instructions", bad); err == nil {
		t.Fatalf("expected missing editor to fail")
	}
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resume-builder/internal/llm"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	oldURL := apiURL
	apiURL = server.URL
	t.Cleanup(func() {
		apiURL = oldURL
		server.Close()
	})
}

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5.1-chat-latest", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func TestInvokeSendsInstructionsHistoryAndInput(t *testing.T) {
	var body chatRequest
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"html_code\":\"<p>\"} "}}]}`))
	})

	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Invoke(context.Background(), llm.Invocation{
		Model:        "gpt-5",
		Instructions: "be helpful",
		Input:        `{"name":"Ivan"}`,
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "earlier"},
			{Role: llm.RoleAssistant, Content: "reply"},
		},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != `{"html_code":"<p>"}` {
		t.Fatalf("unexpected output %q", out)
	}

	if body.Model != "gpt-5" {
		t.Fatalf("unexpected model %q", body.Model)
	}
	if body.Temperature != nil {
		t.Fatalf("expected temperature omitted for gpt-5")
	}
	roles := make([]string, 0, len(body.Messages))
	for _, m := range body.Messages {
		roles = append(roles, m.Role)
	}
	if strings.Join(roles, ",") != "system,user,assistant,user" {
		t.Fatalf("unexpected roles %v", roles)
	}
	if body.Messages[3].Content != `{"name":"Ivan"}` {
		t.Fatalf("expected input last, got %q", body.Messages[3].Content)
	}
	if body.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format")
	}
}

func TestInvokeSetsTemperatureForOlderModels(t *testing.T) {
	var raw map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	client, _ := NewClient("k")
	if _, err := client.Invoke(context.Background(), llm.Invocation{Model: "gpt-4o", Input: "x"}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if _, ok := raw["temperature"]; !ok {
		t.Fatalf("expected temperature for gpt-4o")
	}
}

func TestInvokeMapsRateLimit(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"requests","code":"rate_limit_exceeded"}}`))
	})

	client, _ := NewClient("k")
	_, err := client.Invoke(context.Background(), llm.Invocation{Model: "gpt-5", Input: "x"})
	if !errors.Is(err, llm.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestInvokeSurfacesUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "error payload", status: http.StatusBadRequest, body: `{"error":{"message":"bad","type":"invalid_request_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			withServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			client, _ := NewClient("k")
			_, err := client.Invoke(context.Background(), llm.Invocation{Model: "gpt-5", Input: "x"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if errors.Is(err, llm.ErrRateLimited) {
				t.Fatalf("did not expect rate limit classification: %v", err)
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

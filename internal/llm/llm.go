package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrRateLimited is returned by providers when the upstream rejects a call for quota reasons.
	ErrRateLimited = errors.New("llm rate limited")
	// ErrUnknownProvider is returned when a model id names a provider that is not registered.
	ErrUnknownProvider = errors.New("llm provider not configured")
)

// Message is one prior turn passed to the provider as context.
type Message struct {
	Role    string
	Content string
}

// Invocation describes a single model call.
type Invocation struct {
	Model        string
	Instructions string
	Input        string
	History      []Message
}

// Provider invokes a language model and returns its raw text output.
type Provider interface {
	Invoke(ctx context.Context, inv Invocation) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, inv Invocation) (string, error)

func (f ProviderFunc) Invoke(ctx context.Context, inv Invocation) (string, error) {
	return f(ctx, inv)
}

// SplitModel separates an optional "provider:" prefix from a model id.
func SplitModel(id, defaultProvider string) (provider, model string) {
	id = strings.TrimSpace(id)
	if name, rest, ok := strings.Cut(id, ":"); ok && name != "" && rest != "" {
		return strings.ToLower(name), rest
	}
	return strings.ToLower(strings.TrimSpace(defaultProvider)), id
}

// Router dispatches invocations to providers by the model id prefix.
type Router struct {
	providers       map[string]Provider
	defaultProvider string
}

// NewRouter builds a router. Model ids without a prefix go to defaultProvider.
func NewRouter(defaultProvider string) *Router {
	return &Router{
		providers:       make(map[string]Provider),
		defaultProvider: strings.ToLower(strings.TrimSpace(defaultProvider)),
	}
}

// Register adds or replaces the provider for name.
func (r *Router) Register(name string, p Provider) {
	r.providers[strings.ToLower(strings.TrimSpace(name))] = p
}

// Invoke routes inv to the provider named by inv.Model, stripping the prefix.
func (r *Router) Invoke(ctx context.Context, inv Invocation) (string, error) {
	provider, model := SplitModel(inv.Model, r.defaultProvider)
	p, ok := r.providers[provider]
	if !ok || p == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	inv.Model = model
	return p.Invoke(ctx, inv)
}

var _ Provider = (*Router)(nil)

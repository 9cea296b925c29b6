package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-builder/internal/llm"
)

const (
	maxOutputTokens = 8192
	requestTimeout  = 120 * time.Second
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := c.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Client implements llm.Provider on the Gemini API. Each invocation opens a
// chat seeded with the caller's history.
type Client struct {
	chats chatCreator
}

// NewClient creates a Gemini client for the Gemini API backend.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	timeout := requestTimeout
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{chats: genaiChats{chats: client.Chats}}, nil
}

func (c *Client) Invoke(ctx context.Context, inv llm.Invocation) (string, error) {
	model := strings.TrimSpace(inv.Model)
	if model == "" {
		return "", errors.New("gemini model is required")
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	if strings.TrimSpace(inv.Instructions) != "" {
		config.SystemInstruction = genai.NewContentFromText(inv.Instructions, genai.RoleUser)
	}

	chat, err := c.chats.Create(ctx, model, config, toHistory(inv.History))
	if err != nil {
		return "", fmt.Errorf("create chat: %w", classify(err))
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: inv.Input})
	if err != nil {
		return "", fmt.Errorf("send message: %w", classify(err))
	}

	output := strings.TrimSpace(responseText(resp))
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}

func toHistory(messages []llm.Message) []*genai.Content {
	if len(messages) == 0 {
		return nil
	}
	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(m.Content, role))
	}
	return history
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
		// First candidate with content wins.
		if builder.Len() > 0 {
			break
		}
	}
	return builder.String()
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %s", llm.ErrRateLimited, apiErr.Error())
	}
	return err
}

var _ llm.Provider = (*Client)(nil)

package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"resume-builder/internal/cache"
	"resume-builder/internal/llm"
	"resume-builder/internal/profiles"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
)

const defaultHistoryLimit = 20

// Artifact is the result of a successful generation.
type Artifact struct {
	Path    string
	Markup  string
	Version int
}

// NewRequest asks for the first version of a resume.
type NewRequest struct {
	UserID   int64
	ResumeID string
	Profile  profiles.Content
	// SourceText is text extracted from an uploaded resume, set for imported resumes.
	SourceText string
}

// EditRequest asks for version Version+1 derived from the cached markup of Version.
type EditRequest struct {
	UserID      int64
	ResumeID    string
	Version     int
	Instruction string
	Profile     profiles.Content
}

// ArtifactWriter persists generated markup and returns its storage key.
type ArtifactWriter interface {
	SaveMarkup(ctx context.Context, userID int64, resumeID string, version int, markup string) (string, error)
}

// Config configures a Gateway.
type Config struct {
	// Models is the ordered fallback chain. Ids may carry a "provider:" prefix.
	Models       []string
	Instructions llm.Instructions
	// HistoryLimit caps the transcript turns passed to the model on edits.
	HistoryLimit int
}

// Gateway drives model calls with ordered fallback and hands results to the
// artifact store and the volatile cache.
type Gateway struct {
	provider     llm.Provider
	cache        cache.Cache
	artifacts    ArtifactWriter
	models       []string
	instructions llm.Instructions
	historyLimit int
	now          func() time.Time
}

// NewGateway validates cfg and builds a Gateway.
func NewGateway(provider llm.Provider, c cache.Cache, artifacts ArtifactWriter, cfg Config) (*Gateway, error) {
	if provider == nil || c == nil || artifacts == nil {
		return nil, errors.New("generation gateway requires provider, cache and artifact store")
	}
	models := make([]string, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return nil, errors.New("generation gateway requires at least one model")
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Gateway{
		provider:     provider,
		cache:        c,
		artifacts:    artifacts,
		models:       models,
		instructions: cfg.Instructions,
		historyLimit: limit,
		now:          time.Now,
	}, nil
}

// GenerateNew produces version 1 of a resume. The user's previous session
// and cached markup are cleared first.
func (g *Gateway) GenerateNew(ctx context.Context, req NewRequest) (Artifact, error) {
	fields := map[string]any{
		"user_id":   req.UserID,
		"resume_id": req.ResumeID,
		"version":   1,
		"mode":      "new",
	}

	if err := g.cache.ClearUser(ctx, req.UserID); err != nil {
		telemetry.Error("generation.session_clear_failed", with(fields, map[string]any{"error": err}))
	}

	input, err := NewInput(req)
	if err != nil {
		return Artifact{}, err
	}

	markup, raw, err := g.runChain(ctx, g.instructions.Creator, input, nil, fields)
	if err != nil {
		return Artifact{}, err
	}
	return g.finish(ctx, req.UserID, req.ResumeID, 1, input, raw, markup, fields)
}

// GenerateEdit produces version req.Version+1 from the cached markup of
// req.Version. A cache miss fails without calling any model.
func (g *Gateway) GenerateEdit(ctx context.Context, req EditRequest) (Artifact, error) {
	next := req.Version + 1
	fields := map[string]any{
		"user_id":   req.UserID,
		"resume_id": req.ResumeID,
		"version":   next,
		"mode":      "edit",
	}

	prior, err := g.cache.GetMarkup(ctx, req.UserID, req.ResumeID, req.Version)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return Artifact{}, fmt.Errorf("%w: resume %s version %d", ErrPriorArtifactMissing, req.ResumeID, req.Version)
		}
		return Artifact{}, fmt.Errorf("%w: %w", ErrPriorArtifactMissing, err)
	}

	history, err := g.history(ctx, req.UserID)
	if err != nil {
		telemetry.Error("generation.session_read_failed", with(fields, map[string]any{"error": err}))
	}

	input, err := editInput(prior, req)
	if err != nil {
		return Artifact{}, err
	}

	markup, raw, err := g.runChain(ctx, g.instructions.Editor, input, history, fields)
	if err != nil {
		return Artifact{}, err
	}
	return g.finish(ctx, req.UserID, req.ResumeID, next, input, raw, markup, fields)
}

// runChain tries each model in order exactly once and returns the first
// usable markup together with the raw model answer.
func (g *Gateway) runChain(ctx context.Context, instructions, input string, history []llm.Message, fields map[string]any) (string, string, error) {
	start := g.now()
	defer func() {
		metrics.ObserveGenerationDurationMs(float64(g.now().Sub(start).Milliseconds()))
	}()

	var lastErr error
	for i, model := range g.models {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		raw, err := g.provider.Invoke(ctx, llm.Invocation{
			Model:        model,
			Instructions: instructions,
			Input:        input,
			History:      history,
		})
		if err == nil {
			var markup string
			if markup, err = ExtractMarkup(raw); err == nil {
				telemetry.Info("generation.model_succeeded", with(fields, map[string]any{
					"model":   model,
					"attempt": i + 1,
				}))
				return markup, raw, nil
			}
		}

		lastErr = err
		telemetry.Error("generation.model_failed", with(fields, map[string]any{
			"model":        model,
			"attempt":      i + 1,
			"rate_limited": errors.Is(err, llm.ErrRateLimited),
			"error":        err,
		}))
		if i < len(g.models)-1 {
			metrics.IncGenerationFallback()
		}
	}

	metrics.IncGenerationFailed()
	return "", "", fmt.Errorf("%w after %d models: %w", ErrUpstreamExhausted, len(g.models), lastErr)
}

// finish writes the artifact first, then refreshes the cache and transcript.
// Cache and transcript failures are logged only.
func (g *Gateway) finish(ctx context.Context, userID int64, resumeID string, version int, input, raw, markup string, fields map[string]any) (Artifact, error) {
	path, err := g.artifacts.SaveMarkup(ctx, userID, resumeID, version, markup)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrArtifactWrite, err)
	}

	if err := g.cache.SetMarkup(ctx, userID, resumeID, version, markup); err != nil {
		telemetry.Error("generation.cache_write_failed", with(fields, map[string]any{"error": err}))
	}
	if err := g.cache.AppendSession(ctx, userID,
		cache.Turn{Role: llm.RoleUser, Content: input},
		cache.Turn{Role: llm.RoleAssistant, Content: raw},
	); err != nil {
		telemetry.Error("generation.session_write_failed", with(fields, map[string]any{"error": err}))
	}

	return Artifact{Path: path, Markup: markup, Version: version}, nil
}

// Forget evicts the cached markup of a version that was generated but not committed.
func (g *Gateway) Forget(ctx context.Context, userID int64, resumeID string, version int) error {
	return g.cache.DeleteMarkup(ctx, userID, resumeID, version)
}

func (g *Gateway) history(ctx context.Context, userID int64) ([]llm.Message, error) {
	turns, err := g.cache.Session(ctx, userID, g.historyLimit)
	if err != nil {
		return nil, err
	}
	history := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		history = append(history, llm.Message{Role: t.Role, Content: t.Content})
	}
	return history, nil
}

// NewInput encodes the creator input for a first version.
func NewInput(req NewRequest) (string, error) {
	var payload any = req.Profile
	if strings.TrimSpace(req.SourceText) != "" {
		payload = struct {
			Profile        profiles.Content `json:"profile"`
			SourceDocument string           `json:"source_document"`
		}{Profile: req.Profile, SourceDocument: req.SourceText}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generation input: %w", err)
	}
	return string(raw), nil
}

type userRequest struct {
	Instruction string           `json:"instruction"`
	Profile     profiles.Content `json:"profile"`
}

func editInput(prior string, req EditRequest) (string, error) {
	raw, err := json.Marshal(struct {
		HTMLCode    string      `json:"html_code"`
		UserRequest userRequest `json:"user_request"`
	}{
		HTMLCode:    prior,
		UserRequest: userRequest{Instruction: req.Instruction, Profile: req.Profile},
	})
	if err != nil {
		return "", fmt.Errorf("encode edit input: %w", err)
	}
	return string(raw), nil
}

func with(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}

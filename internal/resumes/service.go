package resumes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"resume-builder/internal/generation"
	"resume-builder/internal/profiles"
	"resume-builder/internal/queue"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
)

// UserLookup resolves resume owners.
type UserLookup interface {
	GetByID(ctx context.Context, telegramID int64) (users.User, error)
	Touch(ctx context.Context, telegramID int64) error
}

// Generator produces version artifacts.
type Generator interface {
	GenerateNew(ctx context.Context, req generation.NewRequest) (generation.Artifact, error)
	GenerateEdit(ctx context.Context, req generation.EditRequest) (generation.Artifact, error)
	Forget(ctx context.Context, userID int64, resumeID string, version int) error
}

// ArtifactReader opens stored markup.
type ArtifactReader interface {
	OpenMarkup(ctx context.Context, key string) (io.ReadCloser, error)
}

// Service orchestrates version creation and owns all durable resume writes.
type Service struct {
	Repo      Repo
	Users     UserLookup
	Generator Generator
	Artifacts ArtifactReader
	// Events is optional; committed versions are announced on it best effort.
	Events queue.Client

	locks *keyedLocks
	now   func() time.Time
	newID func() string
}

func NewService(repo Repo, userLookup UserLookup, gen Generator, artifacts ArtifactReader, events queue.Client) *Service {
	return &Service{
		Repo:      repo,
		Users:     userLookup,
		Generator: gen,
		Artifacts: artifacts,
		Events:    events,
		locks:     newKeyedLocks(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CreateInput starts a new resume.
type CreateInput struct {
	UserID       int64           `json:"userId"`
	Title        string          `json:"title"`
	CreationMode CreationMode    `json:"creationMode"`
	Profile      profiles.Fields `json:"profile"`
	ExtraInfo    json.RawMessage `json:"extraInfo,omitempty"`
	// SourceText is extracted from an uploaded document for imported resumes.
	SourceText string `json:"-"`
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.UserID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.CreationMode, validation.Required, validation.In(ModeNew, ModeImported, ModeTemplate)),
		validation.Field(&in.Profile),
		validation.Field(&in.ExtraInfo, validation.By(validJSON)),
	)
}

// UpdateInput derives the next version of a resume.
type UpdateInput struct {
	Instruction  string          `json:"instruction"`
	Profile      profiles.Fields `json:"profile"`
	Title        *string         `json:"title,omitempty"`
	CreationMode *CreationMode   `json:"creationMode,omitempty"`
	ExtraInfo    json.RawMessage `json:"extraInfo,omitempty"`
}

func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Instruction, validation.Length(0, 4000)),
		validation.Field(&in.Profile),
		validation.Field(&in.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&in.CreationMode, validation.In(ModeNew, ModeImported, ModeTemplate)),
		validation.Field(&in.ExtraInfo, validation.By(validJSON)),
	)
}

func validJSON(value any) error {
	raw, _ := value.(json.RawMessage)
	if len(raw) > 0 && !json.Valid(raw) {
		return errors.New("must be valid JSON")
	}
	return nil
}

// Create generates version 1 of a new resume and commits the resume, the
// version and its profile together.
func (s *Service) Create(ctx context.Context, in CreateInput) (Detail, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.CreationMode == "" {
		in.CreationMode = ModeNew
	}
	if err := in.Validate(); err != nil {
		return Detail{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if _, err := s.Users.GetByID(ctx, in.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Detail{}, fmt.Errorf("%w: user %d", ErrNotFound, in.UserID)
		}
		return Detail{}, err
	}

	// A dispatched generation runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	resumeID := s.newID()
	t := s.track(ctx, "create", in.UserID, resumeID)
	t.set("version", 1)
	t.advance(StateVersionAssigned)

	content := profiles.Merge(nil, in.Profile)
	t.advance(StateProfileMerged)

	t.advance(StateArtifactGenerating)
	art, err := s.Generator.GenerateNew(ctx, generation.NewRequest{
		UserID:     in.UserID,
		ResumeID:   resumeID,
		Profile:    content,
		SourceText: in.SourceText,
	})
	if err != nil {
		return Detail{}, t.fail(generationError(err))
	}
	t.set("artifact_path", art.Path)
	t.advance(StateArtifactPersisted)

	now := s.now().UTC()
	resume := Resume{
		ID:             resumeID,
		UserID:         in.UserID,
		Title:          in.Title,
		CreationMode:   in.CreationMode,
		CurrentVersion: 1,
		CreatedAt:      now,
	}
	version := s.newVersion(resumeID, 1, art.Path, in.ExtraInfo, content, now)
	if err := s.Repo.CreateWithVersion(ctx, resume, version); err != nil {
		s.forget(ctx, t, in.UserID, resumeID, 1)
		return Detail{}, t.fail(&PersistenceError{ArtifactPath: art.Path, Err: err})
	}

	s.committed(ctx, t, resume, version)
	return Detail{Resume: resume, Latest: &version}, nil
}

// Update generates the next version from the latest one. Concurrent updates
// of one resume are serialized; a commit that loses a race returns ErrConflict.
func (s *Service) Update(ctx context.Context, resumeID string, in UpdateInput) (Detail, error) {
	if strings.TrimSpace(resumeID) == "" {
		return Detail{}, fmt.Errorf("%w: resume id is required", ErrInvalidInput)
	}
	resumeID, err := parseResumeID(resumeID)
	if err != nil {
		return Detail{}, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if err := in.Validate(); err != nil {
		return Detail{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	release, err := s.locks.Lock(ctx, resumeID)
	if err != nil {
		return Detail{}, err
	}
	defer release()

	// Once the lock is held the update runs to completion even if the caller
	// goes away.
	ctx = context.WithoutCancel(ctx)

	resume, err := s.Repo.Get(ctx, resumeID)
	if err != nil {
		return Detail{}, err
	}
	latest, err := s.Repo.LatestVersion(ctx, resumeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Detail{}, fmt.Errorf("%w: resume %s has no versions", ErrNotFound, resumeID)
		}
		return Detail{}, err
	}

	prev := latest.Version
	next := prev + 1
	t := s.track(ctx, "update", resume.UserID, resumeID)
	t.set("version", next)
	t.advance(StateVersionAssigned)

	content := profiles.Merge(&latest.Profile.Content, in.Profile)
	t.advance(StateProfileMerged)

	t.advance(StateArtifactGenerating)
	art, err := s.Generator.GenerateEdit(ctx, generation.EditRequest{
		UserID:      resume.UserID,
		ResumeID:    resumeID,
		Version:     prev,
		Instruction: in.Instruction,
		Profile:     content,
	})
	if err != nil {
		return Detail{}, t.fail(generationError(err))
	}
	t.set("artifact_path", art.Path)
	t.advance(StateArtifactPersisted)

	extra := in.ExtraInfo
	if extra == nil {
		extra = latest.ExtraInfo
	}
	version := s.newVersion(resumeID, next, art.Path, extra, content, s.now().UTC())
	changes := Changes{Title: in.Title, CreationMode: in.CreationMode}
	if err := s.Repo.CommitVersion(ctx, resumeID, prev, version, changes); err != nil {
		if errors.Is(err, ErrConflict) {
			// The winner of the race owns the cache entry for this version.
			return Detail{}, t.fail(err)
		}
		s.forget(ctx, t, resume.UserID, resumeID, next)
		return Detail{}, t.fail(&PersistenceError{ArtifactPath: art.Path, Err: err})
	}

	resume.CurrentVersion = next
	if changes.Title != nil {
		resume.Title = *changes.Title
	}
	if changes.CreationMode != nil {
		resume.CreationMode = *changes.CreationMode
	}
	s.committed(ctx, t, resume, version)
	return Detail{Resume: resume, Latest: &version}, nil
}

// Get returns a resume with its latest version.
func (s *Service) Get(ctx context.Context, resumeID string) (Detail, error) {
	resumeID, err := parseResumeID(resumeID)
	if err != nil {
		return Detail{}, err
	}
	resume, err := s.Repo.Get(ctx, resumeID)
	if err != nil {
		return Detail{}, err
	}
	latest, err := s.Repo.LatestVersion(ctx, resumeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Detail{Resume: resume}, nil
		}
		return Detail{}, err
	}
	return Detail{Resume: resume, Latest: &latest}, nil
}

// ListByUser returns the user's resumes, newest first. An unknown user and a
// user without resumes are both ErrNotFound.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Resume, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	items, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: user %d has no resumes yet", ErrNotFound, userID)
	}
	return items, nil
}

// ListVersions returns every version of a resume in ascending order.
func (s *Service) ListVersions(ctx context.Context, resumeID string) ([]Version, error) {
	resumeID, err := parseResumeID(resumeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Repo.Get(ctx, resumeID); err != nil {
		return nil, err
	}
	return s.Repo.ListVersions(ctx, resumeID)
}

func (s *Service) GetVersion(ctx context.Context, resumeID string, version int) (Version, error) {
	if version < 1 {
		return Version{}, fmt.Errorf("%w: version must be positive", ErrInvalidInput)
	}
	resumeID, err := parseResumeID(resumeID)
	if err != nil {
		return Version{}, err
	}
	return s.Repo.GetVersion(ctx, resumeID, version)
}

// OpenMarkup opens the stored markup of a version.
func (s *Service) OpenMarkup(ctx context.Context, resumeID string, version int) (io.ReadCloser, error) {
	v, err := s.GetVersion(ctx, resumeID, version)
	if err != nil {
		return nil, err
	}
	if v.MarkupPath == "" || s.Artifacts == nil {
		return nil, fmt.Errorf("%w: markup for version %d", ErrNotFound, version)
	}
	rc, err := s.Artifacts.OpenMarkup(ctx, v.MarkupPath)
	if err != nil {
		return nil, fmt.Errorf("open markup %s: %w", v.MarkupPath, err)
	}
	return rc, nil
}

// Delete removes a resume with all its versions and profiles.
func (s *Service) Delete(ctx context.Context, resumeID string) error {
	resumeID, err := parseResumeID(resumeID)
	if err != nil {
		return err
	}
	release, err := s.locks.Lock(ctx, resumeID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.Repo.Delete(ctx, resumeID); err != nil {
		return err
	}
	telemetry.Info("resume.deleted", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"resume_id":  resumeID,
	})
	return nil
}

func (s *Service) newVersion(resumeID string, number int, markupPath string, extra json.RawMessage, content profiles.Content, now time.Time) Version {
	versionID := s.newID()
	return Version{
		ID:         versionID,
		ResumeID:   resumeID,
		Version:    number,
		MarkupPath: markupPath,
		ExtraInfo:  extra,
		CreatedAt:  now,
		Profile: profiles.Profile{
			ID:        s.newID(),
			VersionID: versionID,
			Content:   content,
			CreatedAt: now,
		},
	}
}

func (s *Service) committed(ctx context.Context, t *tracker, resume Resume, version Version) {
	metrics.IncVersionCreated()
	t.finish(StateCommitted, nil)

	if err := s.Users.Touch(ctx, resume.UserID); err != nil {
		telemetry.Error("resume.user_touch_failed", map[string]any{"user_id": resume.UserID, "error": err})
	}
	if s.Events == nil {
		return
	}
	msg := queue.Message{
		Event:      queue.EventVersionCommitted,
		ResumeID:   resume.ID,
		UserID:     resume.UserID,
		Version:    version.Version,
		MarkupPath: version.MarkupPath,
		RequestID:  requestIDFromContext(ctx),
		EnqueuedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.Send(ctx, msg); err != nil {
		telemetry.Error("resume.event_publish_failed", map[string]any{
			"resume_id": resume.ID,
			"version":   version.Version,
			"error":     err,
		})
	}
}

func (s *Service) forget(ctx context.Context, t *tracker, userID int64, resumeID string, version int) {
	if err := s.Generator.Forget(ctx, userID, resumeID, version); err != nil {
		telemetry.Error("resume.cache_evict_failed", t.with(map[string]any{"error": err}))
	}
}

// parseResumeID normalizes a resume id. Ids that are not UUIDs cannot name a
// stored resume.
func parseResumeID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: resume %q", ErrNotFound, raw)
	}
	return id.String(), nil
}

func generationError(err error) error {
	if errors.Is(err, generation.ErrArtifactWrite) {
		return &PersistenceError{Err: err}
	}
	return err
}

// tracker logs the state machine of one version-creation request.
type tracker struct {
	fields map[string]any
	state  string
	start  time.Time
	now    func() time.Time
}

func (s *Service) track(ctx context.Context, op string, userID int64, resumeID string) *tracker {
	t := &tracker{
		fields: map[string]any{
			"request_id": requestIDFromContext(ctx),
			"operation":  op,
			"user_id":    userID,
			"resume_id":  resumeID,
		},
		state: StateReceived,
		start: s.now(),
		now:   s.now,
	}
	telemetry.Info("resume.version.status", t.with(map[string]any{"status": StateReceived}))
	return t
}

func (t *tracker) set(key string, value any) {
	t.fields[key] = value
}

func (t *tracker) with(extra map[string]any) map[string]any {
	out := make(map[string]any, len(t.fields)+len(extra))
	maps.Copy(out, t.fields)
	maps.Copy(out, extra)
	return out
}

func (t *tracker) advance(state string) {
	telemetry.Info("resume.version.status", t.with(map[string]any{
		"status":            state,
		"status_transition": t.state + "->" + state,
	}))
	t.state = state
}

func (t *tracker) finish(state string, err error) {
	fields := map[string]any{
		"status":            state,
		"status_transition": t.state + "->" + state,
		"duration_ms":       float64(t.now().Sub(t.start).Microseconds()) / 1000.0,
	}
	if err != nil {
		fields["error"] = err
	}
	telemetry.Info("resume.version.status", t.with(fields))
	t.state = state
}

func (t *tracker) fail(err error) error {
	metrics.IncVersionFailed()
	t.finish(StateFailed, err)
	return err
}

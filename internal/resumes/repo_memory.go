package resumes

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	resumes  map[string]Resume
	versions map[string][]Version
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		resumes:  make(map[string]Resume),
		versions: make(map[string][]Version),
	}
}

func (r *MemoryRepo) CreateWithVersion(ctx context.Context, resume Resume, first Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resumes[resume.ID]; ok {
		return ErrConflict
	}
	if first.Version != 1 {
		return ErrConflict
	}
	resume.CurrentVersion = 1
	r.resumes[resume.ID] = resume
	r.versions[resume.ID] = []Version{cloneVersion(first)}
	return nil
}

func (r *MemoryRepo) CommitVersion(ctx context.Context, resumeID string, prev int, v Version, changes Changes) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return ErrNotFound
	}
	if resume.CurrentVersion != prev || v.Version != prev+1 {
		return ErrConflict
	}
	resume.CurrentVersion = v.Version
	if changes.Title != nil {
		resume.Title = *changes.Title
	}
	if changes.CreationMode != nil {
		resume.CreationMode = *changes.CreationMode
	}
	r.resumes[resumeID] = resume
	r.versions[resumeID] = append(r.versions[resumeID], cloneVersion(v))
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, resumeID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return resume, nil
}

func (r *MemoryRepo) LatestVersion(ctx context.Context, resumeID string) (Version, error) {
	if err := ctx.Err(); err != nil {
		return Version{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.versions[resumeID]
	if len(versions) == 0 {
		return Version{}, ErrNotFound
	}
	return cloneVersion(versions[len(versions)-1]), nil
}

func (r *MemoryRepo) GetVersion(ctx context.Context, resumeID string, version int) (Version, error) {
	if err := ctx.Err(); err != nil {
		return Version{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions[resumeID] {
		if v.Version == version {
			return cloneVersion(v), nil
		}
	}
	return Version{}, ErrNotFound
}

func (r *MemoryRepo) ListVersions(ctx context.Context, resumeID string) ([]Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.versions[resumeID]
	out := make([]Version, 0, len(versions))
	for _, v := range versions {
		out = append(out, cloneVersion(v))
	}
	return out, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID int64) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Resume, 0)
	for _, resume := range r.resumes {
		if resume.UserID == userID {
			out = append(out, resume)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resumes[resumeID]; !ok {
		return ErrNotFound
	}
	delete(r.resumes, resumeID)
	delete(r.versions, resumeID)
	return nil
}

func cloneVersion(v Version) Version {
	if v.ExtraInfo != nil {
		v.ExtraInfo = append([]byte(nil), v.ExtraInfo...)
	}
	v.Profile.Content = v.Profile.Content.Clone()
	return v
}

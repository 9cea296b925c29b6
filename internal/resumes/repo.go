package resumes

import "context"

// Repo stores resumes, versions and profiles. Implementations must make
// CreateWithVersion and CommitVersion atomic.
type Repo interface {
	// CreateWithVersion inserts a resume with its first version and profile.
	CreateWithVersion(ctx context.Context, resume Resume, first Version) error
	// CommitVersion inserts v with its profile and moves the resume's
	// current_version from prev to v.Version. ErrConflict when current_version
	// is no longer prev.
	CommitVersion(ctx context.Context, resumeID string, prev int, v Version, changes Changes) error
	Get(ctx context.Context, resumeID string) (Resume, error)
	LatestVersion(ctx context.Context, resumeID string) (Version, error)
	GetVersion(ctx context.Context, resumeID string, version int) (Version, error)
	ListVersions(ctx context.Context, resumeID string) ([]Version, error)
	ListByUser(ctx context.Context, userID int64) ([]Resume, error)
	// Delete removes the resume and cascades to its versions and profiles.
	Delete(ctx context.Context, resumeID string) error
}

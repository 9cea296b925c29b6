package resumes

import (
	"encoding/json"
	"time"

	"resume-builder/internal/profiles"
)

// CreationMode records how a resume was started.
type CreationMode string

const (
	ModeNew      CreationMode = "new"
	ModeImported CreationMode = "imported"
	ModeTemplate CreationMode = "template"
)

// States of a version-creation request.
const (
	StateReceived           = "received"
	StateVersionAssigned    = "version_assigned"
	StateProfileMerged      = "profile_merged"
	StateArtifactGenerating = "artifact_generating"
	StateArtifactPersisted  = "artifact_persisted"
	StateCommitted          = "committed"
	StateFailed             = "failed"
)

// Resume is a versioned document owned by one user.
type Resume struct {
	ID             string       `json:"id"`
	UserID         int64        `json:"userId"`
	Title          string       `json:"title"`
	CreationMode   CreationMode `json:"creationMode"`
	CurrentVersion int          `json:"currentVersion"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// Version is one immutable revision of a resume with its profile snapshot.
type Version struct {
	ID         string           `json:"id"`
	ResumeID   string           `json:"resumeId"`
	Version    int              `json:"version"`
	MarkupPath string           `json:"markupPath"`
	ImagePath  string           `json:"imagePath,omitempty"`
	PDFPath    string           `json:"pdfPath,omitempty"`
	ExtraInfo  json.RawMessage  `json:"extraInfo,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	Profile    profiles.Profile `json:"profile"`
}

// Detail is a resume together with its latest version.
type Detail struct {
	Resume
	Latest *Version `json:"latestVersion,omitempty"`
}

// Changes are resume-level attribute updates committed with a new version.
type Changes struct {
	Title        *string
	CreationMode *CreationMode
}

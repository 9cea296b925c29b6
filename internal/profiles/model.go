package profiles

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Experience is one entry of a profile's work history.
type Experience struct {
	Company     string `json:"company,omitempty"`
	Position    string `json:"position,omitempty"`
	Period      string `json:"period,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is one entry of a profile's education history.
type Education struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Period      string `json:"period,omitempty"`
}

// Content is the structured resume content carried by a profile snapshot.
type Content struct {
	Name       string            `json:"name,omitempty"`
	Position   string            `json:"position,omitempty"`
	Contacts   map[string]string `json:"contacts,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []Experience      `json:"experience,omitempty"`
	Education  []Education       `json:"education,omitempty"`
}

// Profile is an immutable snapshot of Content attached to exactly one resume version.
type Profile struct {
	ID        string `json:"id"`
	VersionID string `json:"versionId"`
	Content
	CreatedAt time.Time `json:"createdAt"`
}

// Fields is a partial profile update. A nil field is absent and carries the
// previous value forward; a non-nil field (including an empty list or map)
// replaces it.
type Fields struct {
	Name       *string           `json:"name,omitempty"`
	Position   *string           `json:"position,omitempty"`
	Contacts   map[string]string `json:"contacts,omitempty"`
	Summary    *string           `json:"summary,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []Experience      `json:"experience,omitempty"`
	Education  []Education       `json:"education,omitempty"`
}

// Empty reports whether the update supplies no fields at all.
func (f Fields) Empty() bool {
	return f.Name == nil &&
		f.Position == nil &&
		f.Contacts == nil &&
		f.Summary == nil &&
		f.Skills == nil &&
		f.Experience == nil &&
		f.Education == nil
}

// Validate bounds the scalar fields to what storage accepts.
func (f Fields) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.NilOrNotEmpty, validation.Length(0, 255)),
		validation.Field(&f.Position, validation.Length(0, 255)),
	)
}

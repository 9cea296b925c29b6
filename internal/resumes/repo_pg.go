package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"resume-builder/internal/profiles"
	"resume-builder/internal/shared/storage/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type PGRepo struct {
	DB *sql.DB
}

const versionColumns = `
v.id, v.resume_id, v.version, v.extra_info_json, v.path_to_html, v.path_to_image, v.path_to_pdf, v.created_at,
p.id, p.name, p.position, p.contacts, p.summary, p.skills, p.experience, p.education, p.created_at`

func (r *PGRepo) CreateWithVersion(ctx context.Context, resume Resume, first Version) error {
	if first.Version != 1 {
		return ErrConflict
	}
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		const query = `
INSERT INTO resume (id, user_id, title, creation_mode, current_version, created_at)
VALUES ($1, $2, $3, $4, 1, $5)`
		if _, err := tx.ExecContext(ctx, query,
			resume.ID,
			resume.UserID,
			resume.Title,
			string(resume.CreationMode),
			resume.CreatedAt,
		); err != nil {
			return err
		}
		return insertVersion(ctx, tx, first)
	})
	return classifyPGError(err)
}

func (r *PGRepo) CommitVersion(ctx context.Context, resumeID string, prev int, v Version, changes Changes) error {
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var mode any
		if changes.CreationMode != nil {
			mode = string(*changes.CreationMode)
		}
		const query = `
UPDATE resume
SET current_version = $1,
    title = COALESCE($2, title),
    creation_mode = COALESCE($3, creation_mode)
WHERE id = $4 AND current_version = $5`
		res, err := tx.ExecContext(ctx, query, v.Version, nullableStringPtr(changes.Title), mode, resumeID, prev)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM resume WHERE id = $1)`, resumeID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrConflict
		}
		return insertVersion(ctx, tx, v)
	})
	return classifyPGError(err)
}

func insertVersion(ctx context.Context, tx *sql.Tx, v Version) error {
	const versionQuery = `
INSERT INTO resume_version (id, resume_id, version, extra_info_json, path_to_html, path_to_image, path_to_pdf, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, versionQuery,
		v.ID,
		v.ResumeID,
		v.Version,
		nullableJSON(v.ExtraInfo),
		nullableString(v.MarkupPath),
		nullableString(v.ImagePath),
		nullableString(v.PDFPath),
		v.CreatedAt,
	); err != nil {
		return err
	}

	p := v.Profile
	contacts, err := jsonParam(p.Contacts)
	if err != nil {
		return err
	}
	skills, err := jsonParam(p.Skills)
	if err != nil {
		return err
	}
	experience, err := jsonParam(p.Experience)
	if err != nil {
		return err
	}
	education, err := jsonParam(p.Education)
	if err != nil {
		return err
	}
	const profileQuery = `
INSERT INTO profile (id, version_id, name, position, contacts, summary, skills, experience, education, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = tx.ExecContext(ctx, profileQuery,
		p.ID,
		v.ID,
		nullableString(p.Name),
		nullableString(p.Position),
		contacts,
		nullableString(p.Summary),
		skills,
		experience,
		education,
		p.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, resumeID string) (Resume, error) {
	const query = `
SELECT id, user_id, title, creation_mode, current_version, created_at
FROM resume
WHERE id = $1`
	resume, err := scanResume(r.DB.QueryRowContext(ctx, query, resumeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return resume, nil
}

func (r *PGRepo) LatestVersion(ctx context.Context, resumeID string) (Version, error) {
	query := `SELECT ` + versionColumns + `
FROM resume_version v
JOIN profile p ON p.version_id = v.id
WHERE v.resume_id = $1
ORDER BY v.version DESC
LIMIT 1`
	v, err := scanVersion(r.DB.QueryRowContext(ctx, query, resumeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Version{}, ErrNotFound
		}
		return Version{}, err
	}
	return v, nil
}

func (r *PGRepo) GetVersion(ctx context.Context, resumeID string, version int) (Version, error) {
	query := `SELECT ` + versionColumns + `
FROM resume_version v
JOIN profile p ON p.version_id = v.id
WHERE v.resume_id = $1 AND v.version = $2`
	v, err := scanVersion(r.DB.QueryRowContext(ctx, query, resumeID, version))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Version{}, ErrNotFound
		}
		return Version{}, err
	}
	return v, nil
}

func (r *PGRepo) ListVersions(ctx context.Context, resumeID string) ([]Version, error) {
	query := `SELECT ` + versionColumns + `
FROM resume_version v
JOIN profile p ON p.version_id = v.id
WHERE v.resume_id = $1
ORDER BY v.version ASC`
	rows, err := r.DB.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListByUser(ctx context.Context, userID int64) ([]Resume, error) {
	const query = `
SELECT id, user_id, title, creation_mode, current_version, created_at
FROM resume
WHERE user_id = $1
ORDER BY created_at DESC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Resume, 0)
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, resumeID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM resume WHERE id = $1`, resumeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var resume Resume
	var mode string
	if err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.Title,
		&mode,
		&resume.CurrentVersion,
		&resume.CreatedAt,
	); err != nil {
		return Resume{}, err
	}
	resume.CreationMode = CreationMode(mode)
	return resume, nil
}

func scanVersion(row rowScanner) (Version, error) {
	var (
		v                                       Version
		extraInfo                               []byte
		markupPath, imagePath, pdfPath          sql.NullString
		name, position, summary                 sql.NullString
		contacts, skills, experience, education []byte
	)
	if err := row.Scan(
		&v.ID,
		&v.ResumeID,
		&v.Version,
		&extraInfo,
		&markupPath,
		&imagePath,
		&pdfPath,
		&v.CreatedAt,
		&v.Profile.ID,
		&name,
		&position,
		&contacts,
		&summary,
		&skills,
		&experience,
		&education,
		&v.Profile.CreatedAt,
	); err != nil {
		return Version{}, err
	}
	if len(extraInfo) > 0 {
		v.ExtraInfo = json.RawMessage(extraInfo)
	}
	v.MarkupPath = markupPath.String
	v.ImagePath = imagePath.String
	v.PDFPath = pdfPath.String
	v.Profile.VersionID = v.ID

	content := profiles.Content{
		Name:     name.String,
		Position: position.String,
		Summary:  summary.String,
	}
	if err := decodeJSON(contacts, &content.Contacts); err != nil {
		return Version{}, fmt.Errorf("decode contacts: %w", err)
	}
	if err := decodeJSON(skills, &content.Skills); err != nil {
		return Version{}, fmt.Errorf("decode skills: %w", err)
	}
	if err := decodeJSON(experience, &content.Experience); err != nil {
		return Version{}, fmt.Errorf("decode experience: %w", err)
	}
	if err := decodeJSON(education, &content.Education); err != nil {
		return Version{}, fmt.Errorf("decode education: %w", err)
	}
	v.Profile.Content = content
	return v, nil
}

func classifyPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func jsonParam(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	return string(raw), nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

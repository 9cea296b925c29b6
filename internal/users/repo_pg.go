package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO tg_user (telegram_id, name, created_at, last_seen)
VALUES ($1, $2, now(), now())
RETURNING created_at, last_seen`
	err := r.DB.QueryRowContext(ctx, query, user.TelegramID, user.Name).Scan(&user.CreatedAt, &user.LastSeen)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) GetByID(ctx context.Context, telegramID int64) (User, error) {
	const query = `
SELECT telegram_id, name, created_at, last_seen
FROM tg_user
WHERE telegram_id = $1`
	var user User
	err := r.DB.QueryRowContext(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Name,
		&user.CreatedAt,
		&user.LastSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) Touch(ctx context.Context, telegramID int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE tg_user SET last_seen = now() WHERE telegram_id = $1`, telegramID)
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

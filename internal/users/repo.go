package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("user already exists")
)

type Repo interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, telegramID int64) (User, error)
	// Touch refreshes last_seen.
	Touch(ctx context.Context, telegramID int64) error
}

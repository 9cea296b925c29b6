package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrInvalidInput wraps validation failures.
var ErrInvalidInput = errors.New("invalid user input")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// CreateInput is the payload for registering a user.
type CreateInput struct {
	TelegramID int64  `json:"telegramId"`
	Name       string `json:"name"`
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.TelegramID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 32)),
	)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.Repo.Create(ctx, User{TelegramID: in.TelegramID, Name: in.Name})
}

func (s *Service) GetByID(ctx context.Context, telegramID int64) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if telegramID <= 0 {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, telegramID)
}

// Touch records activity for an existing user.
func (s *Service) Touch(ctx context.Context, telegramID int64) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	return s.Repo.Touch(ctx, telegramID)
}

package users

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[int64]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[int64]User)}
}

func (r *MemoryRepo) Create(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.TelegramID]; ok {
		return User{}, ErrConflict
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.LastSeen = now
	r.users[user.TelegramID] = user
	return user, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, telegramID int64) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[telegramID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) Touch(ctx context.Context, telegramID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[telegramID]
	if !ok {
		return ErrNotFound
	}
	user.LastSeen = time.Now().UTC()
	r.users[telegramID] = user
	return nil
}

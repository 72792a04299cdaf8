package repository

import (
	"context"
	"errors"

	"blog-server/internal/domain"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrNameTaken is returned when an insert collides on the unique name.
	ErrNameTaken = errors.New("name already taken")
	// ErrEmailTaken is returned when an insert collides on the unique email.
	ErrEmailTaken = errors.New("email already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateAvatar(ctx context.Context, id int64, avatar string) (*domain.User, error)
}

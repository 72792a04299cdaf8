package service

import (
	"context"
	"errors"
	"strings"

	"blog-server/internal/auth"
	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

var (
	// ErrMissingFields indicates a required request field was not supplied.
	ErrMissingFields = errors.New("fill in all fields")
	// ErrEmailExists is returned when registering with an email already on record.
	ErrEmailExists = errors.New("email already exists")
	// ErrNameExists is returned when registering with a display name already on record.
	ErrNameExists = errors.New("name already taken")
	// ErrPasswordTooShort rejects passwords shorter than six characters.
	ErrPasswordTooShort = errors.New("password should be at least 6 characters")
	// ErrPasswordMismatch rejects a confirmation that differs from the password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	// One error covers both unknown email and wrong password so responses
	// cannot be used to probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates a lookup by id matched no record.
	ErrUserNotFound = errors.New("user not found")
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, name, email, password, password2 string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ListAuthors(ctx context.Context) ([]domain.User, error)
	ChangeAvatar(ctx context.Context, id int64, filename string) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
	creds *auth.Credentials
}

func NewUserService(users repository.UserRepository, creds *auth.Credentials) UserService {
	return &userService{users: users, creds: creds}
}

func (s *userService) Register(ctx context.Context, name, email, password, password2 string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" || password2 == "" {
		return nil, ErrMissingFields
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if len(strings.TrimSpace(password)) < 6 {
		return nil, ErrPasswordTooShort
	}
	if password != password2 {
		return nil, ErrPasswordMismatch
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	// The unique indexes are the real guard; the GetByEmail probe above only
	// exists to report the common case before paying for a bcrypt hash.
	if _, err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, ErrEmailExists
		case errors.Is(err, repository.ErrNameTaken):
			return nil, ErrNameExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.creds.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) ListAuthors(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) ChangeAvatar(ctx context.Context, id int64, filename string) (*domain.User, error) {
	user, err := s.users.UpdateAvatar(ctx, id, filename)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

// sanitizeUser strips the password hash so it can never reach a response,
// registration included.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}

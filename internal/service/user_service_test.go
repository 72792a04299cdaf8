package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"blog-server/internal/auth"
	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

type memoryRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (r *memoryRepo) Init(ctx context.Context) error { return nil }

func (r *memoryRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return 0, repository.ErrEmailTaken
		}
		if existing.Name == user.Name {
			return 0, repository.ErrNameTaken
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return user.ID, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for id := int64(1); id < r.nextID; id++ {
		if user, ok := r.users[id]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateAvatar(ctx context.Context, id int64, avatar string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user.Avatar = avatar
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	return &clone, nil
}

func newTestService(t *testing.T) (UserService, *memoryRepo) {
	t.Helper()
	creds, err := auth.NewCredentials("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	repo := newMemoryRepo()
	return NewUserService(repo, creds), repo
}

func TestRegisterNormalizesAndHashes(t *testing.T) {
	svc, repo := newTestService(t)

	user, err := svc.Register(context.Background(), "alice", "A@x.com", "secret1", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("email = %q, want a@x.com", user.Email)
	}
	if user.PasswordHash != "" {
		t.Fatal("returned user carries a password hash")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("role = %q, want user", user.Role)
	}

	stored, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Fatalf("stored hash %q is not a hash", stored.PasswordHash)
	}
	if strings.Contains(stored.PasswordHash, "secret1") {
		t.Fatal("stored hash contains plaintext")
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name                             string
		user, email, password, password2 string
		wantErr                          error
	}{
		{"missing name", "", "a@x.com", "secret1", "secret1", ErrMissingFields},
		{"missing email", "alice", "", "secret1", "secret1", ErrMissingFields},
		{"missing password", "alice", "a@x.com", "", "secret1", ErrMissingFields},
		{"missing confirmation", "alice", "a@x.com", "secret1", "", ErrMissingFields},
		{"five chars", "alice", "a@x.com", "12345", "12345", ErrPasswordTooShort},
		{"padded short password", "alice", "a@x.com", "  12345  ", "  12345  ", ErrPasswordTooShort},
		{"mismatch", "alice", "a@x.com", "secret1", "secret2", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			if _, err := svc.Register(context.Background(), tt.user, tt.email, tt.password, tt.password2); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterPasswordBoundary(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Register(context.Background(), "alice", "a@x.com", "123456", "123456"); err != nil {
		t.Fatalf("six characters rejected: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1", "secret1"); err != nil {
		t.Fatal(err)
	}
	// same email, different case and name
	if _, err := svc.Register(context.Background(), "bob", "A@X.COM", "secret1", "secret1"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1", "secret1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(context.Background(), "alice", "b@x.com", "secret1", "secret1"); !errors.Is(err, ErrNameExists) {
		t.Fatalf("err = %v, want ErrNameExists", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Register(context.Background(), "alice", "A@x.com", "secret1", "secret1"); err != nil {
		t.Fatal(err)
	}

	user, err := svc.Authenticate(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Name != "alice" {
		t.Fatalf("name = %q", user.Name)
	}
	if user.PasswordHash != "" {
		t.Fatal("authenticated user carries a password hash")
	}

	// wrong password and unknown email must be indistinguishable
	if _, err := svc.Authenticate(context.Background(), "a@x.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@x.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v", err)
	}
}

func TestGetByID(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	user, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.PasswordHash != "" {
		t.Fatal("fetched user carries a password hash")
	}

	if _, err := svc.GetByID(context.Background(), 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

func TestListAuthorsStripsHashes(t *testing.T) {
	svc, _ := newTestService(t)
	for _, u := range []struct{ name, email string }{
		{"alice", "a@x.com"},
		{"bob", "b@x.com"},
	} {
		if _, err := svc.Register(context.Background(), u.name, u.email, "secret1", "secret1"); err != nil {
			t.Fatal(err)
		}
	}

	authors, err := svc.ListAuthors(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(authors) != 2 {
		t.Fatalf("got %d authors, want 2", len(authors))
	}
	for _, a := range authors {
		if a.PasswordHash != "" {
			t.Fatalf("author %s carries a password hash", a.Name)
		}
	}
}

func TestChangeAvatar(t *testing.T) {
	svc, repo := newTestService(t)
	created, err := svc.Register(context.Background(), "alice", "a@x.com", "secret1", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.ChangeAvatar(context.Background(), created.ID, "pic-abc.png")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Avatar != "pic-abc.png" {
		t.Fatalf("avatar = %q", updated.Avatar)
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Avatar != "pic-abc.png" {
		t.Fatalf("stored avatar = %q", stored.Avatar)
	}

	if _, err := svc.ChangeAvatar(context.Background(), 9999, "x.png"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

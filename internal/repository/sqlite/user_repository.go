package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog-server/internal/domain"
	"blog-server/internal/repository"
)

// Both name and email carry UNIQUE so concurrent registrations cannot
// produce duplicates regardless of what the handler checked first.
const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	posts INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (name, email, password_hash, avatar, role, posts, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.Role,
		user.Posts,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if constraintErr := uniqueViolation(err); constraintErr != nil {
			return 0, constraintErr
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+`WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+`ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id int64, avatar string) (*domain.User, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET avatar = ?, updated_at = ? WHERE id = ?`,
		avatar, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update avatar rows affected: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

const selectUser = `
SELECT id, name, email, password_hash, avatar, role, posts, created_at, updated_at
FROM users
`

func uniqueViolation(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") {
		return nil
	}
	if strings.Contains(msg, "users.email") {
		return repository.ErrEmailTaken
	}
	if strings.Contains(msg, "users.name") {
		return repository.ErrNameTaken
	}
	return fmt.Errorf("user already exists: %w", err)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Avatar,
		&user.Role,
		&user.Posts,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, req ListUsersRequest) ([]User, int, error)
	Get(ctx context.Context, id int64) (*User, error)
	GetCredential(ctx context.Context, id int64) (string, error)
	UpdateProfile(ctx context.Context, id int64, name, bio *string) (*User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (time.Time, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a page of users with the total count.
func (r *Repository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	where := ""
	args := []any{}
	if req.Search != "" {
		where = "WHERE name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM users %s", where), args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	query := fmt.Sprintf(`
		SELECT id, name, email, bio, created_at, updated_at
		FROM users %s
		ORDER BY id
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, req.Limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Bio, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Get fetches a single user by id.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, bio, created_at, updated_at
		FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Bio, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetCredential returns the current password hash.
func (r *Repository) GetCredential(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE id = $1`, id,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// UpdateProfile updates the provided fields and returns the fresh
// row.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, name, bio *string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
		    bio = COALESCE($3, bio),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, bio, created_at, updated_at`,
		id, name, bio,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Bio, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

// UpdatePassword stores a new credential hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (time.Time, error) {
	var updatedAt time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		id, passwordHash,
	).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("update password: %w", err)
	}
	return updatedAt, nil
}

var _ RepositoryPort = (*Repository)(nil)

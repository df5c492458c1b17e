package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

// Repository implements RepositoryPort using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithinTx runs fn against a store bound to one RepeatableRead
// transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

// ListPermissions returns all permissions ordered by name.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description FROM permissions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

type txStore struct {
	tx pgx.Tx
}

func (s *txStore) GetUser(ctx context.Context, userID int64) (*UserWithRoles, error) {
	var user UserWithRoles
	err := s.tx.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *txStore) GetRoleID(ctx context.Context, roleName string) (int64, error) {
	var roleID int64
	err := s.tx.QueryRow(ctx,
		`SELECT id FROM roles WHERE name = $1`, roleName,
	).Scan(&roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, httpx.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return roleID, nil
}

func (s *txStore) HasRole(ctx context.Context, userID, roleID int64) (bool, error) {
	var held bool
	err := s.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role_id = $2)`,
		userID, roleID,
	).Scan(&held)
	return held, err
}

func (s *txStore) AttachRole(ctx context.Context, userID, roleID int64) error {
	_, err := s.tx.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
		userID, roleID)
	return err
}

func (s *txStore) DetachRole(ctx context.Context, userID, roleID int64) error {
	_, err := s.tx.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID)
	return err
}

func (s *txStore) ListUserRoles(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT r.id, r.name, r.description
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]Role, 0, 2)
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)

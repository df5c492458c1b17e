package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/db"
	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, name, email, passwordHash string, bio *string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindPrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error)
	CreateRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	RedeemRefreshToken(ctx context.Context, token string) (*User, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	PurgeRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts the user and attaches the default role in one
// transaction. A duplicate email maps to httpx.ErrDuplicate.
func (r *PGRepository) CreateUser(ctx context.Context, name, email, passwordHash string, bio *string) (*User, error) {
	var user User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, bio)
			VALUES ($1, $2, $3, $4)
			RETURNING id, name, email, bio, created_at, updated_at`,
			name, email, passwordHash, bio,
		).Scan(&user.ID, &user.Name, &user.Email, &user.Bio, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email address already exists", httpx.ErrDuplicate)
			}
			return fmt.Errorf("insert user: %w", err)
		}

		var roleID int64
		err = tx.QueryRow(ctx,
			`SELECT id FROM roles WHERE name = $1`, shared.RoleUser,
		).Scan(&roleID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("default role %q missing, check seed data", shared.RoleUser)
		}
		if err != nil {
			return fmt.Errorf("load default role: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`,
			user.ID, roleID,
		); err != nil {
			return fmt.Errorf("attach default role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email, including the credential hash.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, bio, created_at, updated_at
		FROM users WHERE email = $1`, email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Bio, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindPrincipalByID loads the user together with roles and each
// role's permissions in a single query and assembles the principal
// snapshot.
func (r *PGRepository) FindPrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name, u.email,
		       r.id, r.name, r.description,
		       p.id, p.name, p.description
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE u.id = $1
		ORDER BY r.id, p.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		found     bool
		userID    int64
		userName  string
		userEmail string
		roles     []rbac.Role
	)
	roleIndex := make(map[int64]int)

	for rows.Next() {
		var (
			roleID   pgtype.Int8
			roleName pgtype.Text
			roleDesc pgtype.Text
			permID   pgtype.Int8
			permName pgtype.Text
			permDesc pgtype.Text
		)
		if err := rows.Scan(
			&userID, &userName, &userEmail,
			&roleID, &roleName, &roleDesc,
			&permID, &permName, &permDesc,
		); err != nil {
			return nil, err
		}
		found = true
		if !roleID.Valid {
			continue
		}
		idx, ok := roleIndex[roleID.Int64]
		if !ok {
			roles = append(roles, rbac.Role{
				ID:          roleID.Int64,
				Name:        roleName.String,
				Description: roleDesc.String,
			})
			idx = len(roles) - 1
			roleIndex[roleID.Int64] = idx
		}
		if permID.Valid {
			roles[idx].Permissions = append(roles[idx].Permissions, rbac.Permission{
				ID:          permID.Int64,
				Name:        permName.String,
				Description: permDesc.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, httpx.ErrNotFound
	}
	return rbac.NewPrincipal(userID, userName, userEmail, roles), nil
}

// CreateRefreshToken persists a new refresh token.
func (r *PGRepository) CreateRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// RedeemRefreshToken revokes the token iff it is currently active and
// returns its user. The conditional UPDATE is the rotation guard: of
// two concurrent redemptions exactly one sees a row, the other gets
// httpx.ErrNotFound.
func (r *PGRepository) RedeemRefreshToken(ctx context.Context, token string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		UPDATE refresh_tokens rt
		SET is_revoked = TRUE
		FROM users u
		WHERE rt.token = $1
		  AND NOT rt.is_revoked
		  AND rt.expires_at > now()
		  AND u.id = rt.user_id
		RETURNING u.id, u.name, u.email`,
		token,
	).Scan(&user.ID, &user.Name, &user.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redeem refresh token: %w", err)
	}
	return &user, nil
}

// RevokeRefreshToken marks the token revoked. Revoking an unknown
// token is a no-op so callers cannot probe for token existence.
func (r *PGRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// PurgeRefreshTokens deletes tokens that expired before the cutoff,
// and revoked tokens created before it.
func (r *PGRepository) PurgeRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1 OR (is_revoked AND created_at < $1)`,
		before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)

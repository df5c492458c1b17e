package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

// UserWithRoles is the administrative view of a user's role set.
type UserWithRoles struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Roles []Role `json:"roles"`
}

// TxStore exposes the role-membership queries inside one transaction.
type TxStore interface {
	GetUser(ctx context.Context, userID int64) (*UserWithRoles, error)
	GetRoleID(ctx context.Context, roleName string) (int64, error)
	HasRole(ctx context.Context, userID, roleID int64) (bool, error)
	AttachRole(ctx context.Context, userID, roleID int64) error
	DetachRole(ctx context.Context, userID, roleID int64) error
	ListUserRoles(ctx context.Context, userID int64) ([]Role, error)
}

// RepositoryPort defines persistence operations for role management.
type RepositoryPort interface {
	WithinTx(ctx context.Context, fn func(TxStore) error) error
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// Service orchestrates role assignment.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// AssignRole grants roleName to the user. The load-check-mutate-save
// sequence runs in one transaction so concurrent changes to the same
// user cannot interleave into a lost update.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleName string) (*UserWithRoles, error) {
	return s.modifyUserRole(ctx, userID, roleName, true)
}

// RevokeRole removes roleName from the user under the same
// transactional guard as AssignRole.
func (s *Service) RevokeRole(ctx context.Context, userID int64, roleName string) (*UserWithRoles, error) {
	return s.modifyUserRole(ctx, userID, roleName, false)
}

func (s *Service) modifyUserRole(ctx context.Context, userID int64, roleName string, assign bool) (*UserWithRoles, error) {
	roleName = strings.TrimSpace(roleName)
	var user *UserWithRoles

	err := s.repo.WithinTx(ctx, func(store TxStore) error {
		var err error
		user, err = store.GetUser(ctx, userID)
		if errors.Is(err, httpx.ErrNotFound) {
			return fmt.Errorf("%w: user %d", httpx.ErrNotFound, userID)
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		roleID, err := store.GetRoleID(ctx, roleName)
		if errors.Is(err, httpx.ErrNotFound) {
			return fmt.Errorf("%w: role %q", httpx.ErrNotFound, roleName)
		}
		if err != nil {
			return fmt.Errorf("load role: %w", err)
		}

		held, err := store.HasRole(ctx, userID, roleID)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}

		if assign {
			if held {
				return fmt.Errorf("%w: user already has the %q role", httpx.ErrValidation, roleName)
			}
			if err := store.AttachRole(ctx, userID, roleID); err != nil {
				return fmt.Errorf("attach role: %w", err)
			}
		} else {
			if !held {
				return fmt.Errorf("%w: user does not have the %q role", httpx.ErrValidation, roleName)
			}
			if err := store.DetachRole(ctx, userID, roleID); err != nil {
				return fmt.Errorf("detach role: %w", err)
			}
		}

		roles, err := store.ListUserRoles(ctx, userID)
		if err != nil {
			return fmt.Errorf("reload roles: %w", err)
		}
		user.Roles = roles
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		action := "revoked from"
		if assign {
			action = "assigned to"
		}
		s.logger.Info("role "+action+" user",
			slog.String("role", roleName),
			slog.Int64("user_id", userID),
		)
	}
	return user, nil
}

// ListPermissions returns the permission catalog ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

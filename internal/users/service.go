package users

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	bcryptCost int
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, bcryptCost: bcryptCost}
}

// List returns a page of users. A page beyond the last one is
// reported as not found, matching the listing contract of the posts
// and comments modules.
func (s *Service) List(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 10
	}

	users, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	pagination := shared.NewPagination(req.Page, req.Limit, total)
	if total > 0 && req.Page > pagination.TotalPages {
		return nil, fmt.Errorf("%w: page %d not found, total pages available: %d",
			httpx.ErrNotFound, req.Page, pagination.TotalPages)
	}
	if users == nil {
		users = []User{}
	}
	return &ListUsersResponse{Users: users, Pagination: pagination}, nil
}

// Get fetches a single user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfile updates the caller's own name and bio.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*User, error) {
	return s.repo.UpdateProfile(ctx, userID, req.Name, req.Bio)
}

// UpdatePassword replaces the caller's credential. Reusing the
// current password is rejected.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, newPassword string) (time.Time, error) {
	currentHash, err := s.repo.GetCredential(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(newPassword)) == nil {
		return time.Time{}, fmt.Errorf("%w: new password must be different from the current password", httpx.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return time.Time{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

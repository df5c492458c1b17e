package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

const wordsPerMinute = 200

// Service holds post business rules: visibility masking, ownership
// checks and read-time estimation.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a post service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func notFound(id int64) error {
	return fmt.Errorf("%w: post with id %d not found", httpx.ErrNotFound, id)
}

// visibleTo reports whether the principal may observe the post's
// existence. Private posts are visible to their author only.
func visibleTo(post *Post, principal *rbac.Principal) bool {
	if post.Visibility == VisibilityPublic {
		return true
	}
	return principal != nil && principal.ID == post.AuthorID
}

// Create stores a new post authored by the principal.
func (s *Service) Create(ctx context.Context, principal *rbac.Principal, req CreatePostRequest) (*Post, error) {
	visibility := Visibility(req.Visibility)
	if visibility == "" {
		visibility = VisibilityPublic
	}
	post, err := s.repo.Create(ctx, req.Title, req.Content, visibility, principal.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("post created",
		slog.Int64("post_id", post.ID),
		slog.Int64("author_id", principal.ID),
		slog.String("visibility", string(post.Visibility)),
	)
	return post, nil
}

// Get returns a single post. A private post belonging to someone else
// yields the same not-found error as a missing id.
func (s *Service) Get(ctx context.Context, principal *rbac.Principal, id int64) (*Post, error) {
	post, err := s.repo.Get(ctx, id)
	if errors.Is(err, httpx.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if !visibleTo(post, principal) {
		return nil, notFound(id)
	}
	return post, nil
}

// List returns public posts plus the principal's own private posts,
// newest first.
func (s *Service) List(ctx context.Context, principal *rbac.Principal, req ListPostsRequest) (*ListPostsResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)
	filter := ListFilter{
		Search: req.Search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if principal != nil {
		filter.ViewerID = principal.ID
	} else {
		filter.PublicOnly = true
	}
	return s.list(ctx, filter, page, limit)
}

// ListByAuthor returns one author's posts. Viewers other than the
// author see only the public ones.
func (s *Service) ListByAuthor(ctx context.Context, principal *rbac.Principal, authorID int64, req ListPostsRequest) (*ListPostsResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)
	filter := ListFilter{
		Search:     req.Search,
		AuthorID:   authorID,
		PublicOnly: principal == nil || principal.ID != authorID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	return s.list(ctx, filter, page, limit)
}

func (s *Service) list(ctx context.Context, filter ListFilter, page, limit int) (*ListPostsResponse, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	pagination := shared.NewPagination(page, limit, total)
	// An empty listing treats every page as the valid empty first
	// page; only a non-empty one can run out of pages.
	if total > 0 && page > pagination.TotalPages {
		return nil, fmt.Errorf("%w: page %d not found, total pages available: %d",
			httpx.ErrNotFound, page, pagination.TotalPages)
	}
	list := make([]PostListItem, 0, len(items))
	for _, post := range items {
		list = append(list, PostListItem{
			ID:         post.ID,
			Title:      post.Title,
			Visibility: post.Visibility,
			TimeToRead: TimeToRead(post.Content),
			AuthorID:   post.AuthorID,
			AuthorName: post.AuthorName,
			CreatedAt:  post.CreatedAt,
			UpdatedAt:  post.UpdatedAt,
		})
	}
	return &ListPostsResponse{Posts: list, Pagination: pagination}, nil
}

// Update modifies a post. Only the author may edit, regardless of
// held permissions.
func (s *Service) Update(ctx context.Context, principal *rbac.Principal, id int64, req UpdatePostRequest) (*Post, error) {
	post, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanModify(principal, post.AuthorID) {
		return nil, fmt.Errorf("%w: you can only edit your own posts", httpx.ErrForbidden)
	}
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Visibility != nil {
		post.Visibility = Visibility(*req.Visibility)
	}
	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return post, nil
}

// Delete removes a post. Authors need the own-delete permission,
// moderators with the any-delete permission may remove any visible
// post.
func (s *Service) Delete(ctx context.Context, principal *rbac.Principal, id int64) error {
	post, err := s.Get(ctx, principal, id)
	if err != nil {
		return err
	}
	if !rbac.CanDelete(principal, post.AuthorID, shared.PermDeletePostOwn, shared.PermDeletePostAny) {
		return fmt.Errorf("%w: you are not allowed to delete this post", httpx.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return notFound(id)
		}
		return err
	}
	s.logger.Info("post deleted", slog.Int64("post_id", id), slog.Int64("actor_id", principal.ID))
	return nil
}

// TimeToRead estimates reading time in whole minutes at 200 words per
// minute, never below one.
func TimeToRead(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

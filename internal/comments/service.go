package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/posts"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Service holds comment business rules. A comment inherits the
// visibility of its parent post: if the viewer cannot see the post,
// the comment does not exist for them.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a comment service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func postNotFound(postID int64) error {
	return fmt.Errorf("%w: post with id %d not found", httpx.ErrNotFound, postID)
}

func commentNotFound(id int64) error {
	return fmt.Errorf("%w: comment with id %d not found", httpx.ErrNotFound, id)
}

func postVisibleTo(visibility posts.Visibility, postAuthorID int64, principal *rbac.Principal) bool {
	if visibility == posts.VisibilityPublic {
		return true
	}
	return principal != nil && principal.ID == postAuthorID
}

// resolvePost loads the parent post's metadata, collapsing missing
// and invisible posts into the same error.
func (s *Service) resolvePost(ctx context.Context, principal *rbac.Principal, postID int64) (*PostMeta, error) {
	meta, err := s.repo.GetPostMeta(ctx, postID)
	if errors.Is(err, httpx.ErrNotFound) {
		return nil, postNotFound(postID)
	}
	if err != nil {
		return nil, err
	}
	if !postVisibleTo(meta.Visibility, meta.AuthorID, principal) {
		return nil, postNotFound(postID)
	}
	return meta, nil
}

// Create attaches a comment to a visible post.
func (s *Service) Create(ctx context.Context, principal *rbac.Principal, postID int64, req CreateCommentRequest) (*Comment, error) {
	if _, err := s.resolvePost(ctx, principal, postID); err != nil {
		return nil, err
	}
	comment, err := s.repo.Create(ctx, req.Content, postID, principal.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("comment created",
		slog.Int64("comment_id", comment.ID),
		slog.Int64("post_id", postID),
		slog.Int64("author_id", principal.ID),
	)
	return comment, nil
}

// List returns a post's comments oldest first.
func (s *Service) List(ctx context.Context, principal *rbac.Principal, postID int64, req ListCommentsRequest) (*ListCommentsResponse, error) {
	if _, err := s.resolvePost(ctx, principal, postID); err != nil {
		return nil, err
	}

	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	items, total, err := s.repo.ListByPost(ctx, postID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	pagination := shared.NewPagination(page, limit, total)
	// An empty thread treats every page as the valid empty first
	// page; only a non-empty one can run out of pages.
	if total > 0 && page > pagination.TotalPages {
		return nil, fmt.Errorf("%w: page %d not found, total pages available: %d",
			httpx.ErrNotFound, page, pagination.TotalPages)
	}
	if items == nil {
		items = []Comment{}
	}
	return &ListCommentsResponse{Comments: items, Pagination: pagination}, nil
}

// Get returns a single comment, masked by the parent post's
// visibility.
func (s *Service) Get(ctx context.Context, principal *rbac.Principal, id int64) (*Comment, error) {
	comment, err := s.get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	return &comment.Comment, nil
}

// get loads a comment and applies the parent post's visibility.
func (s *Service) get(ctx context.Context, principal *rbac.Principal, id int64) (*CommentWithPost, error) {
	comment, err := s.repo.Get(ctx, id)
	if errors.Is(err, httpx.ErrNotFound) {
		return nil, commentNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	if !postVisibleTo(comment.PostVisibility, comment.PostAuthorID, principal) {
		return nil, commentNotFound(id)
	}
	return comment, nil
}

// Update replaces a comment's content. Only the author may edit.
func (s *Service) Update(ctx context.Context, principal *rbac.Principal, id int64, req UpdateCommentRequest) (*Comment, error) {
	comment, err := s.get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanModify(principal, comment.AuthorID) {
		return nil, fmt.Errorf("%w: you can only edit your own comments", httpx.ErrForbidden)
	}
	updated, err := s.repo.Update(ctx, id, req.Content)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, commentNotFound(id)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a comment. Authors need the own-delete permission,
// holders of the any-delete permission may remove any visible
// comment.
func (s *Service) Delete(ctx context.Context, principal *rbac.Principal, id int64) error {
	comment, err := s.get(ctx, principal, id)
	if err != nil {
		return err
	}
	if !rbac.CanDelete(principal, comment.AuthorID, shared.PermDeleteCommentOwn, shared.PermDeleteCommentAny) {
		return fmt.Errorf("%w: you are not allowed to delete this comment", httpx.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return commentNotFound(id)
		}
		return err
	}
	s.logger.Info("comment deleted", slog.Int64("comment_id", id), slog.Int64("actor_id", principal.ID))
	return nil
}

package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

// RepositoryPort defines data access methods for comments.
type RepositoryPort interface {
	GetPostMeta(ctx context.Context, postID int64) (*PostMeta, error)
	Create(ctx context.Context, content string, postID, authorID int64) (*Comment, error)
	Get(ctx context.Context, id int64) (*CommentWithPost, error)
	ListByPost(ctx context.Context, postID int64, limit, offset int) ([]Comment, int, error)
	Update(ctx context.Context, id int64, content string) (*Comment, error)
	Delete(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetPostMeta fetches the visibility metadata of the parent post.
func (r *Repository) GetPostMeta(ctx context.Context, postID int64) (*PostMeta, error) {
	var meta PostMeta
	err := r.pool.QueryRow(ctx,
		`SELECT id, visibility, author_id FROM posts WHERE id = $1`, postID,
	).Scan(&meta.ID, &meta.Visibility, &meta.AuthorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Create inserts a comment and returns it with the author name.
func (r *Repository) Create(ctx context.Context, content string, postID, authorID int64) (*Comment, error) {
	var comment Comment
	err := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO comments (content, post_id, author_id)
			VALUES ($1, $2, $3)
			RETURNING id, content, post_id, author_id, created_at, updated_at
		)
		SELECT i.id, i.content, i.post_id, i.author_id, u.name, i.created_at, i.updated_at
		FROM inserted i
		JOIN users u ON u.id = i.author_id`,
		content, postID, authorID,
	).Scan(&comment.ID, &comment.Content, &comment.PostID, &comment.AuthorID, &comment.AuthorName, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// Get fetches a comment joined with its post's visibility metadata.
func (r *Repository) Get(ctx context.Context, id int64) (*CommentWithPost, error) {
	var comment CommentWithPost
	err := r.pool.QueryRow(ctx, `
		SELECT c.id, c.content, c.post_id, c.author_id, u.name, c.created_at, c.updated_at,
		       p.visibility, p.author_id
		FROM comments c
		JOIN users u ON u.id = c.author_id
		JOIN posts p ON p.id = c.post_id
		WHERE c.id = $1`, id,
	).Scan(&comment.ID, &comment.Content, &comment.PostID, &comment.AuthorID, &comment.AuthorName,
		&comment.CreatedAt, &comment.UpdatedAt, &comment.PostVisibility, &comment.PostAuthorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns a post's comments oldest first, with the total
// count.
func (r *Repository) ListByPost(ctx context.Context, postID int64, limit, offset int) ([]Comment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.content, c.post_id, c.author_id, u.name, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT $2 OFFSET $3`, postID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var result []Comment
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.Content, &comment.PostID, &comment.AuthorID,
			&comment.AuthorName, &comment.CreatedAt, &comment.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		result = append(result, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Update replaces the content of a comment.
func (r *Repository) Update(ctx context.Context, id int64, content string) (*Comment, error) {
	var comment Comment
	err := r.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE comments SET content = $2, updated_at = now()
			WHERE id = $1
			RETURNING id, content, post_id, author_id, created_at, updated_at
		)
		SELECT d.id, d.content, d.post_id, d.author_id, u.name, d.created_at, d.updated_at
		FROM updated d
		JOIN users u ON u.id = d.author_id`,
		id, content,
	).Scan(&comment.ID, &comment.Content, &comment.PostID, &comment.AuthorID, &comment.AuthorName, &comment.CreatedAt, &comment.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &comment, nil
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)

package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

// ListFilter selects which posts a listing query returns. The
// visibility rules are composed by the service, not here.
type ListFilter struct {
	Search string
	// AuthorID restricts to posts by this author when non-zero.
	AuthorID int64
	// PublicOnly restricts to public posts.
	PublicOnly bool
	// ViewerID additionally includes this user's private posts when
	// AuthorID is zero and PublicOnly is false.
	ViewerID int64
	Limit    int
	Offset   int
}

// RepositoryPort defines data access methods for posts.
type RepositoryPort interface {
	Create(ctx context.Context, title, content string, visibility Visibility, authorID int64) (*Post, error)
	Get(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, filter ListFilter) ([]Post, int, error)
	Update(ctx context.Context, post *Post) error
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

// Create inserts a post and returns it with the author name joined
// in.
func (r *Repository) Create(ctx context.Context, title, content string, visibility Visibility, authorID int64) (*Post, error) {
	var post Post
	err := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO posts (title, content, visibility, author_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, title, content, visibility, author_id, created_at, updated_at
		)
		SELECT i.id, i.title, i.content, i.visibility, i.author_id, u.name, i.created_at, i.updated_at
		FROM inserted i
		JOIN users u ON u.id = i.author_id`,
		title, content, visibility, authorID,
	).Scan(&post.ID, &post.Title, &post.Content, &post.Visibility, &post.AuthorID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return &post, nil
}

// Get fetches a post by id without any visibility filtering. Masking
// is the service's concern.
func (r *Repository) Get(ctx context.Context, id int64) (*Post, error) {
	var post Post
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.title, p.content, p.visibility, p.author_id, u.name, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`, id,
	).Scan(&post.ID, &post.Title, &post.Content, &post.Visibility, &post.AuthorID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httpx.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns matching posts newest first, with the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Post, int, error) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case filter.AuthorID != 0:
		conditions = append(conditions, "p.author_id = "+arg(filter.AuthorID))
		if filter.PublicOnly {
			conditions = append(conditions, "p.visibility = 'public'")
		}
	case filter.PublicOnly:
		conditions = append(conditions, "p.visibility = 'public'")
	default:
		conditions = append(conditions,
			"(p.visibility = 'public' OR p.author_id = "+arg(filter.ViewerID)+")")
	}

	if filter.Search != "" {
		placeholder := arg("%" + filter.Search + "%")
		conditions = append(conditions,
			fmt.Sprintf("(p.title ILIKE %s OR p.content ILIKE %s)", placeholder, placeholder))
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM posts p %s", where), args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.title, p.content, p.visibility, p.author_id, u.name, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		%s
		ORDER BY p.created_at DESC
		LIMIT %s OFFSET %s`, where, arg(filter.Limit), arg(filter.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var result []Post
	for rows.Next() {
		var post Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.Visibility, &post.AuthorID, &post.AuthorName, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// Update persists title, content and visibility.
func (r *Repository) Update(ctx context.Context, post *Post) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE posts
		SET title = $2, content = $3, visibility = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		post.ID, post.Title, post.Content, post.Visibility,
	).Scan(&post.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post. Comments go with it via the foreign key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ RepositoryPort = (*Repository)(nil)

package posts

import (
	"time"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// CreatePostRequest is the payload for creating a post.
type CreatePostRequest struct {
	Title      string `json:"title" validate:"required,max=255"`
	Content    string `json:"content" validate:"required"`
	Visibility string `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// UpdatePostRequest updates only the provided fields.
type UpdatePostRequest struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Content    *string `json:"content,omitempty"`
	Visibility *string `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// ListPostsRequest carries pagination and search filters.
type ListPostsRequest struct {
	Page   int
	Limit  int
	Search string
}

// PostListItem is the condensed listing row. TimeToRead is minutes at
// 200 words per minute.
type PostListItem struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Visibility Visibility `json:"visibility"`
	TimeToRead int        `json:"time_to_read"`
	AuthorID   int64      `json:"author_id"`
	AuthorName string     `json:"author_name"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ListPostsResponse is the paginated listing shape.
type ListPostsResponse struct {
	Posts      []PostListItem    `json:"posts"`
	Pagination shared.Pagination `json:"pagination"`
}

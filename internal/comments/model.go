package comments

import (
	"time"

	"github.com/inkwell-blog/inkwell/internal/posts"
)

// Comment is a reply attached to a post.
type Comment struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	PostID     int64     `json:"post_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CommentWithPost carries the parent post's visibility metadata so
// the service can decide whether a viewer may see the comment at all.
type CommentWithPost struct {
	Comment
	PostVisibility posts.Visibility `json:"-"`
	PostAuthorID   int64            `json:"-"`
}

// PostMeta is the slice of a post the comment rules need.
type PostMeta struct {
	ID         int64
	Visibility posts.Visibility
	AuthorID   int64
}

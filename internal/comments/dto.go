package comments

import "github.com/inkwell-blog/inkwell/internal/shared"

// CreateCommentRequest is the payload for posting a comment.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// UpdateCommentRequest replaces a comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// ListCommentsRequest carries pagination for a post's comment thread.
type ListCommentsRequest struct {
	Page  int
	Limit int
}

// ListCommentsResponse is the paginated thread, oldest first.
type ListCommentsResponse struct {
	Comments   []Comment         `json:"comments"`
	Pagination shared.Pagination `json:"pagination"`
}

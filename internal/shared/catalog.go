package shared

// Permission catalog. Role and permission names are configuration,
// not protocol: seeds may extend them, handlers reference them by
// these constants.
const (
	PermCreatePost    = "create_post"
	PermEditPostOwn   = "edit_post_own"
	PermDeletePostOwn = "delete_post_own"
	PermDeletePostAny = "delete_post_any"

	PermCreateComment    = "create_comment"
	PermEditCommentOwn   = "edit_comment_own"
	PermDeleteCommentOwn = "delete_comment_own"
	PermDeleteCommentAny = "delete_comment_any"

	PermAssignRole       = "assign_role"
	PermUpdateProfileOwn = "update_profile_own"
	PermViewUsers        = "view_users"
	PermViewPosts        = "view_posts"
)

// Well-known role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// PermissionCatalog lists every permission the routes reference.
func PermissionCatalog() []string {
	return []string{
		PermCreatePost,
		PermEditPostOwn,
		PermDeletePostOwn,
		PermDeletePostAny,
		PermCreateComment,
		PermEditCommentOwn,
		PermDeleteCommentOwn,
		PermDeleteCommentAny,
		PermAssignRole,
		PermUpdateProfileOwn,
		PermViewUsers,
		PermViewPosts,
	}
}

package posts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

type mockRepository struct {
	posts  map[int64]*Post
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{posts: make(map[int64]*Post), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, title, content string, visibility Visibility, authorID int64) (*Post, error) {
	post := &Post{
		ID:         m.nextID,
		Title:      title,
		Content:    content,
		Visibility: visibility,
		AuthorID:   authorID,
		AuthorName: "Author",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.nextID++
	m.posts[post.ID] = post
	return post, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Post, int, error) {
	var matched []Post
	for _, post := range m.posts {
		if filter.AuthorID != 0 && post.AuthorID != filter.AuthorID {
			continue
		}
		if filter.PublicOnly && post.Visibility != VisibilityPublic {
			continue
		}
		if filter.AuthorID == 0 && !filter.PublicOnly &&
			post.Visibility == VisibilityPrivate && post.AuthorID != filter.ViewerID {
			continue
		}
		if filter.Search != "" && !strings.Contains(post.Title, filter.Search) &&
			!strings.Contains(post.Content, filter.Search) {
			continue
		}
		matched = append(matched, *post)
	}
	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *mockRepository) Update(ctx context.Context, post *Post) error {
	stored, ok := m.posts[post.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	*stored = *post
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, logger), repo
}

func principalWithPerms(id int64, perms ...string) *rbac.Principal {
	role := rbac.Role{ID: 1, Name: "test"}
	for i, name := range perms {
		role.Permissions = append(role.Permissions, rbac.Permission{ID: int64(i + 1), Name: name})
	}
	return rbac.NewPrincipal(id, "Test User", "test@example.com", []rbac.Role{role})
}

func seedPost(t *testing.T, svc *Service, authorID int64, visibility Visibility) *Post {
	t.Helper()
	principal := principalWithPerms(authorID, shared.PermCreatePost)
	post, err := svc.Create(context.Background(), principal, CreatePostRequest{
		Title:      "A title",
		Content:    "Some words worth reading.",
		Visibility: string(visibility),
	})
	require.NoError(t, err)
	return post
}

func TestCreateDefaultsToPublic(t *testing.T) {
	svc, _ := newTestService()
	principal := principalWithPerms(1, shared.PermCreatePost)

	post, err := svc.Create(context.Background(), principal, CreatePostRequest{
		Title:   "Untitled",
		Content: "body",
	})
	require.NoError(t, err)
	assert.Equal(t, VisibilityPublic, post.Visibility)
	assert.Equal(t, int64(1), post.AuthorID)
}

func TestGetPublicPost(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPublic)

	got, err := svc.Get(context.Background(), principalWithPerms(2), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	// Anonymous viewers see public posts too.
	got, err = svc.Get(context.Background(), nil, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func TestGetPrivatePostOwnerOnly(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPrivate)

	got, err := svc.Get(context.Background(), principalWithPerms(1), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	_, err = svc.Get(context.Background(), principalWithPerms(2), post.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestMaskedPostIndistinguishableFromMissing(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPrivate)

	viewer := principalWithPerms(2)
	_, maskedErr := svc.Get(context.Background(), viewer, post.ID)
	_, missingErr := svc.Get(context.Background(), viewer, post.ID+1000)

	require.Error(t, maskedErr)
	require.Error(t, missingErr)
	// Identical messages modulo the id, so existence cannot be probed.
	assert.Equal(t,
		strings.ReplaceAll(missingErr.Error(), "1001", "1"),
		maskedErr.Error())
}

func TestListIncludesOwnPrivatePosts(t *testing.T) {
	svc, _ := newTestService()
	seedPost(t, svc, 1, VisibilityPublic)
	seedPost(t, svc, 1, VisibilityPrivate)
	seedPost(t, svc, 2, VisibilityPrivate)

	resp, err := svc.List(context.Background(), principalWithPerms(1), ListPostsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Posts, 2)

	resp, err = svc.List(context.Background(), nil, ListPostsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Posts, 1)
}

func TestListByAuthorHidesPrivateFromOthers(t *testing.T) {
	svc, _ := newTestService()
	seedPost(t, svc, 1, VisibilityPublic)
	seedPost(t, svc, 1, VisibilityPrivate)

	resp, err := svc.ListByAuthor(context.Background(), principalWithPerms(1), 1, ListPostsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Posts, 2)

	resp, err = svc.ListByAuthor(context.Background(), principalWithPerms(2), 1, ListPostsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Posts, 1)
}

func TestListPageOutOfRange(t *testing.T) {
	svc, _ := newTestService()
	seedPost(t, svc, 1, VisibilityPublic)

	_, err := svc.List(context.Background(), principalWithPerms(1), ListPostsRequest{Page: 7})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
	assert.Contains(t, err.Error(), "page 7 not found")
}

func TestListEmptyFirstPageIsValid(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.List(context.Background(), principalWithPerms(1), ListPostsRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Posts)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
}

func TestListEmptyListingAnyPageIsValid(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.List(context.Background(), principalWithPerms(1), ListPostsRequest{Page: 2})
	require.NoError(t, err)
	assert.Empty(t, resp.Posts)
	assert.Equal(t, 0, resp.Pagination.Total)

	resp, err = svc.ListByAuthor(context.Background(), principalWithPerms(2), 1, ListPostsRequest{Page: 5})
	require.NoError(t, err)
	assert.Empty(t, resp.Posts)
}

func TestUpdateByOwner(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPublic)

	title := "Renamed"
	visibility := string(VisibilityPrivate)
	updated, err := svc.Update(context.Background(), principalWithPerms(1, shared.PermEditPostOwn), post.ID, UpdatePostRequest{
		Title:      &title,
		Visibility: &visibility,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, VisibilityPrivate, updated.Visibility)
	// Untouched fields survive.
	assert.Equal(t, post.Content, updated.Content)
}

func TestUpdateByNonOwnerForbidden(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPublic)

	title := "Hijacked"
	// Even delete_post_any does not allow editing someone else's post.
	intruder := principalWithPerms(2, shared.PermEditPostOwn, shared.PermDeletePostAny)
	_, err := svc.Update(context.Background(), intruder, post.ID, UpdatePostRequest{Title: &title})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestDeleteByOwner(t *testing.T) {
	svc, repo := newTestService()
	post := seedPost(t, svc, 1, VisibilityPublic)

	err := svc.Delete(context.Background(), principalWithPerms(1, shared.PermDeletePostOwn), post.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.posts)
}

func TestDeleteByOwnerWithoutPermission(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPublic)

	err := svc.Delete(context.Background(), principalWithPerms(1, shared.PermViewPosts), post.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestDeleteByModerator(t *testing.T) {
	svc, repo := newTestService()
	post := seedPost(t, svc, 1, VisibilityPublic)

	err := svc.Delete(context.Background(), principalWithPerms(9, shared.PermDeletePostAny), post.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.posts)
}

func TestDeleteByOtherWithOwnPermForbidden(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPublic)

	err := svc.Delete(context.Background(), principalWithPerms(2, shared.PermDeletePostOwn), post.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestDeleteMaskedPrivatePost(t *testing.T) {
	svc, _ := newTestService()
	post := seedPost(t, svc, 1, VisibilityPrivate)

	// A moderator who cannot see the private post cannot delete it
	// either: masking runs before the permission check.
	err := svc.Delete(context.Background(), principalWithPerms(9, shared.PermDeletePostAny), post.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestTimeToRead(t *testing.T) {
	assert.Equal(t, 1, TimeToRead(""))
	assert.Equal(t, 1, TimeToRead("a few words"))
	assert.Equal(t, 1, TimeToRead(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, TimeToRead(strings.Repeat("word ", 201)))
	assert.Equal(t, 3, TimeToRead(strings.Repeat("word ", 500)))
}

func TestListComputesTimeToRead(t *testing.T) {
	svc, _ := newTestService()
	principal := principalWithPerms(1, shared.PermCreatePost)
	_, err := svc.Create(context.Background(), principal, CreatePostRequest{
		Title:   "Long read",
		Content: strings.Repeat("word ", 450),
	})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), principal, ListPostsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, 3, resp.Posts[0].TimeToRead)
}

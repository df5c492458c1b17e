package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	_ "github.com/inkwell-blog/inkwell/testing"
)

type stubPrincipals struct {
	principals map[int64]*rbac.Principal
}

func (s *stubPrincipals) FindPrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error) {
	principal, ok := s.principals[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return principal, nil
}

func newTestMiddleware(principals map[int64]*rbac.Principal) (auth.Middleware, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", "15m", "7d")
	return auth.Middleware{Tokens: tokens, Principals: &stubPrincipals{principals: principals}}, tokens
}

func captureRequest(mw auth.Middleware) (http.Handler, **http.Request) {
	var seen *http.Request
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seen
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	principal := rbac.NewPrincipal(7, "Ada", "ada@example.com", []rbac.Role{
		{ID: 1, Name: "user", Permissions: []rbac.Permission{{ID: 1, Name: "view_posts"}}},
	})
	mw, tokens := newTestMiddleware(map[int64]*rbac.Principal{7: principal})
	handler, seen := captureRequest(mw)

	token, err := tokens.Sign(7, "Ada")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	got := rbac.PrincipalFromContext((*seen).Context())
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ID)
	assert.True(t, got.HasPermission("view_posts"))
}

func TestAuthenticateMissingHeader(t *testing.T) {
	mw, _ := newTestMiddleware(nil)
	handler, _ := captureRequest(mw)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	mw, tokens := newTestMiddleware(nil)
	handler, _ := captureRequest(mw)

	token, err := tokens.Sign(7, "Ada")
	require.NoError(t, err)

	for _, header := range []string{token, "Basic " + token, "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, http.StatusUnauthorized, res.Code, "header %q", header)
	}
}

func TestAuthenticateBadToken(t *testing.T) {
	mw, _ := newTestMiddleware(nil)
	handler, _ := captureRequest(mw)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	mw, tokens := newTestMiddleware(map[int64]*rbac.Principal{})
	handler, _ := captureRequest(mw)

	token, err := tokens.Sign(99, "Ghost")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

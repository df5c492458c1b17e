package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
)

// PrincipalLoader resolves a user id to a principal snapshot.
type PrincipalLoader interface {
	FindPrincipalByID(ctx context.Context, id int64) (*rbac.Principal, error)
}

// Middleware resolves the request principal from a bearer token.
type Middleware struct {
	Logger     *slog.Logger
	Tokens     *TokenManager
	Principals PrincipalLoader
}

// Authenticate verifies the Authorization header, loads the user with
// roles and permissions, and attaches the principal to the request
// context. Every verification failure is a bare 401: the reason stays
// in the log.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		claims, err := m.Tokens.Verify(token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Info("token rejected", slog.Any("error", err))
			}
			unauthorized(w)
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("token subject not numeric", slog.String("subject", claims.Subject))
			}
			unauthorized(w)
			return
		}

		principal, err := m.Principals.FindPrincipalByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				// Token outlived its user.
				unauthorized(w)
				return
			}
			if m.Logger != nil {
				m.Logger.Error("load principal", slog.Any("error", err), slog.Int64("user_id", userID))
			}
			httpx.RespondError(w, err)
			return
		}

		ctx := rbac.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
}

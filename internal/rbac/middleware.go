package rbac

import (
	"net/http"
	"strings"

	"log/slog"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

// Middleware wires RBAC authorization helpers for HTTP handlers. It
// assumes authentication already ran: a missing principal on a
// guarded route is an integration fault and is reported as 403, never
// 401.
type Middleware struct {
	Logger *slog.Logger
	// VerboseDenials adds the required permission list to denial
	// responses. Off by default: the log carries the detail instead.
	VerboseDenials bool
}

// RequireAny ensures the principal holds at least one of the required
// permissions. An empty list leaves the route unguarded. The
// disjunction is deliberate: delete routes declare both the own and
// the any variant and either one suffices.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				if m.Logger != nil {
					m.Logger.Warn("authorization without principal", slog.String("path", r.URL.Path))
				}
				m.deny(w, normalized)
				return
			}
			if hasAnyPermission(principal, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			m.logDenied(r, principal, normalized)
			m.deny(w, normalized)
		})
	}
}

// RequireAll ensures the principal holds every required permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				if m.Logger != nil {
					m.Logger.Warn("authorization without principal", slog.String("path", r.URL.Path))
				}
				m.deny(w, normalized)
				return
			}
			if hasAllPermissions(principal, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			m.logDenied(r, principal, normalized)
			m.deny(w, normalized)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, required []string) {
	detail := "insufficient permissions"
	if m.VerboseDenials {
		detail = "insufficient permissions, required: " + strings.Join(required, ", ")
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", detail)
}

func (m Middleware) logDenied(r *http.Request, principal *Principal, required []string) {
	if m.Logger == nil {
		return
	}
	m.Logger.Warn("permission denied",
		slog.Int64("user_id", principal.ID),
		slog.String("path", r.URL.Path),
		slog.String("required", strings.Join(required, ",")),
	)
	m.Logger.Debug("principal permissions",
		slog.Int64("user_id", principal.ID),
		slog.String("held", strings.Join(principal.Permissions(), ",")),
	)
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(principal *Principal, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if principal.HasPermission(r) {
			return true
		}
	}
	return false
}

func hasAllPermissions(principal *Principal, required []string) bool {
	for _, r := range required {
		if !principal.HasPermission(r) {
			return false
		}
	}
	return true
}

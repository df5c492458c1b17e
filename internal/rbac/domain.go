package rbac

import (
	"sort"
	"strings"
)

// Permission represents an atomic capability.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Role represents a named bundle of permissions.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Principal is the authenticated actor for one request: a read-only
// snapshot of the user and their roles, resolved once from a valid
// token. It carries no credential material and is never persisted.
type Principal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Roles []Role `json:"roles"`

	perms map[string]struct{}
}

// NewPrincipal builds a Principal and flattens the permission names of
// all roles into one set. Duplicates collapse; a role without
// permissions contributes nothing.
func NewPrincipal(id int64, name, email string, roles []Role) *Principal {
	perms := make(map[string]struct{})
	for _, role := range roles {
		for _, perm := range role.Permissions {
			perms[strings.ToLower(perm.Name)] = struct{}{}
		}
	}
	return &Principal{ID: id, Name: name, Email: email, Roles: roles, perms: perms}
}

// HasPermission reports whether the flattened permission set contains
// the named permission.
func (p *Principal) HasPermission(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.perms[strings.ToLower(name)]
	return ok
}

// Permissions returns the flattened permission names, sorted.
func (p *Principal) Permissions() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.perms))
	for name := range p.perms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

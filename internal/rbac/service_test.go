package rbac

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

type mockRepository struct {
	users       map[int64]*UserWithRoles
	roles       map[string]Role
	memberships map[int64]map[int64]bool
	permissions []Permission
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:       make(map[int64]*UserWithRoles),
		roles:       make(map[string]Role),
		memberships: make(map[int64]map[int64]bool),
	}
}

func (m *mockRepository) addUser(id int64, name, email string) {
	m.users[id] = &UserWithRoles{ID: id, Name: name, Email: email}
	m.memberships[id] = make(map[int64]bool)
}

func (m *mockRepository) addRole(id int64, name string) {
	m.roles[name] = Role{ID: id, Name: name}
}

func (m *mockRepository) grant(userID int64, roleName string) {
	m.memberships[userID][m.roles[roleName].ID] = true
}

func (m *mockRepository) roleNames(userID int64) []string {
	var names []string
	for name, role := range m.roles {
		if m.memberships[userID][role.ID] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *mockRepository) WithinTx(ctx context.Context, fn func(TxStore) error) error {
	return fn(m)
}

func (m *mockRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	return m.permissions, nil
}

func (m *mockRepository) GetUser(ctx context.Context, userID int64) (*UserWithRoles, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockRepository) GetRoleID(ctx context.Context, roleName string) (int64, error) {
	role, ok := m.roles[roleName]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	return role.ID, nil
}

func (m *mockRepository) HasRole(ctx context.Context, userID, roleID int64) (bool, error) {
	return m.memberships[userID][roleID], nil
}

func (m *mockRepository) AttachRole(ctx context.Context, userID, roleID int64) error {
	m.memberships[userID][roleID] = true
	return nil
}

func (m *mockRepository) DetachRole(ctx context.Context, userID, roleID int64) error {
	delete(m.memberships[userID], roleID)
	return nil
}

func (m *mockRepository) ListUserRoles(ctx context.Context, userID int64) ([]Role, error) {
	var roles []Role
	for _, role := range m.roles {
		if m.memberships[userID][role.ID] {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func newRoleService() (*Service, *mockRepository) {
	repo := newMockRepository()
	repo.addUser(1, "Ada", "ada@example.com")
	repo.addRole(1, "admin")
	repo.addRole(2, "user")
	repo.grant(1, "user")
	return NewService(repo, nil), repo
}

func TestAssignRole(t *testing.T) {
	svc, repo := newRoleService()

	user, err := svc.AssignRole(context.Background(), 1, "admin")
	require.NoError(t, err)
	require.Len(t, user.Roles, 2)
	assert.Equal(t, "admin", user.Roles[0].Name)
	assert.Equal(t, "user", user.Roles[1].Name)
	assert.Equal(t, []string{"admin", "user"}, repo.roleNames(1))
}

func TestRevokeRole(t *testing.T) {
	svc, repo := newRoleService()

	user, err := svc.RevokeRole(context.Background(), 1, "user")
	require.NoError(t, err)
	assert.Empty(t, user.Roles)
	assert.Empty(t, repo.roleNames(1))
}

func TestRoleChangeValidation(t *testing.T) {
	tests := []struct {
		name     string
		assign   bool
		userID   int64
		roleName string
		wantErr  error
	}{
		{"duplicate assign", true, 1, "user", httpx.ErrValidation},
		{"absent revoke", false, 1, "admin", httpx.ErrValidation},
		{"assign missing user", true, 99, "admin", httpx.ErrNotFound},
		{"revoke missing user", false, 99, "user", httpx.ErrNotFound},
		{"assign missing role", true, 1, "superuser", httpx.ErrNotFound},
		{"revoke missing role", false, 1, "superuser", httpx.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newRoleService()

			var err error
			if tt.assign {
				_, err = svc.AssignRole(context.Background(), tt.userID, tt.roleName)
			} else {
				_, err = svc.RevokeRole(context.Background(), tt.userID, tt.roleName)
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			// A rejected change leaves the role set untouched.
			assert.Equal(t, []string{"user"}, repo.roleNames(1))
		})
	}
}

func TestAssignRoleTrimsName(t *testing.T) {
	svc, _ := newRoleService()

	user, err := svc.AssignRole(context.Background(), 1, "  admin  ")
	require.NoError(t, err)
	require.Len(t, user.Roles, 2)
	assert.Equal(t, "admin", user.Roles[0].Name)
}

func TestListPermissionsPassthrough(t *testing.T) {
	repo := newMockRepository()
	repo.permissions = []Permission{{ID: 1, Name: "assign_role"}}
	svc := NewService(repo, nil)

	perms, err := svc.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "assign_role", perms[0].Name)
}

package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	tests := []struct {
		name       string
		usr        *User
		resource   string
		wantView   bool
		wantCreate bool
		wantEdit   bool
		wantDelete bool
	}{
		{name: "no user", usr: nil, resource: "student"},
		{name: "no roles", usr: &User{}, resource: "student"},
		{
			name: "owner can do anything", usr: &User{Roles: []string{RoleAdminOwner}}, resource: "student",
			wantView: true, wantCreate: true, wantEdit: true, wantDelete: true,
		},
		{name: "admin views only", usr: &User{Roles: []string{RoleAdmin}}, resource: "fee-payment", wantView: true},
		{
			name: "bursar manages fee payments", usr: &User{Roles: []string{RoleAdminBursar}}, resource: "fee-payment",
			wantView: true, wantCreate: true, wantEdit: true, wantDelete: true,
		},
		{name: "bursar views students", usr: &User{Roles: []string{RoleAdminBursar}}, resource: "student", wantView: true},
		{name: "bursar cannot see roles", usr: &User{Roles: []string{RoleAdminBursar}}, resource: "role"},
		{name: "lecturer edits courses", usr: &User{Roles: []string{RoleLecturer}}, resource: "course", wantView: true, wantEdit: true},
		{name: "student files appeals", usr: &User{Roles: []string{RoleStudent}}, resource: "appeal", wantView: true, wantCreate: true},
		{name: "student cannot view students", usr: &User{Roles: []string{RoleStudent}}, resource: "student"},
		{
			name: "explicit permissions", usr: &User{Permissions: []string{"student:view", " student:delete "}}, resource: "student",
			wantView: true, wantDelete: true,
		},
		{
			name: "resource wildcard", usr: &User{Permissions: []string{"role:*"}}, resource: "role",
			wantView: true, wantCreate: true, wantEdit: true, wantDelete: true,
		},
		{name: "action wildcard", usr: &User{Permissions: []string{"*:edit"}}, resource: "program", wantEdit: true},
		{name: "unknown role", usr: &User{Roles: []string{"janitor:"}}, resource: "course"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.usr)
			assert.Equal(t, tt.wantView, g.CanView(tt.resource), "CanView")
			assert.Equal(t, tt.wantCreate, g.CanCreate(tt.resource), "CanCreate")
			assert.Equal(t, tt.wantEdit, g.CanEdit(tt.resource), "CanEdit")
			assert.Equal(t, tt.wantDelete, g.CanDelete(tt.resource), "CanDelete")
		})
	}
}

func TestGate_Permissions(t *testing.T) {
	g := NewGate(&User{Roles: []string{RoleLecturer, RoleStudent}, Permissions: []string{"course:view", ""}})
	assert.Equal(t, []string{"appeal:create", "appeal:view", "course:edit", "course:view", "program:view", "student:view"}, g.Permissions())
}

func TestMaxRolePriority(t *testing.T) {
	assert.Equal(t, 0, MaxRolePriority(nil))
	assert.Equal(t, 11, MaxRolePriority([]string{RoleStudent, RoleLecturer}))
	assert.Equal(t, 30, MaxRolePriority(AllRoles))
}

package user

import (
	"sort"
	"strings"
)

// Actions checked by the Gate.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"

	wildcard = "*"
)

// RolePermissions are the permissions granted by each role, on top of the user's explicit ones.
// A permission is "<resource>:<action>"; either side may be "*".
var RolePermissions = map[string][]string{
	RoleAdminOwner:     {"*"},
	RoleAdmin:          {"*:view"},
	RoleAdminRegistrar: {"*:view", "student:*", "program:*", "course:*", "appeal:*"},
	RoleAdminBursar:    {"student:view", "fee-payment:*"},
	RoleLecturer:       {"course:view", "course:edit", "student:view", "appeal:view"},
	RoleStudent:        {"course:view", "program:view", "appeal:view", "appeal:create"},
}

// Permission builds the permission string of an action on a resource.
func Permission(resource, action string) string {
	return resource + ":" + action
}

// Gate answers whether the current user may view, create, edit or delete a resource.
// It is a pure function of the user's roles and permissions: no I/O.
type Gate struct {
	perms []string // sorted
}

// NewGate computes the permission set of usr. A nil user gets an empty Gate.
func NewGate(usr *User) Gate {
	if usr == nil {
		return Gate{}
	}
	set := make(map[string]struct{})
	for _, role := range usr.Roles {
		for _, p := range RolePermissions[role] {
			set[p] = struct{}{}
		}
	}
	for _, p := range usr.Permissions {
		set[strings.TrimSpace(p)] = struct{}{}
	}
	perms := make([]string, 0, len(set))
	for p := range set {
		if p != "" {
			perms = append(perms, p)
		}
	}
	sort.Strings(perms)
	return Gate{perms: perms}
}

// Permissions returns the expanded permission set, sorted.
func (g Gate) Permissions() []string {
	return append([]string(nil), g.perms...)
}

func (g Gate) CanView(resource string) bool   { return g.Allowed(resource, ActionView) }
func (g Gate) CanCreate(resource string) bool { return g.Allowed(resource, ActionCreate) }
func (g Gate) CanEdit(resource string) bool   { return g.Allowed(resource, ActionEdit) }
func (g Gate) CanDelete(resource string) bool { return g.Allowed(resource, ActionDelete) }

// Allowed reports whether any permission of the gate matches resource:action.
func (g Gate) Allowed(resource, action string) bool {
	for _, p := range g.perms {
		if matches(p, resource, action) {
			return true
		}
	}
	return false
}

func matches(perm, resource, action string) bool {
	if perm == wildcard {
		return true
	}
	res, act := perm, wildcard
	if i := strings.LastIndex(perm, ":"); i >= 0 {
		res, act = perm[:i], perm[i+1:]
	}
	return (res == wildcard || res == resource) && (act == wildcard || act == action)
}

package user

import (
	"strings"

	"github.com/trezcool/campus/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminRegistrar = "admin:registrar"
	RoleAdminBursar    = "admin:bursar"

	// Lecturer
	RoleLecturer = "lecturer:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles    = []string{RoleAdmin, RoleAdminOwner, RoleAdminRegistrar, RoleAdminBursar}
	LecturerRoles = []string{RoleLecturer}
	StudentRoles  = []string{RoleStudent}
	AllRoles      = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminRegistrar: 25,
		RoleAdminBursar:    25,
		RoleAdmin:          21,

		// Lecturers: 20 - 11
		RoleLecturer: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}
)

func getAllRoles() []string {
	all := make([]string, 0, len(AdminRoles)+len(LecturerRoles)+len(StudentRoles))
	all = append(all, AdminRoles...)
	all = append(all, LecturerRoles...)
	all = append(all, StudentRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

// Role is the roles resource: a named set of permissions managed through the API.
// Its permissions are also reachable via the /roles/{id}/permissions sub-route.
type Role struct {
	core.Model
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// RoleForm is the typed form state of a Role.
type RoleForm struct {
	Name        string   `json:"name,omitempty" validate:"required,alphanum_"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=250"`
	Permissions []string `json:"permissions,omitempty" validate:"omitempty,dive,required"`
}

func NewRoleForm() RoleForm { return RoleForm{} }

func RoleFormFrom(r Role) RoleForm {
	return RoleForm{Name: r.Name, Description: r.Description, Permissions: r.Permissions}
}

// User is the authenticated user of the console, as described by its token claims.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsLecturer() bool {
	return u.RoleStartsWith(RoleLecturer)
}

func (u *User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

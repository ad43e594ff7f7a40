package user

import "strings"

// Roles
const (
	// Admin
	RoleAdmin = "admin:"

	// Staff
	RoleStaff         = "staff:"
	RoleAcademics     = "staff:academics"
	RoleSystemManager = "staff:system"

	// Teacher
	RoleTeacher = "teacher:"

	// Applicant
	RoleApplicant = "applicant:"
)

var (
	AdminRoles     = []string{RoleAdmin}
	StaffRoles     = []string{RoleStaff, RoleAcademics, RoleSystemManager}
	TeacherRoles   = []string{RoleTeacher}
	ApplicantRoles = []string{RoleApplicant}
	AllRoles       = getAllRoles()
)

func getAllRoles() []string {
	all := make([]string, 0, 6)
	all = append(all, AdminRoles...)
	all = append(all, StaffRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, ApplicantRoles...)
	return all
}

// User is the actor performing an operation. Identity comes from the auth token,
// users are not stored by this service.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// System is the actor used for internal system updates, eg. scheduled jobs.
var System = User{ID: "system", Username: "system", Roles: []string{RoleSystemManager}}

// Name returns the identifier recorded on documents (validated_by, validator...).
func (u User) Name() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID
}

func (u User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u User) IsStaff() bool {
	return u.RoleStartsWith(RoleStaff)
}

func (u User) IsApplicant() bool {
	return u.RoleStartsWith(RoleApplicant)
}

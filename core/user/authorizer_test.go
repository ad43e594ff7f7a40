package user

import "testing"

func TestRoleAuthorizer_CanElevatedWrite(t *testing.T) {
	auth := NewRoleAuthorizer(RoleAcademics, RoleSystemManager)

	tests := []struct {
		name string
		usr  User
		want bool
	}{
		{name: "no roles", usr: User{Username: "anon"}},
		{name: "applicant", usr: User{Username: "app", Roles: []string{RoleApplicant}}},
		{name: "teacher", usr: User{Username: "teach", Roles: []string{RoleTeacher}}},
		{name: "admin", usr: User{Username: "admin", Roles: []string{RoleAdmin}}, want: true},
		{name: "academics", usr: User{Username: "acad", Roles: []string{RoleAcademics}}, want: true},
		{name: "system manager", usr: User{Username: "sys", Roles: []string{RoleSystemManager}}, want: true},
		{name: "generic staff", usr: User{Username: "staff", Roles: []string{RoleStaff}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auth.CanElevatedWrite(tt.usr); got != tt.want {
				t.Errorf("CanElevatedWrite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_Name(t *testing.T) {
	tests := []struct {
		name string
		usr  User
		want string
	}{
		{name: "username", usr: User{ID: "1", Username: "jdoe", Email: "j@test.cd"}, want: "jdoe"},
		{name: "email", usr: User{ID: "1", Email: "j@test.cd"}, want: "j@test.cd"},
		{name: "id", usr: User{ID: "1"}, want: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usr.Name(); got != tt.want {
				t.Errorf("Name() = %v, want %v", got, tt.want)
			}
		})
	}
}

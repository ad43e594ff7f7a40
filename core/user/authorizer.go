package user

// Authorizer decides whether an actor may perform elevated writes,
// ie. change status fields that are locked once a submission is committed.
type Authorizer interface {
	CanElevatedWrite(usr User) bool
}

type roleAuthorizer struct {
	roles []string
}

var _ Authorizer = (*roleAuthorizer)(nil) // interface compliance check

// NewRoleAuthorizer grants elevated writes to admins and to any user holding one of `roles`.
func NewRoleAuthorizer(roles ...string) Authorizer {
	return &roleAuthorizer{roles: roles}
}

func (a roleAuthorizer) CanElevatedWrite(usr User) bool {
	if usr.IsAdmin() {
		return true
	}
	for _, role := range a.roles {
		if usr.HasRole(role) {
			return true
		}
	}
	return false
}

// AuthorizerFunc adapts a func to an Authorizer.
type AuthorizerFunc func(usr User) bool

func (f AuthorizerFunc) CanElevatedWrite(usr User) bool { return f(usr) }

package constants

const (
	Admin = "admin"
	User  = "user"
)

// ValidRoles is the set of allowed DB enum values for user role.
var ValidRoles = []string{User, Admin}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

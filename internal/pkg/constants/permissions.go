package constants

const (
	TrackProgress  = "track_progress"
	WriteReview    = "write_review"
	ManageListings = "manage_listings"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	TrackProgress:  {User, Admin},
	WriteReview:    {User, Admin},
	ManageListings: {Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	return contains(roles, role)
}

// AdminOnly reports whether only the admin role holds the permission.
func AdminOnly(permission string) bool {
	roles := PermissionRoles[permission]
	return len(roles) == 1 && roles[0] == Admin
}

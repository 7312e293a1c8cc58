package constants

const (
	Vendor = "vendor"
	Admin  = "admin"
)

// ValidRoles is the set of allowed values for profiles.role (must match the profiles_role_check constraint).
var ValidRoles = []string{Vendor, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

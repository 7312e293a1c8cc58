package constants

import roles "procurement-portal/internal/pkg/constants"

// PermissionRoles maps each permission to roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewRFPs:         {roles.Vendor, roles.Admin},
	ManageRFPs:       {roles.Admin},
	ManageCategories: {roles.Admin},
	SubmitBids:       {roles.Vendor},
	ReviewBids:       {roles.Admin},
	AwardContracts:   {roles.Admin},
	ManageContracts:  {roles.Admin},
	ViewContracts:    {roles.Vendor, roles.Admin},
	ManageUsers:      {roles.Admin},
	CheckIntegrity:   {roles.Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	allowed, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

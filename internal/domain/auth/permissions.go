package auth

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

const (
	PermPeopleRead       = "people.read"
	PermPeopleWrite      = "people.write"
	PermCategoriesWrite  = "leave.categories.write"
	PermLeaveRead        = "leave.read"
	PermLeaveWrite       = "leave.write"
	PermLeaveApprove     = "leave.approve"
	PermAllocationsRun   = "leave.allocations.run"
	PermReportsRead      = "reports.read"
	PermAuditRead        = "audit.read"
	PermNotificationsUse = "notifications.use"
)

var RolePermissions = map[string][]string{
	RoleStaff: {
		PermLeaveRead,
		PermLeaveWrite,
		PermNotificationsUse,
	},
	RoleAdmin: {
		PermPeopleRead,
		PermPeopleWrite,
		PermCategoriesWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermAllocationsRun,
		PermReportsRead,
		PermAuditRead,
		PermNotificationsUse,
	},
}

// HasPermission answers against the static role map; roles are fixed at
// staff/admin so there is no permissions table to consult.
func HasPermission(role, permission string) bool {
	for _, candidate := range RolePermissions[role] {
		if candidate == permission {
			return true
		}
	}
	return false
}

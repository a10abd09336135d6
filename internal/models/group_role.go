package models

// GroupRole names a tier within a group. Authorization never compares role
// names directly; it compares PermissionLevel against the thresholds below,
// so a new tier only needs an entry in rolePermissionLevels.
type GroupRole string

const (
	RoleOwner    GroupRole = "Owner"
	RoleManager  GroupRole = "Manager"
	RoleTeamLead GroupRole = "TeamLead"
	RoleMember   GroupRole = "Member"
)

// Permission thresholds
const (
	PermissionMember   = 25
	PermissionTeamLead = 50
	PermissionManager  = 75
	PermissionOwner    = 100
)

var rolePermissionLevels = map[GroupRole]int{
	RoleOwner:    PermissionOwner,
	RoleManager:  PermissionManager,
	RoleTeamLead: PermissionTeamLead,
	RoleMember:   PermissionMember,
}

// PermissionLevel returns the role's tier, or 0 for unknown roles.
func (r GroupRole) PermissionLevel() int {
	return rolePermissionLevels[r]
}

// IsValid reports whether the role is a known tier.
func (r GroupRole) IsValid() bool {
	_, ok := rolePermissionLevels[r]
	return ok
}

// AtLeast reports whether the role meets the given permission threshold.
func (r GroupRole) AtLeast(level int) bool {
	return r.PermissionLevel() >= level
}

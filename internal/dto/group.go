package dto

import (
	"time"

	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/services"
)

// GroupDTO represents a group in API responses
type GroupDTO struct {
	ID                  uint64           `json:"id"`
	Name                string           `json:"name"`
	Code                string           `json:"code,omitempty"`
	OwnerID             uint64           `json:"owner_id"`
	IsActive            bool             `json:"is_active"`
	IsPasswordProtected bool             `json:"is_password_protected"`
	Version             int              `json:"version"`
	CreatedAt           time.Time        `json:"created_at"`
	Role                models.GroupRole `json:"role,omitempty"`
	MemberCount         int64            `json:"member_count,omitempty"`
}

// MemberDTO represents a group member in API responses
type MemberDTO struct {
	ID              uint64           `json:"id"`
	UserID          uint64           `json:"user_id"`
	Username        string           `json:"username,omitempty"`
	Role            models.GroupRole `json:"role"`
	PermissionLevel int              `json:"permission_level"`
	JoinedAt        time.Time        `json:"joined_at"`
}

// GroupDetailsDTO is a group with its members
type GroupDetailsDTO struct {
	GroupDTO
	Members []MemberDTO `json:"members"`
}

// ToGroupDTO converts a Group model. The join code is only included for
// callers allowed to share it.
func ToGroupDTO(group models.Group, includeCode bool) GroupDTO {
	dto := GroupDTO{
		ID:                  group.ID,
		Name:                group.Name,
		OwnerID:             group.OwnerID,
		IsActive:            group.IsActive,
		IsPasswordProtected: group.IsPasswordProtected(),
		Version:             group.Version,
		CreatedAt:           group.CreatedAt,
	}
	if includeCode {
		dto.Code = group.Code
	}
	return dto
}

// ToMemberDTO converts a GroupMember model
func ToMemberDTO(member models.GroupMember) MemberDTO {
	return MemberDTO{
		ID:              member.ID,
		UserID:          member.UserID,
		Username:        member.User.Username,
		Role:            member.Role,
		PermissionLevel: member.PermissionLevel(),
		JoinedAt:        member.JoinedAt,
	}
}

// ToGroupSummaryDTOs converts a user's group list
func ToGroupSummaryDTOs(summaries []services.GroupSummary) []GroupDTO {
	result := make([]GroupDTO, len(summaries))
	for i, s := range summaries {
		dto := ToGroupDTO(s.Group, s.Role.AtLeast(models.PermissionManager))
		dto.Role = s.Role
		dto.MemberCount = s.MemberCount
		result[i] = dto
	}
	return result
}

// ToGroupDetailsDTO converts group details for the requesting member
func ToGroupDetailsDTO(details *services.GroupDetails) GroupDetailsDTO {
	group := ToGroupDTO(*details.Group, details.CurrentUserRole.AtLeast(models.PermissionManager))
	group.Role = details.CurrentUserRole
	group.MemberCount = int64(len(details.Members))

	members := make([]MemberDTO, len(details.Members))
	for i, m := range details.Members {
		members[i] = ToMemberDTO(m)
	}

	return GroupDetailsDTO{GroupDTO: group, Members: members}
}

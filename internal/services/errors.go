package services

import "errors"

// Membership and authorization
var (
	ErrNotGroupMember         = errors.New("you are not a member of this group")
	ErrInsufficientPermission = errors.New("insufficient permission for this operation")
	ErrInvalidRoleTransition  = errors.New("invalid role transition")
	ErrInvalidRole            = errors.New("invalid role")
	ErrCannotRemoveOwner      = errors.New("cannot remove the group owner")
	ErrCannotRemoveYourself   = errors.New("cannot remove yourself; leave the group instead")
	ErrMemberNotFound         = errors.New("group member not found")
)

// Accounts and tokens
var (
	ErrDuplicateEmail        = errors.New("email is already registered")
	ErrDuplicateUsername     = errors.New("username is already taken")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrAccountDeactivated    = errors.New("account is deactivated")
	ErrPasswordTooShort      = errors.New("password too short")
	ErrInvalidUsername       = errors.New("username is required")
	ErrInvalidEmail          = errors.New("a valid email is required")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidToken          = errors.New("invalid refresh token")
	ErrTokenRevoked          = errors.New("refresh token has been revoked")
	ErrTokenExpired          = errors.New("refresh token has expired")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrFailedToHashPassword  = errors.New("failed to hash password")
)

// Groups
var (
	ErrGroupNotFound          = errors.New("group not found")
	ErrInvalidGroupName       = errors.New("group name cannot be empty")
	ErrInvalidJoinCode        = errors.New("invalid group code")
	ErrGroupInactive          = errors.New("this group is no longer active")
	ErrAlreadyMember          = errors.New("user is already a member of this group")
	ErrGroupPasswordRequired  = errors.New("this group requires a password")
	ErrIncorrectGroupPassword = errors.New("incorrect group password")
	ErrOwnerCannotLeave       = errors.New("group owner cannot leave; delete the group instead")
	ErrJoinCodeGeneration     = errors.New("failed to generate a unique group code")
)

// Tasks, comments and attachments
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidTaskTitle   = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong   = errors.New("task title is too long")
	ErrInvalidAssignee    = errors.New("assignee must be a member of the group")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrNotAssigned        = errors.New("task is not assigned")
	ErrConflict           = errors.New("the resource was modified by another request")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrEmptyComment       = errors.New("comment cannot be empty")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrFileTooLarge       = errors.New("file exceeds the maximum allowed size")
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
	ErrEmptyFile          = errors.New("file is empty")
)

// Audit and AI
var (
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrAIUnavailable     = errors.New("AI task generation is not configured")
	ErrEmptyPrompt       = errors.New("text is required")
)

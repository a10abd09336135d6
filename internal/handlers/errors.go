package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/group-task-api/internal/constants"
	apierrors "github.com/yukikurage/group-task-api/internal/errors"
	"github.com/yukikurage/group-task-api/internal/middleware"
	"github.com/yukikurage/group-task-api/internal/services"
)

// respondServiceError maps service sentinels to API errors. Anything
// unrecognized is logged and answered with a generic 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	// 400
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequestWithDetails(c,
			fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength),
			gin.H{"min_length": constants.MinPasswordLength})
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrInvalidGroupName),
		errors.Is(err, services.ErrInvalidJoinCode),
		errors.Is(err, services.ErrGroupPasswordRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidTaskTitle),
		errors.Is(err, services.ErrTaskTitleTooLong),
		errors.Is(err, services.ErrInvalidAssignee),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrNotAssigned),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrEmptyFile),
		errors.Is(err, services.ErrFileTypeNotAllowed),
		errors.Is(err, services.ErrInvalidEntityType),
		errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrInvalidOrExpiredToken),
		errors.Is(err, services.ErrOwnerCannotLeave),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrCannotRemoveOwner),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidRoleTransition):
		apierrors.Respond(c, http.StatusBadRequest, apierrors.ErrCodeInvalidRoleTransition, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		apierrors.Respond(c, http.StatusRequestEntityTooLarge, apierrors.ErrCodeFileTooLarge, err.Error())

	// 401
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Respond(c, http.StatusUnauthorized, apierrors.ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrAccountDeactivated):
		apierrors.Respond(c, http.StatusUnauthorized, apierrors.ErrCodeAccountDeactivated, err.Error())
	case errors.Is(err, services.ErrInvalidToken):
		apierrors.Respond(c, http.StatusUnauthorized, apierrors.ErrCodeTokenInvalid, err.Error())
	case errors.Is(err, services.ErrTokenRevoked):
		apierrors.Respond(c, http.StatusUnauthorized, apierrors.ErrCodeTokenRevoked, err.Error())
	case errors.Is(err, services.ErrTokenExpired):
		apierrors.Respond(c, http.StatusUnauthorized, apierrors.ErrCodeTokenExpired, err.Error())
	case errors.Is(err, services.ErrIncorrectGroupPassword):
		apierrors.Unauthorized(c, err.Error())

	// 403
	case errors.Is(err, services.ErrNotGroupMember):
		apierrors.Respond(c, http.StatusForbidden, apierrors.ErrCodeNotGroupMember, err.Error())
	case errors.Is(err, services.ErrInsufficientPermission):
		apierrors.Respond(c, http.StatusForbidden, apierrors.ErrCodeInsufficientPermissions, err.Error())
	case errors.Is(err, services.ErrGroupInactive):
		apierrors.Forbidden(c, err.Error())

	// 404
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrAttachmentNotFound),
		errors.Is(err, services.ErrEntityNotFound):
		apierrors.NotFound(c, err.Error())

	// 409
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrDuplicateUsername),
		errors.Is(err, services.ErrAlreadyMember):
		apierrors.Respond(c, http.StatusConflict, apierrors.ErrCodeAlreadyExists, err.Error())
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, err.Error())

	// 503
	case errors.Is(err, services.ErrAIUnavailable):
		apierrors.ServiceUnavailable(c, err.Error())

	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		apierrors.InternalError(c, "")
	}
}

// parseIDParam reads a positive integer path parameter
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

// parseOptionalUint reads an optional positive query parameter
func parseOptionalUint(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
		return nil, false
	}
	return &v, true
}

// requireActor aborts with 401 when the request carries no authenticated user
func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return actor, ok
}

// requireUserID is requireActor for read-only handlers
func requireUserID(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return userID, ok
}

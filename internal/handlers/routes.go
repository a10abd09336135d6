package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/group-task-api/internal/middleware"
	"github.com/yukikurage/group-task-api/internal/utils"
)

// Handlers bundles every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth       *AuthHandler
	Group      *GroupHandler
	Task       *TaskHandler
	Comment    *CommentHandler
	Attachment *AttachmentHandler
	Audit      *AuditHandler
}

// RegisterRoutes mounts the API under /api plus the health check.
func RegisterRoutes(r *gin.Engine, h Handlers, issuer *utils.TokenIssuer) {
	requireAuth := middleware.RequireAuth(issuer)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Group Task API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (mostly public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
			auth.POST("/forgot-password", h.Auth.ForgotPassword)
			auth.POST("/reset-password", h.Auth.ResetPassword)
			auth.POST("/logout-all", requireAuth, h.Auth.LogoutAll)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		}

		groups := api.Group("/groups")
		groups.Use(requireAuth)
		{
			groups.POST("", h.Group.CreateGroup)
			groups.GET("", h.Group.ListGroups)
			groups.POST("/join", h.Group.JoinGroup)
			groups.GET("/:id", h.Group.GetGroup)
			groups.PATCH("/:id", h.Group.UpdateGroup)
			groups.DELETE("/:id", h.Group.DeleteGroup)
			groups.POST("/:id/leave", h.Group.LeaveGroup)
			groups.POST("/:id/regenerate-code", h.Group.RegenerateCode)
			groups.POST("/:id/invite", h.Group.InviteMember)
			groups.PUT("/:id/members/:user_id/role", h.Group.ChangeMemberRole)
			groups.DELETE("/:id/members/:user_id", h.Group.RemoveMember)
			groups.GET("/:id/tasks", h.Task.ListTasks)
			groups.POST("/:id/tasks", h.Task.CreateTask)
			groups.POST("/:id/tasks/generate", h.Task.GenerateTasks)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("/priorities", h.Task.ListPriorities)
			tasks.GET("/:id", h.Task.GetTask)
			tasks.PATCH("/:id", h.Task.UpdateTask)
			tasks.DELETE("/:id", h.Task.DeleteTask)
			tasks.PATCH("/:id/status", h.Task.ChangeStatus)
			tasks.PATCH("/:id/priority", h.Task.ChangePriority)
			tasks.POST("/:id/assign", h.Task.AssignTask)
			tasks.POST("/:id/unassign", h.Task.UnassignTask)

			tasks.GET("/:id/comments", h.Comment.ListComments)
			tasks.POST("/:id/comments", h.Comment.AddComment)
			tasks.PATCH("/:id/comments/:comment_id", h.Comment.UpdateComment)
			tasks.DELETE("/:id/comments/:comment_id", h.Comment.DeleteComment)

			tasks.GET("/:id/attachments", h.Attachment.ListAttachments)
			tasks.POST("/:id/attachments", h.Attachment.UploadAttachment)
			tasks.GET("/:id/attachments/:attachment_id", h.Attachment.GetAttachment)
			tasks.GET("/:id/attachments/:attachment_id/download", h.Attachment.DownloadAttachment)
			tasks.DELETE("/:id/attachments/:attachment_id", h.Attachment.DeleteAttachment)
		}

		audit := api.Group("/audit")
		audit.Use(requireAuth)
		{
			audit.GET("/entities/:type/:id", h.Audit.GetEntityHistory)
			audit.GET("/groups/:id", h.Audit.GetGroupHistory)
			audit.GET("/users/:id", h.Audit.GetUserHistory)
			audit.GET("/tasks/:id", h.Audit.GetTaskHistory)
		}
	}
}

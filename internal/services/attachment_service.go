package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/yukikurage/group-task-api/internal/models"
	"github.com/yukikurage/group-task-api/internal/repository"
	"github.com/yukikurage/group-task-api/internal/storage"
	"gorm.io/gorm"
)

// AttachmentLimits bounds what may be uploaded.
type AttachmentLimits struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// Allows reports whether fileName has an allowed extension. An empty
// allow-list allows everything.
func (l AttachmentLimits) Allows(fileName string) bool {
	if len(l.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range l.AllowedExtensions {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}
		if ext == allowed {
			return true
		}
	}
	return false
}

// UploadInput is one file to attach.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentService handles task attachments and their stored bytes.
type AttachmentService struct {
	attachmentRepo repository.AttachmentRepository
	taskRepo       repository.TaskRepository
	membership     *MembershipService
	audit          *AuditService
	store          storage.Storage
	limits         AttachmentLimits
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(
	attachmentRepo repository.AttachmentRepository,
	taskRepo repository.TaskRepository,
	membership *MembershipService,
	audit *AuditService,
	store storage.Storage,
	limits AttachmentLimits,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		taskRepo:       taskRepo,
		membership:     membership,
		audit:          audit,
		store:          store,
		limits:         limits,
	}
}

// Upload stores the file and records it on the task. Any group member.
func (s *AttachmentService) Upload(ctx context.Context, actor Actor, taskID uint64, input UploadInput) (*models.TaskAttachment, error) {
	fileName := filepath.Base(strings.TrimSpace(input.FileName))
	if input.Size <= 0 || fileName == "" || fileName == "." {
		return nil, ErrEmptyFile
	}
	if s.limits.MaxFileSize > 0 && input.Size > s.limits.MaxFileSize {
		return nil, ErrFileTooLarge
	}
	if !s.limits.Allows(fileName) {
		return nil, ErrFileTypeNotAllowed
	}

	task, _, err := s.taskMember(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.ObjectKey(task.ID, fileName)
	if err := s.store.Upload(ctx, key, input.Body, contentType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	attachment := &models.TaskAttachment{
		TaskID:      task.ID,
		FileName:    fileName,
		FilePath:    key,
		FileSize:    input.Size,
		ContentType: contentType,
		UploadedBy:  actor.UserID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("attachment: failed to clean up %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeAttachment,
		EntityID:   attachment.ID,
		Action:     models.AuditActionUploaded,
		NewValue:   fileName,
		GroupID:    groupRef(task.GroupID),
	})

	return s.findAttachment(ctx, task.ID, attachment.ID)
}

// List returns a task's attachments, newest first.
func (s *AttachmentService) List(ctx context.Context, userID, taskID uint64) ([]models.TaskAttachment, error) {
	if _, _, err := s.taskMember(ctx, userID, taskID); err != nil {
		return nil, err
	}

	attachments, err := s.attachmentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// Get returns one attachment's metadata.
func (s *AttachmentService) Get(ctx context.Context, userID, taskID, attachmentID uint64) (*models.TaskAttachment, error) {
	if _, _, err := s.taskMember(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.findAttachment(ctx, taskID, attachmentID)
}

// Download opens the stored bytes. The caller closes the reader.
func (s *AttachmentService) Download(ctx context.Context, userID, taskID, attachmentID uint64) (*models.TaskAttachment, io.ReadCloser, error) {
	attachment, err := s.Get(ctx, userID, taskID, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	exists, err := s.store.Exists(ctx, attachment.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check file: %w", err)
	}
	if !exists {
		log.Printf("attachment: %d has no stored object at %s", attachment.ID, attachment.FilePath)
		return nil, nil, ErrAttachmentNotFound
	}

	body, err := s.store.Download(ctx, attachment.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return attachment, body, nil
}

// URL returns where clients can fetch the stored object.
func (s *AttachmentService) URL(attachment *models.TaskAttachment) string {
	return s.store.URL(attachment.FilePath)
}

// Delete soft-deletes an attachment. The uploader, or Manager and above.
// The stored bytes are kept with the soft-deleted row.
func (s *AttachmentService) Delete(ctx context.Context, actor Actor, taskID, attachmentID uint64) error {
	task, member, err := s.taskMember(ctx, actor.UserID, taskID)
	if err != nil {
		return err
	}

	attachment, err := s.findAttachment(ctx, task.ID, attachmentID)
	if err != nil {
		return err
	}
	if attachment.UploadedBy != actor.UserID && !member.Role.AtLeast(models.PermissionManager) {
		return ErrInsufficientPermission
	}

	if err := s.attachmentRepo.Delete(ctx, attachment.ID, actor.UserID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:      actor,
		EntityType: models.EntityTypeAttachment,
		EntityID:   attachment.ID,
		Action:     models.AuditActionDeleted,
		OldValue:   attachment.FileName,
		GroupID:    groupRef(task.GroupID),
	})
	return nil
}

func (s *AttachmentService) taskMember(ctx context.Context, userID, taskID uint64) (*models.TaskItem, *models.GroupMember, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	member, err := s.membership.Resolve(ctx, task.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	return task, member, nil
}

func (s *AttachmentService) findAttachment(ctx context.Context, taskID, attachmentID uint64) (*models.TaskAttachment, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}
	if attachment.TaskID != taskID {
		return nil, ErrAttachmentNotFound
	}
	return attachment, nil
}

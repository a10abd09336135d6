// Package storage keeps attachment bytes outside the database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("storage: object not found")

// Storage stores objects by key. Keys use forward slashes.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

// ObjectKey builds a collision-free key for a task attachment, keeping the
// original extension.
func ObjectKey(taskID uint64, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("tasks/%d/%s%s", taskID, uuid.NewString(), ext)
}

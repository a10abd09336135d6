package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	key := ObjectKey(3, "Report.PDF")
	assert.True(t, strings.HasPrefix(key, "tasks/3/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	require.NoError(t, store.Upload(ctx, key, strings.NewReader("pdf bytes"), "application/pdf"))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	body, err := store.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "pdf bytes", string(data))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is fine")

	_, err = store.Download(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"../outside.txt", "/etc/passwd", "..", "."} {
		err := store.Upload(ctx, key, strings.NewReader("x"), "text/plain")
		assert.Error(t, err, key)
	}
}

func TestLocalStorage_URL(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, store.URL("tasks/1/a.txt"))

	public, err := NewLocalStorage(t.TempDir(), "https://files.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/tasks/1/a.txt", public.URL("tasks/1/a.txt"))

	assert.NotEqual(t, ObjectKey(1, "a.txt"), ObjectKey(1, "a.txt"))
}

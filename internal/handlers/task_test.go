package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/group-task-api/internal/constants"
	"github.com/yukikurage/group-task-api/internal/dto"
	apierrors "github.com/yukikurage/group-task-api/internal/errors"
	"github.com/yukikurage/group-task-api/internal/models"
)

// taskFixture is a group with an owner and a plain member
type taskFixture struct {
	env    *handlerTestEnv
	owner  dto.AuthResponse
	member dto.AuthResponse
	group  dto.GroupDTO
}

func setupTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	env := setupHandlerTestEnv(t)
	owner := env.register(t, "owner")
	member := env.register(t, "member")
	group := env.createGroup(t, owner.AccessToken, "Platform")
	env.join(t, member.AccessToken, group.Code)
	return &taskFixture{env: env, owner: owner, member: member, group: group}
}

func (f *taskFixture) createTask(t *testing.T, payload map[string]any) dto.TaskDTO {
	t.Helper()
	w := f.env.do(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/tasks", f.group.ID), f.owner.AccessToken, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func TestTaskHandler_CreateAndGet(t *testing.T) {
	f := setupTaskFixture(t)

	task := f.createTask(t, map[string]any{
		"title":          "Fix bug",
		"description":    "Crash on login",
		"assigned_to_id": f.member.User.ID,
	})
	assert.Equal(t, "Fix bug", task.Title)
	assert.Equal(t, models.TaskStatusNotStarted, task.Status)
	require.NotNil(t, task.Priority)
	assert.Equal(t, "Medium", task.Priority.Name)
	require.NotNil(t, task.AssignedTo)
	assert.Equal(t, f.member.User.ID, task.AssignedTo.ID)
	assert.Empty(t, task.AssignedTo.Email)

	w := f.env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), f.member.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stranger := f.env.register(t, "stranger")
	w = f.env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), stranger.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.env.do(t, http.MethodGet, "/api/tasks/999", f.member.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.env.do(t, http.MethodGet, "/api/tasks/abc", f.member.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_MemberCannotCreate(t *testing.T) {
	f := setupTaskFixture(t)

	w := f.env.do(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/tasks", f.group.ID), f.member.AccessToken, map[string]any{"title": "Nope"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apierrors.ErrCodeInsufficientPermissions, decodeError(t, w))
}

func TestTaskHandler_ListWithFilters(t *testing.T) {
	f := setupTaskFixture(t)

	past := time.Now().Add(-48 * time.Hour)
	f.createTask(t, map[string]any{"title": "Overdue report", "due_date": past})
	f.createTask(t, map[string]any{"title": "Fresh work", "priority_id": models.PriorityHigh})
	f.createTask(t, map[string]any{"title": "Another report"})

	list := func(query string) dto.TaskListResponse {
		t.Helper()
		w := f.env.do(t, http.MethodGet, fmt.Sprintf("/api/groups/%d/tasks%s", f.group.ID, query), f.member.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var response dto.TaskListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return response
	}

	all := list("")
	assert.Equal(t, int64(3), all.TotalCount)
	assert.Equal(t, 1, all.TotalPages)

	overdue := list("?overdue=true")
	require.Len(t, overdue.Tasks, 1)
	assert.Equal(t, "Overdue report", overdue.Tasks[0].Title)
	assert.True(t, overdue.Tasks[0].IsOverdue)

	high := list(fmt.Sprintf("?priority_id=%d", models.PriorityHigh))
	require.Len(t, high.Tasks, 1)
	assert.Equal(t, "Fresh work", high.Tasks[0].Title)

	reports := list("?search=report")
	assert.Len(t, reports.Tasks, 2)

	paged := list("?page=2&limit=2")
	assert.Equal(t, int64(3), paged.TotalCount)
	assert.Equal(t, 2, paged.TotalPages)
	assert.Len(t, paged.Tasks, 1)

	w := f.env.do(t, http.MethodGet, fmt.Sprintf("/api/groups/%d/tasks?status=Done", f.group.ID), f.member.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_StatusLifecycle(t *testing.T) {
	f := setupTaskFixture(t)
	task := f.createTask(t, map[string]any{"title": "Ship", "assigned_to_id": f.member.User.ID})
	path := fmt.Sprintf("/api/tasks/%d/status", task.ID)

	w := f.env.do(t, http.MethodPatch, path, f.member.AccessToken, map[string]string{"status": "Completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var completed dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &completed))
	assert.NotNil(t, completed.CompletedAt)

	w = f.env.do(t, http.MethodPatch, path, f.member.AccessToken, map[string]string{"status": "InProgress"})
	require.Equal(t, http.StatusOK, w.Code)
	var reopened dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reopened))
	assert.Nil(t, reopened.CompletedAt)

	w = f.env.do(t, http.MethodPatch, path, f.member.AccessToken, map[string]string{"status": "Bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.env.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), f.member.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.env.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), f.owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), f.owner.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandler_UpdateVersionConflict(t *testing.T) {
	f := setupTaskFixture(t)
	task := f.createTask(t, map[string]any{"title": "Draft"})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := f.env.do(t, http.MethodPatch, path, f.owner.AccessToken, map[string]any{"title": "Final", "version": task.Version})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.env.do(t, http.MethodPatch, path, f.owner.AccessToken, map[string]any{"title": "Stale", "version": task.Version})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierrors.ErrCodeConflict, decodeError(t, w))
}

func TestTaskHandler_AssignAndUnassign(t *testing.T) {
	f := setupTaskFixture(t)
	task := f.createTask(t, map[string]any{"title": "Hand over"})

	w := f.env.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/unassign", task.ID), f.owner.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stranger := f.env.register(t, "stranger")
	w = f.env.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", task.ID), f.owner.AccessToken, map[string]any{"user_id": stranger.User.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.env.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", task.ID), f.owner.AccessToken, map[string]any{"user_id": f.member.User.ID})
	require.Equal(t, http.StatusOK, w.Code)
	var assigned dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assigned))
	require.NotNil(t, assigned.AssignedToID)
	assert.Equal(t, f.member.User.ID, *assigned.AssignedToID)

	w = f.env.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/unassign", task.ID), f.member.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTaskHandler_PrioritiesAndGenerate(t *testing.T) {
	f := setupTaskFixture(t)

	w := f.env.do(t, http.MethodGet, "/api/tasks/priorities", f.member.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Priorities []dto.PriorityDTO `json:"priorities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Priorities, 4)

	// no AI client is configured in tests
	w = f.env.do(t, http.MethodPost, fmt.Sprintf("/api/groups/%d/tasks/generate", f.group.ID), f.owner.AccessToken, map[string]string{"text": "plan the release"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCommentHandler_Lifecycle(t *testing.T) {
	f := setupTaskFixture(t)
	task := f.createTask(t, map[string]any{"title": "Discuss"})
	base := fmt.Sprintf("/api/tasks/%d/comments", task.ID)

	w := f.env.do(t, http.MethodPost, base, f.member.AccessToken, map[string]string{"content": "Looks good"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment dto.CommentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comment))
	assert.Equal(t, "Looks good", comment.Content)

	w = f.env.do(t, http.MethodPatch, fmt.Sprintf("%s/%d", base, comment.ID), f.owner.AccessToken, map[string]string{"content": "Hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.env.do(t, http.MethodPatch, fmt.Sprintf("%s/%d", base, comment.ID), f.member.AccessToken, map[string]string{"content": "Looks great"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.env.do(t, http.MethodGet, base, f.owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Comments []dto.CommentDTO `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Comments, 1)
	assert.Equal(t, "Looks great", list.Comments[0].Content)

	w = f.env.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, comment.ID), f.owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.env.do(t, http.MethodPost, base, f.member.AccessToken, map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachmentHandler_UploadDownload(t *testing.T) {
	f := setupTaskFixture(t)
	task := f.createTask(t, map[string]any{"title": "Files"})
	base := fmt.Sprintf("/api/tasks/%d/attachments", task.ID)

	upload := func(name, content string) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, base, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", constants.AuthorizationPrefix+f.member.AccessToken)
		w := httptest.NewRecorder()
		f.env.router.ServeHTTP(w, req)
		return w
	}

	w := upload("notes.txt", "meeting notes")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var attachment dto.AttachmentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &attachment))
	assert.Equal(t, "notes.txt", attachment.FileName)
	assert.Equal(t, fmt.Sprintf("%s/%d/download", base, attachment.ID), attachment.URL)

	w = upload("big.txt", string(bytes.Repeat([]byte("a"), 2048)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = upload("run.exe", "MZ")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.env.do(t, http.MethodGet, attachment.URL, f.owner.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "meeting notes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")

	w = f.env.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, attachment.ID), f.member.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.env.do(t, http.MethodGet, fmt.Sprintf("%s/%d", base, attachment.ID), f.member.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditHandler_History(t *testing.T) {
	f := setupTaskFixture(t)
	task := f.createTask(t, map[string]any{"title": "Audited"})

	w := f.env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/priority", task.ID), f.owner.AccessToken, map[string]any{"priority_id": models.PriorityUrgent})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.env.do(t, http.MethodGet, fmt.Sprintf("/api/audit/tasks/%d", task.ID), f.member.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Entries []dto.AuditLogDTO `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Entries, 2)
	assert.Equal(t, models.AuditActionPriorityChanged, history.Entries[0].Action)
	assert.Equal(t, "owner", history.Entries[0].UserName)

	w = f.env.do(t, http.MethodGet, fmt.Sprintf("/api/audit/entities/Invoice/%d", task.ID), f.member.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.env.do(t, http.MethodGet, fmt.Sprintf("/api/audit/groups/%d?limit=2", f.group.ID), f.member.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page dto.AuditPageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Entries, 2)
	assert.Equal(t, 2, page.Pagination.Limit)
	// created, joined, task created, priority changed
	assert.Equal(t, int64(4), page.Pagination.Total)

	w = f.env.do(t, http.MethodGet, fmt.Sprintf("/api/audit/users/%d", f.owner.User.ID), f.member.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	stranger := f.env.register(t, "stranger")
	w = f.env.do(t, http.MethodGet, fmt.Sprintf("/api/audit/users/%d", f.owner.User.ID), stranger.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

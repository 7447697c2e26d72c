package pikpak

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfflineDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/drive/v1/files", r.URL.Path)

		var req offlineDownloadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "drive#file", req.Kind)
		assert.Equal(t, "UPLOAD_TYPE_URL", req.UploadType)
		assert.Equal(t, "magnet:?xt=urn:btih:deadbeef", req.URL.URL)
		assert.Equal(t, "parent-1", req.ParentID)
		assert.Empty(t, req.FolderType, "explicit parent must suppress folder_type")

		_, _ = w.Write([]byte(`{
			"task": {"id": "task-1", "name": "deadbeef", "phase": "PHASE_TYPE_RUNNING", "file_id": "f-1", "progress": 0}
		}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	task, err := client.OfflineDownload(context.Background(), "magnet:?xt=urn:btih:deadbeef", "parent-1", "")
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "PHASE_TYPE_RUNNING", task.Phase)
	assert.Equal(t, "f-1", task.FileID)
}

func TestOfflineDownload_DefaultFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req offlineDownloadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "DOWNLOAD", req.FolderType)
		assert.Empty(t, req.ParentID)

		_, _ = w.Write([]byte(`{"task": {"id": "task-1"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.OfflineDownload(context.Background(), "https://example.com/big.iso", "", "")
	require.NoError(t, err)
}

func TestOfflineList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/drive/v1/tasks", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "offline", q.Get("type"))
		assert.Equal(t, "10000", q.Get("limit"))
		assert.Equal(t, offlineListFilters, q.Get("filters"))

		_, _ = w.Write([]byte(`{
			"tasks": [
				{"id": "task-1", "phase": "PHASE_TYPE_RUNNING", "progress": 40, "file_size": "1048576"},
				{"id": "task-2", "phase": "PHASE_TYPE_ERROR", "message": "source unreachable"}
			],
			"next_page_token": ""
		}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	page, err := client.OfflineList(context.Background(), 0, "")
	require.NoError(t, err)

	require.Len(t, page.Tasks, 2)
	assert.Equal(t, 40, page.Tasks[0].Progress)
	assert.Equal(t, int64(1048576), page.Tasks[0].FileSize)
	assert.Equal(t, "source unreachable", page.Tasks[1].Message)
}

func TestOfflineTaskRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/drive/v1/task", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "offline", q.Get("type"))
		assert.Equal(t, "RETRY", q.Get("create_type"))
		assert.Equal(t, "task-1", q.Get("id"))

		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	assert.NoError(t, client.OfflineTaskRetry(context.Background(), "task-1"))
}

func TestDeleteTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/drive/v1/tasks", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "task-1,task-2", q.Get("task_ids"))
		assert.Equal(t, "true", q.Get("delete_files"))

		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	assert.NoError(t, client.DeleteTasks(context.Background(), []string{"task-1", "task-2"}, true))
}

func TestTaskStatus(t *testing.T) {
	tests := []struct {
		name      string
		taskID    string
		tasksBody string
		fileBody  string
		want      TaskStatus
	}{
		{
			name:      "still in task list",
			taskID:    "task-1",
			tasksBody: `{"tasks": [{"id": "task-1", "phase": "PHASE_TYPE_RUNNING"}]}`,
			want:      TaskDownloading,
		},
		{
			name:      "finished with file",
			taskID:    "task-1",
			tasksBody: `{"tasks": []}`,
			fileBody:  `{"id": "f-1", "kind": "drive#file", "name": "big.iso"}`,
			want:      TaskDone,
		},
		{
			name:      "file lookup empty",
			taskID:    "task-1",
			tasksBody: `{"tasks": []}`,
			fileBody:  `{"id": ""}`,
			want:      TaskNotFound,
		},
		{
			name:      "file gone remotely",
			taskID:    "task-1",
			tasksBody: `{"tasks": []}`,
			fileBody:  `{"error": "file_not_found", "error_code": 9, "error_description": "no such file"}`,
			want:      TaskNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/drive/v1/tasks":
					_, _ = w.Write([]byte(tt.tasksBody))
				case "/drive/v1/files/f-1":
					_, _ = w.Write([]byte(tt.fileBody))
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)

			status, err := client.TaskStatus(context.Background(), tt.taskID, "f-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

package pikpak

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// defaultTaskListLimit is the page size for offline task listings. The
// service accepts very large pages here; one page normally covers the
// whole active task set.
const defaultTaskListLimit = 10000

// offlineListFilters restricts the task listing to running and failed
// tasks; completed tasks surface through the regular file listing.
const offlineListFilters = `{"phase": {"in": "PHASE_TYPE_RUNNING,PHASE_TYPE_ERROR"}}`

// offlineDownloadRequest is the body for submitting a URL (magnet, ed2k,
// plain HTTP) for server-side download.
type offlineDownloadRequest struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	UploadType string     `json:"upload_type"`
	URL        urlPayload `json:"url"`
	FolderType string     `json:"folder_type"`
	ParentID   string     `json:"parent_id,omitempty"`
}

type urlPayload struct {
	URL string `json:"url"`
}

// offlineDownloadResponse wraps the created task (and, for immediately
// resolvable URLs, the file entry).
type offlineDownloadResponse struct {
	Task taskResource  `json:"task"`
	File *fileResource `json:"file"`
}

// taskListResponse mirrors the task listing wire shape.
type taskListResponse struct {
	Tasks         []taskResource `json:"tasks"`
	NextPageToken string         `json:"next_page_token"`
}

// OfflineDownload submits a URL for server-side download. An empty
// parentID stores the result in the account's default download folder;
// an empty name lets the service derive one from the URL.
func (c *Client) OfflineDownload(ctx context.Context, fileURL, parentID, name string) (*Task, error) {
	req := offlineDownloadRequest{
		Kind:       string(KindFile),
		Name:       name,
		UploadType: "UPLOAD_TYPE_URL",
		URL:        urlPayload{URL: fileURL},
		ParentID:   parentID,
	}

	// The default download folder is selected by folder_type, which must be
	// empty when an explicit parent is given.
	if parentID == "" {
		req.FolderType = "DOWNLOAD"
	}

	var resp offlineDownloadResponse
	if err := c.do(ctx, "POST", c.apiBase+"/drive/v1/files", nil, req, &resp); err != nil {
		return nil, err
	}

	t := resp.Task.toTask()

	return &t, nil
}

// OfflineList fetches one page of the running/failed offline task list.
// size <= 0 uses the default page size.
func (c *Client) OfflineList(ctx context.Context, size int, pageToken string) (*TaskListPage, error) {
	if size <= 0 {
		size = defaultTaskListLimit
	}

	q := url.Values{}
	q.Set("type", "offline")
	q.Set("thumbnail_size", "SIZE_SMALL")
	q.Set("limit", strconv.Itoa(size))
	q.Set("filters", offlineListFilters)

	if pageToken != "" {
		q.Set("next_page_token", pageToken)
	}

	var resp taskListResponse
	if err := c.do(ctx, "GET", c.apiBase+"/drive/v1/tasks", q, nil, &resp); err != nil {
		return nil, err
	}

	page := &TaskListPage{
		Tasks:         make([]Task, 0, len(resp.Tasks)),
		NextPageToken: resp.NextPageToken,
	}

	for i := range resp.Tasks {
		page.Tasks = append(page.Tasks, resp.Tasks[i].toTask())
	}

	return page, nil
}

// OfflineFileInfo retrieves the file entry produced by an offline
// download task.
func (c *Client) OfflineFileInfo(ctx context.Context, fileID string) (*File, error) {
	return c.FileInfo(ctx, fileID)
}

// OfflineTaskRetry re-queues a failed offline download task.
func (c *Client) OfflineTaskRetry(ctx context.Context, taskID string) error {
	q := url.Values{}
	q.Set("type", "offline")
	q.Set("create_type", "RETRY")
	q.Set("id", taskID)

	return c.do(ctx, "GET", c.apiBase+"/drive/v1/task", q, nil, nil)
}

// DeleteTasks removes offline download tasks. When deleteFiles is true the
// files already produced by the tasks are deleted as well.
func (c *Client) DeleteTasks(ctx context.Context, taskIDs []string, deleteFiles bool) error {
	q := url.Values{}
	q.Set("task_ids", strings.Join(taskIDs, ","))
	q.Set("delete_files", strconv.FormatBool(deleteFiles))

	return c.do(ctx, "DELETE", c.apiBase+"/drive/v1/tasks", q, nil, nil)
}

// TaskStatus reports the coarse state of an offline download: still in the
// active task list means downloading; otherwise the produced file decides
// done versus not_found; a remote error on the lookup reports error.
func (c *Client) TaskStatus(ctx context.Context, taskID, fileID string) (TaskStatus, error) {
	page, err := c.OfflineList(ctx, 0, "")
	if err != nil {
		return TaskError, err
	}

	for i := range page.Tasks {
		if page.Tasks[i].ID == taskID {
			return TaskDownloading, nil
		}
	}

	f, err := c.OfflineFileInfo(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TaskNotFound, nil
		}

		return TaskError, err
	}

	if f.ID == "" {
		return TaskNotFound, nil
	}

	return TaskDone, nil
}

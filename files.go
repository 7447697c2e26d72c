package pikpak

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// defaultListLimit is the page size used when FileListOptions.Limit is zero.
const defaultListLimit = 100

// defaultListFilters restricts listings to completed, non-trashed entries.
// The service takes the filter predicates as an embedded JSON string.
const defaultListFilters = `{"trashed":{"eq":false},"phase":{"eq":"PHASE_TYPE_COMPLETE"}}`

// FileListOptions controls a single listing page request. The zero value
// lists the root folder with default page size and filters.
type FileListOptions struct {
	ParentID  string
	Limit     int
	PageToken string
	Filters   string
}

// fileListResponse mirrors the listing wire shape.
type fileListResponse struct {
	Files         []fileResource `json:"files"`
	NextPageToken string         `json:"next_page_token"`
}

// createFolderRequest is the body for folder creation and offline downloads
// (both go through the files collection endpoint with different kinds).
type createFolderRequest struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// createdFileResponse wraps the created entry, which the service returns
// under a "file" key.
type createdFileResponse struct {
	File fileResource `json:"file"`
}

// batchRequest carries the id list for the batch verbs (trash, untrash,
// delete, star, unstar).
type batchRequest struct {
	IDs []string `json:"ids"`
}

// batchToRequest carries an id list plus a destination parent, for the
// move and copy verbs.
type batchToRequest struct {
	IDs []string    `json:"ids"`
	To  batchTarget `json:"to"`
}

type batchTarget struct {
	ParentID string `json:"parent_id"`
}

// FileList fetches one page of a folder listing. An empty ParentID lists
// the root folder. The returned page carries a continuation token when
// further pages exist; callers feed it back via opts.PageToken.
func (c *Client) FileList(ctx context.Context, opts *FileListOptions) (*FileListPage, error) {
	if opts == nil {
		opts = &FileListOptions{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filters := opts.Filters
	if filters == "" {
		filters = defaultListFilters
	}

	q := url.Values{}
	q.Set("parent_id", opts.ParentID)
	q.Set("thumbnail_size", "SIZE_MEDIUM")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("with_audit", "true")
	q.Set("filters", filters)

	if opts.PageToken != "" {
		q.Set("next_page_token", opts.PageToken)
	}

	var resp fileListResponse
	if err := c.do(ctx, "GET", c.apiBase+"/drive/v1/files", q, nil, &resp); err != nil {
		return nil, err
	}

	page := &FileListPage{
		Files:         make([]File, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}

	for i := range resp.Files {
		page.Files = append(page.Files, resp.Files[i].toFile())
	}

	return page, nil
}

// CreateFolder creates a folder under the given parent. An empty parentID
// creates it in the root folder. Creating a remote folder is irreversible
// from this client's point of view.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*File, error) {
	req := createFolderRequest{
		Kind:     string(KindFolder),
		Name:     name,
		ParentID: parentID,
	}

	var resp createdFileResponse
	if err := c.do(ctx, "POST", c.apiBase+"/drive/v1/files", nil, req, &resp); err != nil {
		return nil, err
	}

	f := resp.File.toFile()

	return &f, nil
}

// FileInfo retrieves a single file or folder by id.
func (c *Client) FileInfo(ctx context.Context, fileID string) (*File, error) {
	q := url.Values{}
	q.Set("thumbnail_size", "SIZE_LARGE")

	var resp fileResource
	if err := c.do(ctx, "GET", c.apiBase+"/drive/v1/files/"+fileID, q, nil, &resp); err != nil {
		return nil, err
	}

	f := resp.toFile()

	return &f, nil
}

// DeleteToTrash moves the given files and folders to the recycle bin.
func (c *Client) DeleteToTrash(ctx context.Context, ids []string) error {
	return c.do(ctx, "POST", c.apiBase+"/drive/v1/files:batchTrash", nil, batchRequest{IDs: ids}, nil)
}

// Untrash moves the given files and folders out of the recycle bin.
func (c *Client) Untrash(ctx context.Context, ids []string) error {
	return c.do(ctx, "POST", c.apiBase+"/drive/v1/files:batchUntrash", nil, batchRequest{IDs: ids}, nil)
}

// DeleteForever permanently deletes the given files and folders,
// bypassing the recycle bin.
func (c *Client) DeleteForever(ctx context.Context, ids []string) error {
	return c.do(ctx, "POST", c.apiBase+"/drive/v1/files:batchDelete", nil, batchRequest{IDs: ids}, nil)
}

// FileBatchMove moves the given entries under a new parent folder.
// An empty toParentID moves them to the root folder.
func (c *Client) FileBatchMove(ctx context.Context, ids []string, toParentID string) error {
	req := batchToRequest{IDs: ids, To: batchTarget{ParentID: toParentID}}

	return c.do(ctx, "POST", c.apiBase+"/drive/v1/files:batchMove", nil, req, nil)
}

// FileBatchCopy copies the given entries under a new parent folder.
func (c *Client) FileBatchCopy(ctx context.Context, ids []string, toParentID string) error {
	req := batchToRequest{IDs: ids, To: batchTarget{ParentID: toParentID}}

	return c.do(ctx, "POST", c.apiBase+"/drive/v1/files:batchCopy", nil, req, nil)
}

// renameRequest is the body for the rename verb.
type renameRequest struct {
	Name string `json:"name"`
}

// FileRename renames a single entry in place.
func (c *Client) FileRename(ctx context.Context, fileID, newName string) (*File, error) {
	if newName == "" {
		return nil, fmt.Errorf("pikpak: rename requires a non-empty name")
	}

	var resp fileResource
	if err := c.do(ctx, "PATCH", c.apiBase+"/drive/v1/files/"+fileID, nil, renameRequest{Name: newName}, &resp); err != nil {
		return nil, err
	}

	f := resp.toFile()

	return &f, nil
}

// FileBatchStar marks the given entries as starred.
func (c *Client) FileBatchStar(ctx context.Context, ids []string) error {
	return c.do(ctx, "POST", c.apiBase+"/drive/v1/files:star", nil, batchRequest{IDs: ids}, nil)
}

// FileBatchUnstar removes the star from the given entries.
func (c *Client) FileBatchUnstar(ctx context.Context, ids []string) error {
	return c.do(ctx, "POST", c.apiBase+"/drive/v1/files:unstar", nil, batchRequest{IDs: ids}, nil)
}

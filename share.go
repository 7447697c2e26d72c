package pikpak

import (
	"context"
	"net/url"
	"strconv"
)

// Pass-code requirements for share links.
const (
	passCodeRequired    = "REQUIRED"
	passCodeNotRequired = "NOT_REQUIRED"
)

// shareRequest is the body for publishing a share link.
type shareRequest struct {
	FileIDs        []string `json:"file_ids"`
	ShareTo        string   `json:"share_to"`
	ExpirationDays int      `json:"expiration_days"`
	PassCodeOption string   `json:"pass_code_option"`
}

// shareResponse mirrors the share-creation wire shape.
type shareResponse struct {
	ShareID  string `json:"share_id"`
	ShareURL string `json:"share_url"`
	PassCode string `json:"pass_code"`
}

// shareInfoResponse mirrors the share-lookup wire shape.
type shareInfoResponse struct {
	ShareID       string `json:"share_id"`
	Title         string `json:"title"`
	ShareStatus   string `json:"share_status"`
	PassCodeToken string `json:"pass_code_token"`
	FileNum       string `json:"file_num"`
}

// restoreRequest is the body for copying shared entries into the
// caller's own drive.
type restoreRequest struct {
	ShareID       string   `json:"share_id"`
	PassCodeToken string   `json:"pass_code_token"`
	AncestorIDs   []string `json:"ancestor_ids"`
	FileIDs       []string `json:"file_ids"`
}

// FileBatchShare publishes a public share link for the given entries.
// expirationDays < 0 means the link never expires; withPassCode asks the
// service to mint an access pass code.
func (c *Client) FileBatchShare(ctx context.Context, ids []string, withPassCode bool, expirationDays int) (*ShareResult, error) {
	option := passCodeNotRequired
	if withPassCode {
		option = passCodeRequired
	}

	req := shareRequest{
		FileIDs:        ids,
		ShareTo:        "publiclink",
		ExpirationDays: expirationDays,
		PassCodeOption: option,
	}

	var resp shareResponse
	if err := c.do(ctx, "POST", c.apiBase+"/drive/v1/share", nil, req, &resp); err != nil {
		return nil, err
	}

	return &ShareResult{
		ShareID:  resp.ShareID,
		ShareURL: resp.ShareURL,
		PassCode: resp.PassCode,
	}, nil
}

// GetShareInfo looks up a share link and exchanges its pass code for the
// token needed to browse and restore the share's contents.
func (c *Client) GetShareInfo(ctx context.Context, shareID, passCode string) (*ShareInfo, error) {
	q := url.Values{}
	q.Set("share_id", shareID)
	q.Set("pass_code", passCode)
	q.Set("thumbnail_size", "SIZE_LARGE")
	q.Set("limit", "100")

	var resp shareInfoResponse
	if err := c.do(ctx, "GET", c.apiBase+"/drive/v1/share", q, nil, &resp); err != nil {
		return nil, err
	}

	// String-encoded count, same malformed-becomes-zero policy as parseSize.
	num, _ := strconv.Atoi(resp.FileNum)

	return &ShareInfo{
		ShareID:       resp.ShareID,
		Title:         resp.Title,
		Status:        resp.ShareStatus,
		PassCodeToken: resp.PassCodeToken,
		FileCount:     num,
	}, nil
}

// GetShareFolder lists one folder level inside a share. An empty parentID
// lists the share's top level.
func (c *Client) GetShareFolder(ctx context.Context, shareID, passCodeToken, parentID string) (*FileListPage, error) {
	q := url.Values{}
	q.Set("share_id", shareID)
	q.Set("pass_code_token", passCodeToken)
	q.Set("parent_id", parentID)
	q.Set("thumbnail_size", "SIZE_LARGE")
	q.Set("limit", "100")

	var resp fileListResponse
	if err := c.do(ctx, "GET", c.apiBase+"/drive/v1/share/detail", q, nil, &resp); err != nil {
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

// Restore copies entries from a share into the caller's own drive.
func (c *Client) Restore(ctx context.Context, shareID, passCodeToken string, fileIDs []string) error {
	req := restoreRequest{
		ShareID:       shareID,
		PassCodeToken: passCodeToken,
		AncestorIDs:   []string{},
		FileIDs:       fileIDs,
	}

	return c.do(ctx, "POST", c.apiBase+"/drive/v1/share/restore", nil, req, nil)
}

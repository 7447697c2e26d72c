package pikpak

import (
	"strconv"
	"time"
)

// Kind discriminates files from folders in API responses.
type Kind string

// Entry kinds as reported by the service.
const (
	KindFile   Kind = "drive#file"
	KindFolder Kind = "drive#folder"
)

// PathEntry is one resolved segment of a logical path: the remote
// identifier, display name, and kind of the entry at that depth.
type PathEntry struct {
	ID   string
	Name string
	Kind Kind
}

// File represents a remote file or folder.
// Fields are normalized from the wire JSON; callers never see raw API data.
type File struct {
	ID             string
	Kind           Kind
	Name           string
	ParentID       string
	Size           int64
	Hash           string
	MimeType       string
	Phase          string
	Trashed        bool
	Starred        bool
	WebContentLink string
	ThumbnailLink  string
	CreatedAt      time.Time
	ModifiedAt     time.Time
}

// FileListPage is one page of a folder listing: the entries plus an opaque
// continuation token (empty when there are no further pages).
type FileListPage struct {
	Files         []File
	NextPageToken string
}

// Task represents an offline download task.
type Task struct {
	ID        string
	Kind      string
	Name      string
	Phase     string
	FileID    string
	FileName  string
	FileSize  int64
	Message   string
	Progress  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskListPage is one page of the offline task listing.
type TaskListPage struct {
	Tasks         []Task
	NextPageToken string
}

// TaskStatus is the coarse state of an offline download task.
type TaskStatus string

// Task states returned by Client.TaskStatus.
const (
	TaskDownloading TaskStatus = "downloading"
	TaskDone        TaskStatus = "done"
	TaskError       TaskStatus = "error"
	TaskNotFound    TaskStatus = "not_found"
)

// Quota reports storage usage for the account.
type Quota struct {
	Limit        int64
	Usage        int64
	UsageInTrash int64
}

// ShareResult is the outcome of sharing a batch of files.
type ShareResult struct {
	ShareID  string
	ShareURL string
	PassCode string
}

// ShareInfo describes a share link being consumed, including the token
// needed to browse and restore its contents.
type ShareInfo struct {
	ShareID       string
	Title         string
	Status        string
	PassCodeToken string
	FileCount     int
}

// UserInfo is a snapshot of the session: identity plus the current token
// pair. Mutated only by Login and RefreshAccessToken.
type UserInfo struct {
	Username     string
	UserID       string
	AccessToken  string
	RefreshToken string
}

// fileResource mirrors the service's file JSON exactly. Unexported;
// callers use File via toFile() normalization.
type fileResource struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Name           string `json:"name"`
	ParentID       string `json:"parent_id"`
	Size           string `json:"size"`
	Hash           string `json:"hash"`
	MimeType       string `json:"mime_type"`
	Phase          string `json:"phase"`
	Trashed        bool   `json:"trashed"`
	Starred        bool   `json:"starred"`
	WebContentLink string `json:"web_content_link"`
	ThumbnailLink  string `json:"thumbnail_link"`
	CreatedTime    string `json:"created_time"`
	ModifiedTime   string `json:"modified_time"`
}

// toFile normalizes a wire file resource into a File.
func (r *fileResource) toFile() File {
	return File{
		ID:             r.ID,
		Kind:           Kind(r.Kind),
		Name:           r.Name,
		ParentID:       r.ParentID,
		Size:           parseSize(r.Size),
		Hash:           r.Hash,
		MimeType:       r.MimeType,
		Phase:          r.Phase,
		Trashed:        r.Trashed,
		Starred:        r.Starred,
		WebContentLink: r.WebContentLink,
		ThumbnailLink:  r.ThumbnailLink,
		CreatedAt:      parseTime(r.CreatedTime),
		ModifiedAt:     parseTime(r.ModifiedTime),
	}
}

// taskResource mirrors the service's task JSON exactly.
type taskResource struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Phase       string `json:"phase"`
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	FileSize    string `json:"file_size"`
	Message     string `json:"message"`
	Progress    int    `json:"progress"`
	CreatedTime string `json:"created_time"`
	UpdatedTime string `json:"updated_time"`
}

func (r *taskResource) toTask() Task {
	return Task{
		ID:        r.ID,
		Kind:      r.Kind,
		Name:      r.Name,
		Phase:     r.Phase,
		FileID:    r.FileID,
		FileName:  r.FileName,
		FileSize:  parseSize(r.FileSize),
		Message:   r.Message,
		Progress:  r.Progress,
		CreatedAt: parseTime(r.CreatedTime),
		UpdatedAt: parseTime(r.UpdatedTime),
	}
}

// parseSize converts the service's string-encoded byte counts.
// Malformed or empty values become zero.
func parseSize(raw string) int64 {
	if raw == "" {
		return 0
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}

	return n
}

// parseTime parses an RFC3339 timestamp. Malformed or empty values become
// the zero time, since the service omits timestamps on some entry kinds.
func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return t
}

package pikpak

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// Event is one entry in the account's recent-additions feed.
type Event struct {
	ID        string
	Kind      string
	TypeName  string
	FileID    string
	FileName  string
	CreatedAt time.Time
}

// EventListPage is one page of the event feed.
type EventListPage struct {
	Events        []Event
	NextPageToken string
}

type eventResource struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	TypeName    string `json:"type_name"`
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	CreatedTime string `json:"created_time"`
}

type eventListResponse struct {
	Events        []eventResource `json:"events"`
	NextPageToken string          `json:"next_page_token"`
}

// Events fetches one page of the recent-additions feed.
// size <= 0 uses the default page size.
func (c *Client) Events(ctx context.Context, size int, pageToken string) (*EventListPage, error) {
	if size <= 0 {
		size = defaultListLimit
	}

	q := url.Values{}
	q.Set("thumbnail_size", "SIZE_MEDIUM")
	q.Set("limit", strconv.Itoa(size))

	if pageToken != "" {
		q.Set("next_page_token", pageToken)
	}

	var resp eventListResponse
	if err := c.do(ctx, "GET", c.apiBase+"/drive/v1/events", q, nil, &resp); err != nil {
		return nil, err
	}

	page := &EventListPage{
		Events:        make([]Event, 0, len(resp.Events)),
		NextPageToken: resp.NextPageToken,
	}

	for _, e := range resp.Events {
		page.Events = append(page.Events, Event{
			ID:        e.ID,
			Kind:      e.Kind,
			TypeName:  e.TypeName,
			FileID:    e.FileID,
			FileName:  e.FileName,
			CreatedAt: parseTime(e.CreatedTime),
		})
	}

	return page, nil
}

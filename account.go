package pikpak

import (
	"context"
)

// aboutResponse mirrors the quota endpoint's wire shape. The service
// encodes byte counts as decimal strings.
type aboutResponse struct {
	Quota struct {
		Limit        string `json:"limit"`
		Usage        string `json:"usage"`
		UsageInTrash string `json:"usage_in_trash"`
	} `json:"quota"`
}

// GetQuotaInfo reports the account's storage limit and usage.
func (c *Client) GetQuotaInfo(ctx context.Context) (*Quota, error) {
	var resp aboutResponse
	if err := c.do(ctx, "GET", c.apiBase+"/drive/v1/about", nil, nil, &resp); err != nil {
		return nil, err
	}

	return &Quota{
		Limit:        parseSize(resp.Quota.Limit),
		Usage:        parseSize(resp.Quota.Usage),
		UsageInTrash: parseSize(resp.Quota.UsageInTrash),
	}, nil
}

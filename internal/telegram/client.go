// Package telegram polls the Telegram Bot API for new messages and feeds
// them into the ledger.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultAPIBase is the production Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// Update is one incoming message from the bot API. Updates without a text
// body collapse to an empty Text.
type Update struct {
	ID   int64
	Text string
}

// Client fetches updates for a single bot.
type Client struct {
	base  string
	token string
	http  *retryablehttp.Client
}

// NewClient builds a bot API client. base falls back to DefaultAPIBase.
func NewClient(base, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: missing bot token")
	}
	if base == "" {
		base = DefaultAPIBase
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &Client{base: base, token: token, http: rc}, nil
}

type getUpdatesResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      []struct {
		UpdateID int64 `json:"update_id"`
		Message  *struct {
			Text string `json:"text"`
		} `json:"message"`
	} `json:"result"`
}

// GetUpdates short-polls for updates newer than lastOffset.
func (c *Client) GetUpdates(ctx context.Context, lastOffset int64) ([]Update, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=0", c.base, c.token, lastOffset+1)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: getUpdates: %w", err)
	}
	defer resp.Body.Close()

	var body getUpdatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("telegram: decode response: %w", err)
	}
	if !body.OK {
		return nil, fmt.Errorf("telegram: API error: %s", body.Description)
	}

	updates := make([]Update, 0, len(body.Result))
	for _, u := range body.Result {
		upd := Update{ID: u.UpdateID}
		if u.Message != nil {
			upd.Text = u.Message.Text
		}
		updates = append(updates, upd)
	}
	return updates, nil
}

package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the website's receipt message API.
type Client struct {
	http      *http.Client
	baseURL   string
	authToken string
}

func NewClient(baseURL, authToken string) *Client {
	return &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
	}
}

// FetchPending returns messages waiting to be printed.
func (c *Client) FetchPending(ctx context.Context) ([]Message, error) {
	endpoint := fmt.Sprintf("%s/api/receipt_messages/pending?auth_token=%s",
		c.baseURL, url.QueryEscape(c.authToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("auth failed, check RECEIPT_PRINTER_API_TOKEN")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var data pendingResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return data.Messages, nil
}

// MarkPrinted tells the website a message was printed.
func (c *Client) MarkPrinted(ctx context.Context, messageID int64) error {
	return c.mark(ctx, messageID, "printed")
}

// MarkFailed tells the website a message could not be printed.
func (c *Client) MarkFailed(ctx context.Context, messageID int64) error {
	return c.mark(ctx, messageID, "failed")
}

func (c *Client) mark(ctx context.Context, messageID int64, state string) error {
	endpoint := fmt.Sprintf("%s/api/receipt_messages/%d/%s?auth_token=%s",
		c.baseURL, messageID, state, url.QueryEscape(c.authToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to mark %s: %w", state, err)
	}
	resp.Body.Close()
	return nil
}

// DownloadImage fetches a message's attached image. Relative URLs are
// resolved against the website base URL.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	full := imageURL
	if !strings.HasPrefix(imageURL, "http") {
		full = c.baseURL + imageURL
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	full += sep + "auth_token=" + url.QueryEscape(c.authToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image download returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

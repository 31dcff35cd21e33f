package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/victorbjor/security-bot/internal/domain/model"
)

const defaultHTTPTimeout = 30 * time.Second

// Client issues API calls against a running service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a probe API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchLeaderboard retrieves both boards.
func (c *Client) FetchLeaderboard(ctx context.Context) (nice, threat []model.Entry, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/leaderboard", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("leaderboard status %d", resp.StatusCode)
	}

	var body struct {
		Nice   []model.Entry `json:"nice"`
		Threat []model.Entry `json:"threat"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return body.Nice, body.Threat, nil
}

// UpdateName renames a leaderboard entry.
func (c *Client) UpdateName(ctx context.Context, id, name string) error {
	payload, err := json.Marshal(map[string]string{"id": id, "name": name})
	if err != nil {
		return fmt.Errorf("encode rename: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-name", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("update-name status %d: %s", resp.StatusCode, data)
	}
	return nil
}

// FetchStats retrieves the service stats endpoint.
func (c *Client) FetchStats(ctx context.Context) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats status %d", resp.StatusCode)
	}

	var stats map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

// Package dataforseo is a thin client for the DataForSEO v3 keyword
// research API.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.dataforseo.com/v3"

// Client calls the DataForSEO API using HTTP Basic auth.
type Client struct {
	login      string
	password   string
	baseURL    string
	httpClient *http.Client
}

// Config configures a DataForSEO client.
type Config struct {
	Login    string
	Password string
	BaseURL  string // override for tests
	Timeout  time.Duration
}

// New creates a DataForSEO client.
func New(cfg Config) (*Client, error) {
	if cfg.Login == "" || cfg.Password == "" {
		return nil, fmt.Errorf("dataforseo: login and password are required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		login:      cfg.Login,
		password:   cfg.Password,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) authHeader() string {
	creds := c.login + ":" + c.password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

// TaskResponse is the common envelope DataForSEO wraps around task results.
type TaskResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []Task `json:"tasks"`
}

// Task is one submitted task with its results.
type Task struct {
	ID            string          `json:"id"`
	StatusCode    int             `json:"status_code"`
	StatusMessage string          `json:"status_message"`
	Result        json.RawMessage `json:"result"`
}

// KeywordResult is one keyword metrics row.
type KeywordResult struct {
	Keyword       string  `json:"keyword"`
	SearchVolume  int     `json:"search_volume"`
	Competition   float64 `json:"competition"`
	CPC           float64 `json:"cpc"`
	LocationName  string  `json:"location_name,omitempty"`
}

// post submits tasks to an endpoint and decodes the envelope.
func (c *Client) post(ctx context.Context, endpoint string, tasks any) (*TaskResponse, error) {
	body, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("dataforseo API error (status %d): %s", resp.StatusCode, string(errBody))
	}

	var envelope TaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	// 20000 is the API's "ok" status
	if envelope.StatusCode != 20000 {
		return nil, fmt.Errorf("dataforseo error %d: %s", envelope.StatusCode, envelope.StatusMessage)
	}

	return &envelope, nil
}

// GetKeywordData submits a search volume task for the given keywords.
func (c *Client) GetKeywordData(ctx context.Context, keywords []string, locationName string) (*TaskResponse, error) {
	if locationName == "" {
		locationName = "United States"
	}

	tasks := make([]map[string]any, len(keywords))
	for i, keyword := range keywords {
		tasks[i] = map[string]any{
			"keyword":       keyword,
			"location_name": locationName,
			"language_name": "English",
			"tag":           fmt.Sprintf("keyword_%d", i),
		}
	}

	return c.post(ctx, "/keywords_data/google/search_volume/task_post", tasks)
}

// GetKeywordSuggestions submits a suggestion task for a seed keyword.
func (c *Client) GetKeywordSuggestions(ctx context.Context, keyword, locationName string) (*TaskResponse, error) {
	if locationName == "" {
		locationName = "United States"
	}

	task := []map[string]any{{
		"keyword":           keyword,
		"location_name":     locationName,
		"language_name":     "English",
		"include_serp_info": true,
		"limit":             100,
	}}

	return c.post(ctx, "/keywords_data/google/keyword_suggestions/task_post", task)
}

// GetTaskResult fetches a previously submitted search volume task.
func (c *Client) GetTaskResult(ctx context.Context, taskID string) (*TaskResponse, error) {
	return c.post(ctx, "/keywords_data/google/search_volume/task_get/"+taskID, []any{})
}

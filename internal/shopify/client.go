// Package shopify is a thin client for the Shopify Admin REST API,
// covering the blog and article operations used for publishing.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiVersion = "2023-10"

// Client calls a single store's Admin API.
type Client struct {
	storeHost   string
	accessToken string
	baseURL     string // set explicitly only in tests
	httpClient  *http.Client
}

// Config configures a Shopify client for one store.
type Config struct {
	StoreURL    string // host or URL of the store, e.g. "my-store.myshopify.com"
	AccessToken string
	BaseURL     string // full API base override for tests
	Timeout     time.Duration
}

// New creates a Shopify Admin API client.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("shopify: store URL and access token are required")
	}

	host := strings.TrimPrefix(strings.TrimPrefix(cfg.StoreURL, "https://"), "http://")
	host = strings.TrimSuffix(host, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		storeHost:   host,
		accessToken: cfg.AccessToken,
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) apiBase() string {
	if c.baseURL != "" {
		return strings.TrimSuffix(c.baseURL, "/")
	}
	return "https://" + c.storeHost + "/admin/api/" + apiVersion
}

// Shop is the store identity returned by /shop.json.
type Shop struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Domain string `json:"domain"`
}

// Blog is a store blog container.
type Blog struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

// Article is a blog article.
type Article struct {
	ID          int64  `json:"id,omitempty"`
	BlogID      int64  `json:"blog_id,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	BodyHTML    string `json:"body_html"`
	Summary     string `json:"summary_html,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Published   bool   `json:"published"`
	PublishedAt string `json:"published_at,omitempty"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase()+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("shopify API error (status %d): %s", resp.StatusCode, string(errBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// GetShop returns the store identity. Used as a connection test.
func (c *Client) GetShop(ctx context.Context) (*Shop, error) {
	var wrapper struct {
		Shop Shop `json:"shop"`
	}
	if err := c.do(ctx, http.MethodGet, "/shop.json", nil, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Shop, nil
}

// GetBlogs lists the store's blogs.
func (c *Client) GetBlogs(ctx context.Context) ([]Blog, error) {
	var wrapper struct {
		Blogs []Blog `json:"blogs"`
	}
	if err := c.do(ctx, http.MethodGet, "/blogs.json", nil, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Blogs, nil
}

// CreateBlog creates a blog container.
func (c *Client) CreateBlog(ctx context.Context, title string) (*Blog, error) {
	var wrapper struct {
		Blog Blog `json:"blog"`
	}
	payload := map[string]any{"blog": map[string]string{"title": title}}
	if err := c.do(ctx, http.MethodPost, "/blogs.json", payload, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Blog, nil
}

// GetArticles lists articles in a blog.
func (c *Client) GetArticles(ctx context.Context, blogID int64, limit int) ([]Article, error) {
	endpoint := fmt.Sprintf("/blogs/%d/articles.json", blogID)
	if limit > 0 {
		endpoint += "?" + url.Values{"limit": {fmt.Sprintf("%d", limit)}}.Encode()
	}

	var wrapper struct {
		Articles []Article `json:"articles"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Articles, nil
}

// CreateArticle publishes an article to a blog.
func (c *Client) CreateArticle(ctx context.Context, blogID int64, article *Article) (*Article, error) {
	var wrapper struct {
		Article Article `json:"article"`
	}
	payload := map[string]any{"article": article}
	endpoint := fmt.Sprintf("/blogs/%d/articles.json", blogID)
	if err := c.do(ctx, http.MethodPost, endpoint, payload, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Article, nil
}

// UpdateArticle updates an existing article.
func (c *Client) UpdateArticle(ctx context.Context, blogID, articleID int64, article *Article) (*Article, error) {
	var wrapper struct {
		Article Article `json:"article"`
	}
	payload := map[string]any{"article": article}
	endpoint := fmt.Sprintf("/blogs/%d/articles/%d.json", blogID, articleID)
	if err := c.do(ctx, http.MethodPut, endpoint, payload, &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Article, nil
}

// DeleteArticle removes an article.
func (c *Client) DeleteArticle(ctx context.Context, blogID, articleID int64) error {
	endpoint := fmt.Sprintf("/blogs/%d/articles/%d.json", blogID, articleID)
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// TestConnection verifies the credentials by fetching the shop. It never
// returns an error; failures are reported in the result.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Shop    *Shop  `json:"shop,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TestConnection probes the store credentials.
func (c *Client) TestConnection(ctx context.Context) ConnectionResult {
	shop, err := c.GetShop(ctx)
	if err != nil {
		return ConnectionResult{Success: false, Error: err.Error()}
	}
	return ConnectionResult{Success: true, Shop: shop}
}

package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{StoreURL: "test-store.myshopify.com", AccessToken: "shpat_test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewNormalizesStoreURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my-store.myshopify.com", "my-store.myshopify.com"},
		{"https://my-store.myshopify.com", "my-store.myshopify.com"},
		{"https://my-store.myshopify.com/", "my-store.myshopify.com"},
		{"http://my-store.myshopify.com", "my-store.myshopify.com"},
	}
	for _, tt := range tests {
		c, err := New(Config{StoreURL: tt.in, AccessToken: "tok"})
		if err != nil {
			t.Fatalf("New(%q): %v", tt.in, err)
		}
		if c.storeHost != tt.want {
			t.Errorf("New(%q) host = %s, want %s", tt.in, c.storeHost, tt.want)
		}
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Config{StoreURL: "s.myshopify.com"}); err == nil {
		t.Error("expected error for missing access token")
	}
	if _, err := New(Config{AccessToken: "tok"}); err == nil {
		t.Error("expected error for missing store URL")
	}
}

func TestGetShopSendsAccessToken(t *testing.T) {
	var gotToken string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		json.NewEncoder(w).Encode(map[string]any{"shop": map[string]any{
			"id": 123, "name": "Test Store", "email": "owner@example.com", "domain": "test-store.myshopify.com",
		}})
	})

	shop, err := c.GetShop(context.Background())
	if err != nil {
		t.Fatalf("GetShop: %v", err)
	}
	if gotToken != "shpat_test" {
		t.Errorf("access token header = %s", gotToken)
	}
	if shop.Name != "Test Store" || shop.ID != 123 {
		t.Errorf("shop = %+v", shop)
	}
}

func TestCreateArticleWrapsPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]Article

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"article": map[string]any{"id": 77, "title": gotBody["article"].Title}})
	})

	article := &Article{Title: "Ten Espresso Tips", BodyHTML: "<p>Grind fresh.</p>", Tags: "coffee, espresso", Published: true}
	created, err := c.CreateArticle(context.Background(), 42, article)
	if err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}

	if gotPath != "/blogs/42/articles.json" {
		t.Errorf("path = %s", gotPath)
	}
	if gotBody["article"].Title != "Ten Espresso Tips" {
		t.Errorf("submitted title = %s", gotBody["article"].Title)
	}
	if created.ID != 77 {
		t.Errorf("created ID = %d, want 77", created.ID)
	}
}

func TestGetBlogs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blogs.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"blogs": []map[string]any{
			{"id": 1, "title": "News", "handle": "news"},
			{"id": 2, "title": "Guides", "handle": "guides"},
		}})
	})

	blogs, err := c.GetBlogs(context.Background())
	if err != nil {
		t.Fatalf("GetBlogs: %v", err)
	}
	if len(blogs) != 2 || blogs[1].Handle != "guides" {
		t.Errorf("blogs = %+v", blogs)
	}
}

func TestTestConnectionSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"shop": map[string]any{"id": 9, "name": "Ok Store"}})
	})

	result := c.TestConnection(context.Background())
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Shop == nil || result.Shop.Name != "Ok Store" {
		t.Errorf("shop = %+v", result.Shop)
	}
}

func TestTestConnectionFailureNeverErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"[API] Invalid API key or access token"}`, http.StatusUnauthorized)
	})

	result := c.TestConnection(context.Background())
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "401") {
		t.Errorf("error should carry the status: %s", result.Error)
	}
	if result.Shop != nil {
		t.Errorf("shop should be nil on failure, got %+v", result.Shop)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":{"title":["can't be blank"]}}`, http.StatusUnprocessableEntity)
	})

	_, err := c.CreateArticle(context.Background(), 1, &Article{})
	if err == nil {
		t.Fatal("expected error for 422")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should carry the status: %v", err)
	}
}

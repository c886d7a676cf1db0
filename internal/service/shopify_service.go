package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/shopify"
)

// ShopifyService publishes generated content to Shopify stores. Store
// credentials arrive per request; no client state is kept between calls.
type ShopifyService struct {
	logger *slog.Logger

	// newClient is swappable for tests
	newClient func(cfg shopify.Config) (*shopify.Client, error)
}

// NewShopifyService creates a Shopify publishing service.
func NewShopifyService(logger *slog.Logger) *ShopifyService {
	return &ShopifyService{logger: logger, newClient: shopify.New}
}

// StoreCredentials identify one Shopify store.
type StoreCredentials struct {
	StoreURL    string `json:"store_url"`
	AccessToken string `json:"access_token"`
}

// TestConnection verifies store credentials. Invalid input and API failures
// are reported in the result, never as an error.
func (s *ShopifyService) TestConnection(ctx context.Context, creds StoreCredentials) shopify.ConnectionResult {
	client, err := s.newClient(shopify.Config{StoreURL: creds.StoreURL, AccessToken: creds.AccessToken})
	if err != nil {
		return shopify.ConnectionResult{Success: false, Error: err.Error()}
	}
	return client.TestConnection(ctx)
}

// PublishArticle renders a structured blog to HTML and creates it as an
// article in the given blog. When blogID is zero the store's first blog is
// used.
func (s *ShopifyService) PublishArticle(ctx context.Context, creds StoreCredentials, blogID int64, blog *llm.StructuredBlog, publish bool) (*shopify.Article, error) {
	client, err := s.newClient(shopify.Config{StoreURL: creds.StoreURL, AccessToken: creds.AccessToken})
	if err != nil {
		return nil, err
	}

	if blogID == 0 {
		blogs, err := client.GetBlogs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blogs: %w", err)
		}
		if len(blogs) == 0 {
			return nil, fmt.Errorf("store has no blogs to publish into")
		}
		blogID = blogs[0].ID
	}

	article := &shopify.Article{
		Title:     blog.Title,
		BodyHTML:  RenderBlogHTML(blog),
		Summary:   blog.MetaDescription,
		Tags:      strings.Join(blog.Tags, ", "),
		Published: publish,
	}

	created, err := client.CreateArticle(ctx, blogID, article)
	if err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	s.logger.Info("article published",
		"blog_id", blogID, "article_id", created.ID, "title", created.Title)
	return created, nil
}

// RenderBlogHTML converts a structured blog into article body HTML.
func RenderBlogHTML(blog *llm.StructuredBlog) string {
	var b strings.Builder
	for _, section := range blog.Sections {
		if section.Heading != "" {
			b.WriteString("<h2>")
			b.WriteString(htmlEscape(section.Heading))
			b.WriteString("</h2>\n")
		}
		for _, para := range strings.Split(section.Content, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			b.WriteString("<p>")
			b.WriteString(htmlEscape(para))
			b.WriteString("</p>\n")
		}
	}
	return b.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}

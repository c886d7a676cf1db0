package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/service"
	"github.com/blogforge/blogforge-api/internal/shopify"
)

// ShopifyHandler handles Shopify publishing endpoints.
type ShopifyHandler struct {
	shopifySvc *service.ShopifyService
}

// NewShopifyHandler creates a new Shopify handler.
func NewShopifyHandler(shopifySvc *service.ShopifyService) *ShopifyHandler {
	return &ShopifyHandler{shopifySvc: shopifySvc}
}

// TestConnectionInput is the connection test request.
type TestConnectionInput struct {
	Body struct {
		StoreURL    string `json:"store_url" minLength:"1" doc:"Store host, e.g. my-store.myshopify.com"`
		AccessToken string `json:"access_token" minLength:"1" doc:"Admin API access token"`
	}
}

// TestConnectionOutput is the connection test response.
type TestConnectionOutput struct {
	Body shopify.ConnectionResult
}

// TestConnection verifies Shopify store credentials. Failures are reported
// in the body, not as HTTP errors.
func (h *ShopifyHandler) TestConnection(ctx context.Context, input *TestConnectionInput) (*TestConnectionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result := h.shopifySvc.TestConnection(ctx, service.StoreCredentials{
		StoreURL:    input.Body.StoreURL,
		AccessToken: input.Body.AccessToken,
	})
	return &TestConnectionOutput{Body: result}, nil
}

// PublishArticleInput is the article publishing request.
type PublishArticleInput struct {
	Body struct {
		StoreURL    string             `json:"store_url" minLength:"1"`
		AccessToken string             `json:"access_token" minLength:"1"`
		BlogID      int64              `json:"blog_id,omitempty" doc:"Target blog, zero means the store's first blog"`
		Blog        llm.StructuredBlog `json:"blog" doc:"Structured post to publish"`
		Publish     bool               `json:"publish,omitempty" doc:"Publish immediately instead of saving as draft"`
	}
}

// PublishArticleOutput is the article publishing response.
type PublishArticleOutput struct {
	Body struct {
		Article *shopify.Article `json:"article"`
	}
}

// PublishArticle renders a structured blog and creates it as a Shopify
// article.
func (h *ShopifyHandler) PublishArticle(ctx context.Context, input *PublishArticleInput) (*PublishArticleOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if input.Body.Blog.Title == "" {
		return nil, huma.Error422UnprocessableEntity("blog title is required")
	}

	creds := service.StoreCredentials{
		StoreURL:    input.Body.StoreURL,
		AccessToken: input.Body.AccessToken,
	}
	article, err := h.shopifySvc.PublishArticle(ctx, creds, input.Body.BlogID, &input.Body.Blog, input.Body.Publish)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to publish article")
	}

	out := &PublishArticleOutput{}
	out.Body.Article = article
	return out, nil
}

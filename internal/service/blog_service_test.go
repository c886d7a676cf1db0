package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/llm"
)

// generationServer simulates an OpenAI-compatible endpoint. Health probes
// (max_tokens == 1) always succeed; generation returns fixed content.
func generationServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "# Post\n\n## Section\n\nGenerated body."}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 34},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupBlogService(t *testing.T) (*Services, *config.Config) {
	t.Helper()
	srv := generationServer(t)

	cfg := &config.Config{
		EncryptionKey:  testEncryptionKey,
		ServiceGroqKey: "gsk-test",
		LLMMaxRetries:  1,
		LLMTimeout:     10 * time.Second,
		LLMBaseURLs:    map[string]string{"groq": srv.URL},
	}

	repos := setupTestRepos(t)
	svcs, err := NewServices(cfg, repos, nil, slog.Default())
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	return svcs, cfg
}

func TestGenerateBlogContent(t *testing.T) {
	svcs, _ := setupBlogService(t)
	ctx := context.Background()

	result, err := svcs.Blog.GenerateBlogContent(ctx, "user_1", &llm.GenerationRequest{
		Prompt: "Write about espresso",
	})
	if err != nil {
		t.Fatalf("GenerateBlogContent: %v", err)
	}
	if result.Content == "" {
		t.Error("empty content")
	}
	if result.Provider != llm.ProviderGroq {
		t.Errorf("provider = %s, want groq (only credentialed provider)", result.Provider)
	}
	if result.InputTokens != 12 || result.OutputTokens != 34 {
		t.Errorf("tokens = %d/%d", result.InputTokens, result.OutputTokens)
	}

	// The attempt must be in the usage log
	summary, err := svcs.Usage.GetSummary(ctx, "user_1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.TotalRequests != 1 || summary.SuccessCount != 1 {
		t.Errorf("summary = %+v, want 1 successful request", summary)
	}
}

func TestGenerateStructuredBlogFallsBackToParsing(t *testing.T) {
	svcs, _ := setupBlogService(t)
	ctx := context.Background()

	// The only credentialed provider has no native structured output, so the
	// service must parse the markdown result.
	blog, result, err := svcs.Blog.GenerateStructuredBlog(ctx, "user_1", &llm.GenerationRequest{
		Prompt: "Write about espresso",
	})
	if err != nil {
		t.Fatalf("GenerateStructuredBlog: %v", err)
	}
	if blog.Title != "Post" {
		t.Errorf("parsed title = %q", blog.Title)
	}
	if len(blog.Sections) != 1 || blog.Sections[0].Heading != "Section" {
		t.Errorf("parsed sections = %+v", blog.Sections)
	}
	if result == nil || result.Content == "" {
		t.Error("underlying generation result missing")
	}
}

func TestRequestedProviderAndModelHonored(t *testing.T) {
	svcs, _ := setupBlogService(t)
	ctx := context.Background()

	result, err := svcs.Blog.GenerateBlogContent(ctx, "user_1", &llm.GenerationRequest{
		Prompt: "Write about espresso",
		Metadata: map[string]string{
			llm.MetaProviderID: llm.ProviderGroq,
			llm.MetaModelID:    "mixtral-8x7b-32768",
		},
	})
	if err != nil {
		t.Fatalf("GenerateBlogContent: %v", err)
	}
	if result.Provider != llm.ProviderGroq {
		t.Errorf("provider = %s, want groq", result.Provider)
	}
	if result.Model != "mixtral-8x7b-32768" {
		t.Errorf("model = %s, want requested mixtral-8x7b-32768", result.Model)
	}

	// The direct attempt must still land in the usage log with the
	// requested model.
	entries, err := svcs.Usage.GetEntries(ctx, "user_1", time.Time{}, time.Time{}, 10)
	if err != nil {
		t.Fatalf("GetEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Model != "mixtral-8x7b-32768" || !entries[0].Success {
		t.Errorf("entry = %+v, want successful mixtral attempt", entries[0])
	}
}

func TestRequestedProviderWithoutCredential(t *testing.T) {
	svcs, _ := setupBlogService(t)

	// Only groq is credentialed; an explicit request for another provider
	// must fail instead of silently falling back.
	_, err := svcs.Blog.GenerateBlogContent(context.Background(), "user_1", &llm.GenerationRequest{
		Prompt:   "Write about espresso",
		Metadata: map[string]string{llm.MetaProviderID: llm.ProviderOpenAI},
	})
	if err == nil {
		t.Fatal("expected error for uncredentialed requested provider")
	}
}

func TestRequestedProviderUnknown(t *testing.T) {
	svcs, _ := setupBlogService(t)

	_, err := svcs.Blog.GenerateBlogContent(context.Background(), "user_1", &llm.GenerationRequest{
		Prompt:   "Write about espresso",
		Metadata: map[string]string{llm.MetaProviderID: "acme-llm"},
	})
	if err == nil {
		t.Fatal("expected error for unknown requested provider")
	}
}

func TestGenerateSeoOptimization(t *testing.T) {
	svcs, _ := setupBlogService(t)

	result, err := svcs.Blog.GenerateSeoOptimization(context.Background(), "user_1", "Some blog content")
	if err != nil {
		t.Fatalf("GenerateSeoOptimization: %v", err)
	}
	if result.Content == "" {
		t.Error("empty content")
	}
}

func TestRouterCacheReuseAndClear(t *testing.T) {
	svcs, _ := setupBlogService(t)
	ctx := context.Background()

	if _, err := svcs.Blog.GenerateBlogContent(ctx, "user_1", &llm.GenerationRequest{Prompt: "a"}); err != nil {
		t.Fatalf("first generate: %v", err)
	}

	svcs.Blog.ClearRouterCache("user_1")

	// A fresh router must be built and still work
	if _, err := svcs.Blog.GenerateBlogContent(ctx, "user_1", &llm.GenerationRequest{Prompt: "b"}); err != nil {
		t.Fatalf("generate after clear: %v", err)
	}
}

func TestGetProviderCapabilitiesAndStatus(t *testing.T) {
	svcs, _ := setupBlogService(t)
	ctx := context.Background()

	caps, err := svcs.Blog.GetProviderCapabilities(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetProviderCapabilities: %v", err)
	}
	groqCaps, ok := caps[llm.ProviderGroq]
	if !ok {
		t.Fatalf("groq missing from capabilities: %v", caps)
	}
	if !groqCaps.Streaming {
		t.Error("unified adapter should report streaming")
	}

	statuses, err := svcs.Blog.GetProviderStatus(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetProviderStatus: %v", err)
	}
	if status := statuses[llm.ProviderGroq]; !status.Healthy {
		t.Errorf("groq should be healthy: %+v", status)
	}
}

func TestNoCredentialedProviders(t *testing.T) {
	cfg := &config.Config{
		EncryptionKey: testEncryptionKey,
		LLMMaxRetries: 1,
		LLMTimeout:    10 * time.Second,
	}
	repos := setupTestRepos(t)
	svcs, err := NewServices(cfg, repos, nil, slog.Default())
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}

	_, err = svcs.Blog.GenerateBlogContent(context.Background(), "user_1", &llm.GenerationRequest{Prompt: "a"})
	if err != llm.ErrNoProvidersAvailable {
		t.Errorf("err = %v, want ErrNoProvidersAvailable", err)
	}
}

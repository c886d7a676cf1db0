package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFactoryCacheHit(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	cfg := ProviderConfig{Provider: ProviderGroq, Model: "llama-3.1-8b-instant", APIKey: "gsk-test", Scope: "user_1"}

	p1, err := f.CreateProvider(cfg)
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	p2, err := f.CreateProvider(cfg)
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	if p1 != p2 {
		t.Error("same config should return cached instance")
	}
	if f.CacheSize() != 1 {
		t.Errorf("CacheSize = %d, want 1", f.CacheSize())
	}
}

func TestFactoryScopeSeparation(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	base := ProviderConfig{Provider: ProviderGroq, Model: "llama-3.1-8b-instant", APIKey: "gsk-test"}

	a := base
	a.Scope = "user_a"
	b := base
	b.Scope = "user_b"

	pa, _ := f.CreateProvider(a)
	pb, _ := f.CreateProvider(b)
	if pa == pb {
		t.Error("different scopes must not share instances")
	}
	if f.CacheSize() != 2 {
		t.Errorf("CacheSize = %d, want 2", f.CacheSize())
	}
}

func TestFactoryDefaultModel(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	p, err := f.CreateProvider(ProviderConfig{Provider: ProviderMistral, APIKey: "key", Scope: "u"})
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	if p.Model() != "mistral-large-latest" {
		t.Errorf("Model = %s, want mistral-large-latest", p.Model())
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	_, err := f.CreateProvider(ProviderConfig{Provider: "acme-llm", APIKey: "key"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "acme-llm") {
		t.Errorf("error should name the provider: %v", err)
	}
}

func TestFactoryMissingCredential(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	_, err := f.CreateProvider(ProviderConfig{Provider: ProviderOpenAI})
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("error should mention the missing key: %v", err)
	}
}

func TestFactoryEvictScope(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	f.CreateProvider(ProviderConfig{Provider: ProviderGroq, APIKey: "k", Scope: "user_a"})
	f.CreateProvider(ProviderConfig{Provider: ProviderMistral, APIKey: "k", Scope: "user_a"})
	f.CreateProvider(ProviderConfig{Provider: ProviderGroq, APIKey: "k", Scope: "user_b"})

	f.Evict("user_a")
	if f.CacheSize() != 1 {
		t.Errorf("CacheSize after evict = %d, want 1", f.CacheSize())
	}
}

func TestFactoryModes(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	modes := f.Modes()
	if modes[ProviderOpenAI] != "native" || modes[ProviderAnthropic] != "native" {
		t.Errorf("native providers misreported: %v", modes)
	}
	for _, p := range []string{ProviderGroq, ProviderMistral, ProviderCohere, ProviderOpenRouter} {
		if modes[p] != "unified" {
			t.Errorf("%s mode = %s, want unified", p, modes[p])
		}
	}
}

func TestFactoryValidateProviderConfig(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantValid bool
	}{
		{"accepted", http.StatusOK, true},
		{"rejected", http.StatusUnauthorized, false},
		{"forbidden", http.StatusForbidden, false},
		{"rate limited presumes valid", http.StatusTooManyRequests, true},
		{"outage presumes valid", http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"validation response"}}`))
			}))
			defer srv.Close()

			f := NewFactory(FactoryConfig{MaxRetries: 1})
			ok, err := f.ValidateProviderConfig(context.Background(), ProviderConfig{
				Provider: ProviderGroq,
				Model:    "llama-3.1-8b-instant",
				APIKey:   "gsk-test",
				BaseURL:  srv.URL,
			})
			if err != nil {
				t.Fatalf("ValidateProviderConfig: %v", err)
			}
			if ok != tt.wantValid {
				t.Errorf("valid = %v, want %v", ok, tt.wantValid)
			}
			if f.CacheSize() != 0 {
				t.Errorf("validation instance not evicted, CacheSize = %d", f.CacheSize())
			}
		})
	}
}

func TestFactoryListProviderModels(t *testing.T) {
	f := NewFactory(FactoryConfig{})

	models, err := f.ListProviderModels(ProviderAnthropic)
	if err != nil {
		t.Fatalf("ListProviderModels: %v", err)
	}
	for _, m := range models {
		if !strings.HasPrefix(m, "claude-") {
			t.Errorf("unexpected anthropic model %q", m)
		}
	}
	if len(models) == 0 {
		t.Error("expected at least one anthropic model")
	}

	if _, err := f.ListProviderModels("bogus"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

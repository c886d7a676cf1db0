package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blogforge/blogforge-api/internal/crypto"
	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/models"
)

func setupPreferenceService(t *testing.T) (*PreferenceService, *crypto.Encryptor, *int) {
	t.Helper()

	repos := setupTestRepos(t)
	encryptor, err := crypto.NewEncryptor(testEncryptionKey)
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	factory := llm.NewFactory(llm.FactoryConfig{MaxRetries: 1})

	invalidations := 0
	svc := NewPreferenceService(repos, encryptor, factory, func(userID string) {
		invalidations++
	}, slog.Default())
	return svc, encryptor, &invalidations
}

func TestUpsertPreference(t *testing.T) {
	svc, _, invalidations := setupPreferenceService(t)
	ctx := context.Background()

	pref := &models.UserProviderPreference{
		UserID:            "user_1",
		PrimaryProvider:   "groq",
		Fallback1Provider: "mistral",
		MaxQuality:        models.QualityPro,
		EnableFallback:    true,
	}
	if err := svc.UpsertPreference(ctx, pref); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}
	if *invalidations != 1 {
		t.Errorf("invalidations = %d, want 1", *invalidations)
	}

	got, err := svc.GetPreference(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if got == nil || got.PrimaryProvider != "groq" || got.Fallback1Provider != "mistral" {
		t.Errorf("preference = %+v", got)
	}
}

func TestUpsertPreferenceValidation(t *testing.T) {
	svc, _, _ := setupPreferenceService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		pref *models.UserProviderPreference
	}{
		{"missing user", &models.UserProviderPreference{PrimaryProvider: "groq"}},
		{"missing primary", &models.UserProviderPreference{UserID: "u"}},
		{"unknown provider", &models.UserProviderPreference{UserID: "u", PrimaryProvider: "acme-llm"}},
		{"unknown tier", &models.UserProviderPreference{UserID: "u", PrimaryProvider: "groq", MaxQuality: "platinum"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.UpsertPreference(ctx, tt.pref); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUpsertKeyEncryptsAtRest(t *testing.T) {
	svc, encryptor, invalidations := setupPreferenceService(t)
	ctx := context.Background()

	key, err := svc.UpsertKey(ctx, "user_1", "openai", "sk-proj-super-secret-value", "")
	if err != nil {
		t.Fatalf("UpsertKey: %v", err)
	}
	if key.KeyPrefix != "sk-proj-" {
		t.Errorf("KeyPrefix = %q", key.KeyPrefix)
	}
	if key.APIKeyEncrypted == "sk-proj-super-secret-value" {
		t.Error("key stored in plaintext")
	}

	plain, err := encryptor.Decrypt(key.APIKeyEncrypted)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "sk-proj-super-secret-value" {
		t.Errorf("round trip = %q", plain)
	}
	if *invalidations != 1 {
		t.Errorf("invalidations = %d, want 1", *invalidations)
	}
}

func TestUpsertKeyUnknownProvider(t *testing.T) {
	svc, _, _ := setupPreferenceService(t)

	if _, err := svc.UpsertKey(context.Background(), "user_1", "acme-llm", "key", ""); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDeleteKey(t *testing.T) {
	svc, _, invalidations := setupPreferenceService(t)
	ctx := context.Background()

	if _, err := svc.UpsertKey(ctx, "user_1", "openai", "sk-test-123", ""); err != nil {
		t.Fatalf("UpsertKey: %v", err)
	}
	if err := svc.DeleteKey(ctx, "user_1", "openai"); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}

	keys, err := svc.ListKeys(ctx, "user_1")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %d, want 0", len(keys))
	}
	if *invalidations != 2 {
		t.Errorf("invalidations = %d, want 2", *invalidations)
	}
}

package repository

import (
	"context"
	"testing"

	"github.com/blogforge/blogforge-api/internal/models"
)

func TestProviderKeyRepoUpsertAndGet(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	key := &models.UserProviderKey{
		UserID:          "user_1",
		Provider:        "openai",
		APIKeyEncrypted: "encrypted-blob",
		KeyPrefix:       "sk-test1",
		IsEnabled:       true,
	}
	if err := repos.ProviderKey.Upsert(ctx, key); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if key.ID == "" {
		t.Error("Upsert should assign an ID")
	}

	got, err := repos.ProviderKey.GetByUserAndProvider(ctx, "user_1", "openai")
	if err != nil {
		t.Fatalf("GetByUserAndProvider: %v", err)
	}
	if got == nil {
		t.Fatal("expected key, got nil")
	}
	if got.APIKeyEncrypted != "encrypted-blob" || got.KeyPrefix != "sk-test1" {
		t.Errorf("got %+v", got)
	}

	// Upsert same user+provider replaces
	key2 := &models.UserProviderKey{
		UserID:          "user_1",
		Provider:        "openai",
		APIKeyEncrypted: "new-blob",
		KeyPrefix:       "sk-test2",
		IsEnabled:       true,
	}
	if err := repos.ProviderKey.Upsert(ctx, key2); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	keys, err := repos.ProviderKey.GetByUserID(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("len(keys) = %d, want 1", len(keys))
	}
	if keys[0].APIKeyEncrypted != "new-blob" {
		t.Errorf("key not replaced: %+v", keys[0])
	}
}

func TestProviderKeyRepoDelete(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	key := &models.UserProviderKey{
		UserID:          "user_2",
		Provider:        "anthropic",
		APIKeyEncrypted: "blob",
		IsEnabled:       true,
	}
	if err := repos.ProviderKey.Upsert(ctx, key); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := repos.ProviderKey.Delete(ctx, "user_2", "anthropic"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := repos.ProviderKey.GetByUserAndProvider(ctx, "user_2", "anthropic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

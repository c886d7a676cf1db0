package repository

import (
	"context"
	"testing"

	"github.com/blogforge/blogforge-api/internal/models"
)

func TestPreferenceRepoGetMissing(t *testing.T) {
	repos := setupTestRepos(t)

	pref, err := repos.Preference.Get(context.Background(), "user_nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pref != nil {
		t.Errorf("expected nil for missing preference, got %+v", pref)
	}
}

func TestPreferenceRepoUpsertAndGet(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	maxCost := 0.05
	pref := &models.UserProviderPreference{
		UserID:            "user_1",
		PrimaryProvider:   "openai",
		PrimaryModel:      "gpt-4o-mini",
		MaxQuality:        models.QualityPro,
		Fallback1Provider: "anthropic",
		Fallback2Provider: "groq",
		EnableFallback:    true,
		MaxCostPer1K:      &maxCost,
	}

	if err := repos.Preference.Upsert(ctx, pref); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repos.Preference.Get(ctx, "user_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected preference, got nil")
	}
	if got.PrimaryProvider != "openai" || got.PrimaryModel != "gpt-4o-mini" {
		t.Errorf("primary = %s/%s", got.PrimaryProvider, got.PrimaryModel)
	}
	if got.Fallback1Provider != "anthropic" || got.Fallback1Model != "" {
		t.Errorf("fallback1 = %s/%s", got.Fallback1Provider, got.Fallback1Model)
	}
	if !got.EnableFallback {
		t.Error("EnableFallback should be true")
	}
	if got.MaxCostPer1K == nil || *got.MaxCostPer1K != 0.05 {
		t.Errorf("MaxCostPer1K = %v", got.MaxCostPer1K)
	}

	// Upsert again with changed values
	pref.PrimaryProvider = "mistral"
	pref.EnableFallback = false
	pref.MaxCostPer1K = nil
	if err := repos.Preference.Upsert(ctx, pref); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err = repos.Preference.Get(ctx, "user_1")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.PrimaryProvider != "mistral" {
		t.Errorf("PrimaryProvider = %s, want mistral", got.PrimaryProvider)
	}
	if got.EnableFallback {
		t.Error("EnableFallback should be false after update")
	}
	if got.MaxCostPer1K != nil {
		t.Errorf("MaxCostPer1K should be nil, got %v", *got.MaxCostPer1K)
	}
}

func TestPreferenceRepoDelete(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	pref := &models.UserProviderPreference{
		UserID:          "user_del",
		PrimaryProvider: "openai",
		MaxQuality:      models.QualityBasic,
	}
	if err := repos.Preference.Upsert(ctx, pref); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := repos.Preference.Delete(ctx, "user_del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := repos.Preference.Get(ctx, "user_del")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

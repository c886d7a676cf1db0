package config

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		t.Error("DatabaseURL should have a default")
	}
	if cfg.JWTSecret == "" {
		t.Error("JWTSecret should be generated when unset")
	}
	if len(cfg.EncryptionKey) != 32 {
		t.Errorf("EncryptionKey length = %d, want 32", len(cfg.EncryptionKey))
	}
	if cfg.LLMMaxRetries != 3 {
		t.Errorf("LLMMaxRetries = %d, want 3", cfg.LLMMaxRetries)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Errorf("LLMTimeout = %v, want 120s", cfg.LLMTimeout)
	}
	if cfg.StorageEnabled {
		t.Error("StorageEnabled should be false without bucket config")
	}
}

func TestLoadExplicitEncryptionKey(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.EncryptionKey) != 32 || cfg.EncryptionKey[5] != 5 {
		t.Error("explicit ENCRYPTION_KEY not honored")
	}
}

func TestLoadRejectsBadEncryptionKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "not-valid-base64-or-wrong-size")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid ENCRYPTION_KEY")
	}
}

func TestServiceKey(t *testing.T) {
	cfg := &Config{
		ServiceOpenAIKey:    "sk-openai",
		ServiceAnthropicKey: "sk-ant",
		ServiceGroqKey:      "gsk-groq",
	}

	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "sk-openai"},
		{"anthropic", "sk-ant"},
		{"groq", "gsk-groq"},
		{"mistral", ""},
		{"nonexistent", ""},
	}

	for _, tt := range tests {
		if got := cfg.ServiceKey(tt.provider); got != tt.want {
			t.Errorf("ServiceKey(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestBaseURLOverride(t *testing.T) {
	t.Setenv("LLM_BASE_URL_OPENAI", "http://localhost:9999/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.BaseURLOverride("openai"); got != "http://localhost:9999/v1" {
		t.Errorf("BaseURLOverride(openai) = %q", got)
	}
	if got := cfg.BaseURLOverride("anthropic"); got != "" {
		t.Errorf("BaseURLOverride(anthropic) = %q, want empty", got)
	}
}

func TestDeriveEncryptionKeyDeterministic(t *testing.T) {
	k1 := deriveEncryptionKey("secret-a")
	k2 := deriveEncryptionKey("secret-a")
	k3 := deriveEncryptionKey("secret-b")

	if string(k1) != string(k2) {
		t.Error("same secret should derive same key")
	}
	if string(k1) == string(k3) {
		t.Error("different secrets should derive different keys")
	}
	if len(k1) != 32 {
		t.Errorf("derived key length = %d, want 32", len(k1))
	}
}

package service

import (
	"database/sql"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/blogforge/blogforge-api/internal/database/migrations"
	"github.com/blogforge/blogforge-api/internal/repository"
)

// setupTestRepos creates repositories backed by an in-memory SQLite database
// with migrations (including the provider catalog seed) applied.
func setupTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return repository.NewRepositories(db)
}

var testEncryptionKey = []byte("0123456789abcdef0123456789abcdef")

package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the auth schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE roles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE permissions (
			id TEXT PRIMARY KEY,
			resource TEXT NOT NULL,
			operation TEXT NOT NULL,
			UNIQUE (resource, operation)
		) STRICT;

		CREATE TABLE role_permissions (
			role_id TEXT NOT NULL,
			permission_id TEXT NOT NULL,
			PRIMARY KEY (role_id, permission_id),
			FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE,
			FOREIGN KEY (permission_id) REFERENCES permissions(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			email TEXT,
			password_hash TEXT NOT NULL,
			role_id TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (role_id) REFERENCES roles(id)
		) STRICT;

		CREATE TABLE refresh_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			disabled INTEGER NOT NULL DEFAULT 0,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	seedSQL := `
		INSERT INTO roles (id, name) VALUES ('role-admin', 'Admin'), ('role-user', 'User');

		INSERT INTO permissions (id, resource, operation) VALUES
			('perm-device-read', 'DEVICE', 'READ'),
			('perm-device-write', 'DEVICE', 'WRITE'),
			('perm-room-read', 'ROOM', 'READ'),
			('perm-room-write', 'ROOM', 'WRITE'),
			('perm-product-read', 'PRODUCT', 'READ'),
			('perm-product-write', 'PRODUCT', 'WRITE'),
			('perm-user-read', 'USER', 'READ'),
			('perm-user-write', 'USER', 'WRITE'),
			('perm-stats-read', 'STATS', 'READ');

		INSERT INTO role_permissions (role_id, permission_id)
		SELECT 'role-admin', id FROM permissions;

		INSERT INTO role_permissions (role_id, permission_id) VALUES
			('role-user', 'perm-device-read'),
			('role-user', 'perm-room-read'),
			('role-user', 'perm-product-read'),
			('role-user', 'perm-stats-read');
	`
	if _, err := db.Exec(seedSQL); err != nil {
		t.Fatalf("seeding roles: %v", err)
	}

	return db
}

// seedTestUser inserts a user with the given role name and the password
// "test-password", and returns it.
func seedTestUser(t *testing.T, db *sql.DB, username, roleName string) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	repo := NewUserRepository(db)
	role, err := repo.RoleByName(context.Background(), roleName)
	if err != nil {
		t.Fatalf("resolving role %s: %v", roleName, err)
	}

	user := &User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}

// testCodec returns a codec with short-but-comfortable lifetimes.
func testCodec() *Codec {
	return NewCodec("test-secret-key-at-least-32-chars!", 15*time.Minute, 7*24*time.Hour)
}

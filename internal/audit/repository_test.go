package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE auth_events (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		username TEXT NOT NULL,
		user_id TEXT,
		remote_ip TEXT,
		details TEXT,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	) STRICT;`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestRecord_GeneratesIDAndTimestamp(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	event := &Event{
		Action:   ActionLogin,
		Username: "rowan",
		UserID:   "usr-1",
		RemoteIP: "10.0.0.5",
		Details:  map[string]any{"user_agent": "curl/8.0"},
	}
	if err := repo.Record(ctx, event); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if event.ID == "" {
		t.Error("Record() should generate an ID")
	}
	if event.CreatedAt.IsZero() {
		t.Error("Record() should set CreatedAt")
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	got := result.Events[0]
	if got.Action != ActionLogin || got.Username != "rowan" || got.UserID != "usr-1" {
		t.Errorf("event = %+v", got)
	}
	if got.Details["user_agent"] != "curl/8.0" {
		t.Errorf("Details = %v", got.Details)
	}
}

func TestList_Filters(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []Event{
		{Action: ActionLogin, Username: "rowan", CreatedAt: base},
		{Action: ActionLoginFailed, Username: "rowan", CreatedAt: base.Add(time.Minute)},
		{Action: ActionLogin, Username: "sam", CreatedAt: base.Add(2 * time.Minute)},
		{Action: ActionLogout, Username: "sam", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range seed {
		if err := repo.Record(ctx, &seed[i]); err != nil {
			t.Fatalf("seeding event %d: %v", i, err)
		}
	}

	byAction, err := repo.List(ctx, Filter{Action: ActionLogin})
	if err != nil {
		t.Fatalf("List(action) error = %v", err)
	}
	if byAction.Total != 2 {
		t.Errorf("login events Total = %d, want 2", byAction.Total)
	}

	byUser, err := repo.List(ctx, Filter{Username: "sam"})
	if err != nil {
		t.Fatalf("List(username) error = %v", err)
	}
	if byUser.Total != 2 {
		t.Errorf("sam events Total = %d, want 2", byUser.Total)
	}

	both, err := repo.List(ctx, Filter{Action: ActionLogin, Username: "sam"})
	if err != nil {
		t.Fatalf("List(both) error = %v", err)
	}
	if both.Total != 1 {
		t.Errorf("combined filter Total = %d, want 1", both.Total)
	}
}

func TestList_OrderAndPagination(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		event := &Event{
			Action:    ActionRefresh,
			Username:  "rowan",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Record(ctx, event); err != nil {
			t.Fatalf("seeding event %d: %v", i, err)
		}
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Total = %d, want 5", page.Total)
	}
	if len(page.Events) != 2 {
		t.Fatalf("len(Events) = %d, want 2", len(page.Events))
	}
	// Most recent first: offset 1 skips minute 4, page holds minutes 3 and 2.
	if !page.Events[0].CreatedAt.After(page.Events[1].CreatedAt) {
		t.Errorf("events not in descending order: %v, %v",
			page.Events[0].CreatedAt, page.Events[1].CreatedAt)
	}
}

func TestList_Empty(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Events == nil {
		t.Error("Events should be an empty slice, not nil")
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
}

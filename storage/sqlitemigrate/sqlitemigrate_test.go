package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countMigrations(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + migrationTable).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	return n
}

func TestApplyRecordsAndSkips(t *testing.T) {
	db := openInMemoryDB(t)
	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
	}
	ctx := context.Background()

	if err := Apply(ctx, db, migrations); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := Apply(ctx, db, migrations); err != nil {
		t.Fatalf("re-apply should be idempotent: %v", err)
	}
	if n := countMigrations(t, db); n != 1 {
		t.Fatalf("expected 1 migration row, got %d", n)
	}
	if _, err := db.Exec("INSERT INTO items(id) VALUES ('a')"); err != nil {
		t.Fatalf("table should exist: %v", err)
	}
}

func TestApplyDoesNotRecordFailure(t *testing.T) {
	db := openInMemoryDB(t)
	bad := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("CREAT TABLE things(id INT);")},
	}
	if err := Apply(context.Background(), db, bad); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if n := countMigrations(t, db); n != 0 {
		t.Fatalf("failed migration must stay unrecorded, got %d rows", n)
	}
}

func TestExtractUp(t *testing.T) {
	got := ExtractUp("-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;")
	if got != "\nSELECT 1;\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if got := ExtractUp("SELECT 3;"); got != "SELECT 3;" {
		t.Fatalf("unmarked file should be returned whole, got %q", got)
	}
}

package migrations_test

import (
	"context"
	"path/filepath"
	"testing"

	"trivia-service/internal/infra/sqlstore"
	"trivia-service/internal/infra/sqlstore/migrations"
)

func TestMigrationsAreRegisteredByFileName(t *testing.T) {
	sorted := migrations.Migrations.Sorted()
	if len(sorted) != 1 {
		t.Fatalf("expected one migration, got %d", len(sorted))
	}
	if sorted[0].Name != "20241122000000" || sorted[0].Comment != "create_trivia_tables" {
		t.Fatalf("unexpected migration %q (%q)", sorted[0].Name, sorted[0].Comment)
	}
}

func TestUpCreatesSchemaOnce(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "trivia.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	group, err := migrations.Up(ctx, db)
	if err != nil {
		t.Fatalf("first up: %v", err)
	}
	if group.IsZero() {
		t.Fatalf("expected the first run to apply the migration")
	}

	var tables int
	if err := db.NewRaw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'questions', 'trivias', 'participations', 'answers')").Scan(ctx, &tables); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tables != 5 {
		t.Fatalf("expected 5 core tables, got %d", tables)
	}

	group, err = migrations.Up(ctx, db)
	if err != nil {
		t.Fatalf("second up: %v", err)
	}
	if !group.IsZero() {
		t.Fatalf("expected nothing to apply on the second run, got %s", group)
	}
}

package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_Success(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0001_create_carts.up.sql": {
			Data: []byte("CREATE TABLE carts (identity TEXT PRIMARY KEY);"),
		},
		"sql/migrations/0001_create_carts.down.sql": {
			Data: []byte("DROP TABLE IF EXISTS carts;"),
		},
		"sql/migrations/0002_create_orders.up.sql": {
			Data: []byte("CREATE TABLE orders (id TEXT PRIMARY KEY);"),
		},
		"sql/migrations/0002_create_orders.down.sql": {
			Data: []byte("DROP TABLE IF EXISTS orders;"),
		},
	}

	migrations, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create_carts" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "create_orders" {
		t.Fatalf("unexpected second migration: %+v", migrations[1])
	}
}

func TestLoadMigrations_MissingDown(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0001_create_carts.up.sql": {
			Data: []byte("CREATE TABLE carts (identity TEXT PRIMARY KEY);"),
		},
	}

	_, err := loadMigrations(fsys)
	if err == nil {
		t.Fatal("expected error for missing down migration")
	}
	if !strings.Contains(err.Error(), "both up and down") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadMigrations_InvalidFilename(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/not_a_migration.sql": {
			Data: []byte("SELECT 1;"),
		},
	}

	if _, err := loadMigrations(fsys); err == nil {
		t.Fatal("expected error for invalid migration file name")
	}
}

func TestLoadMigrations_EmptyFile(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"sql/migrations/0001_create_carts.up.sql": {
			Data: []byte("   "),
		},
		"sql/migrations/0001_create_carts.down.sql": {
			Data: []byte("DROP TABLE IF EXISTS carts;"),
		},
	}

	if _, err := loadMigrations(fsys); err == nil {
		t.Fatal("expected error for empty migration file")
	}
}

func TestEmbeddedMigrationsAreWellFormed(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("embedded migrations must load: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Fatalf("migrations must be strictly ordered: %d then %d",
				migrations[i-1].Version, migrations[i].Version)
		}
	}
}

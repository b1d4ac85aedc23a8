package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/nerrad567/flashmux/migrations"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_muxes.up.sql":    {Data: []byte("CREATE TABLE muxes (id TEXT PRIMARY KEY);")},
		"20260101_000000_muxes.down.sql":  {Data: []byte("DROP TABLE muxes;")},
		"20260102_000000_devices.up.sql":  {Data: []byte("CREATE TABLE devices (name TEXT PRIMARY KEY);")},
		"20260103_000000_orphan.down.sql": {Data: []byte("DROP TABLE nothing;")},
		"README.md":                       {Data: []byte("not a migration")},
		"20260104_broken.up.sql.bak":      {Data: []byte("")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatal(err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "muxes") || !tableExists(t, db, "devices") {
		t.Fatal("migrations not applied")
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}
	if applied[0].Version != "20260101_000000" || applied[0].AppliedAt.IsZero() {
		t.Errorf("applied[0] = %+v", applied[0])
	}

	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_FailureStopsAndRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"20260101_000000_ok.up.sql":    {Data: []byte("CREATE TABLE ok (x INTEGER);")},
		"20260102_000000_bad.up.sql":   {Data: []byte("CREATE TABLE half (x INTEGER); NOT SQL;")},
		"20260103_000000_later.up.sql": {Data: []byte("CREATE TABLE later (x INTEGER);")},
	}

	if err := db.Migrate(ctx, fsys); err == nil {
		t.Fatal("Migrate() with bad SQL = nil")
	}
	if !tableExists(t, db, "ok") {
		t.Error("migration before the failure was not kept")
	}
	if tableExists(t, db, "later") {
		t.Error("migration after the failure was applied")
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 1 || len(pending) != 2 {
		t.Errorf("applied=%d pending=%d, want 1/2", len(applied), len(pending))
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Fatalf("MigrateDown() with nothing applied = %v", err)
	}
	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatal(err)
	}

	// The latest migration has no down file.
	if err := db.MigrateDown(ctx, fsys); !errors.Is(err, ErrNoDownMigration) {
		t.Fatalf("MigrateDown() = %v, want ErrNoDownMigration", err)
	}

	delete(fsys, "20260102_000000_devices.up.sql")
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = '20260102_000000'"); err != nil {
		t.Fatal(err)
	}
	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "muxes") {
		t.Error("muxes table still present after rollback")
	}
	applied, _, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %d after rollback, want 0", len(applied))
	}
}

func TestMigrate_NilFS(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(context.Background(), nil); err != nil {
		t.Errorf("Migrate(nil) = %v", err)
	}
}

func TestMigrate_EmbeddedSchema(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate(migrations.FS) error = %v", err)
	}
	if !tableExists(t, db, "strobe_history") {
		t.Fatal("strobe_history not created")
	}
	if err := db.MigrateDown(ctx, migrations.FS); err != nil {
		t.Fatalf("MigrateDown(migrations.FS) error = %v", err)
	}
	if tableExists(t, db, "strobe_history") {
		t.Error("strobe_history still present after rollback")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name    string
		version string
		up      bool
		ok      bool
	}{
		{"20260301_120000_strobe_history.up.sql", "20260301_120000", true, true},
		{"20260301_120000_strobe_history.down.sql", "20260301_120000", false, true},
		{"20260301_120000.up.sql", "20260301_120000", true, true},
		{"20260301.up.sql", "", false, false},
		{"20260301_120000_x.sql", "", false, false},
		{"20260301_120000_x.up.txt", "", false, false},
		{"_120000_x.up.sql", "", false, false},
	}
	for _, tt := range tests {
		version, up, ok := parseMigrationFilename(tt.name)
		if version != tt.version || up != tt.up || ok != tt.ok {
			t.Errorf("parseMigrationFilename(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.name, version, up, ok, tt.version, tt.up, tt.ok)
		}
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := map[string]string{
		"20260301_120000_strobe_history.up.sql":   "strobe_history",
		"20260301_120000_strobe_history.down.sql": "strobe_history",
		"20260301_120000.up.sql":                  "20260301_120000",
	}
	for in, want := range tests {
		if got := extractMigrationName(in); got != want {
			t.Errorf("extractMigrationName(%q) = %q, want %q", in, got, want)
		}
	}
}

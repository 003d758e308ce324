package storage

import "testing"

func TestMigrateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := openSQLiteDB(dir + "/cass.db")
	if err != nil {
		t.Fatalf("openSQLiteDB() error = %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() first call error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second call error = %v", err)
	}

	if got := schemaVersion(db); got != migrations[len(migrations)-1].version {
		t.Fatalf("schemaVersion() = %d, want %d", got, migrations[len(migrations)-1].version)
	}
}

func TestMigrateCreatesExpectedTables(t *testing.T) {
	dir := t.TempDir()
	db, err := openSQLiteDB(dir + "/cass.db")
	if err != nil {
		t.Fatalf("openSQLiteDB() error = %v", err)
	}
	defer db.Close()
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, table := range []string{"agents", "workspaces", "conversations", "messages", "snippets", "fts_messages"} {
		var name string
		if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE name = ?`, table).Scan(&name); err != nil {
			t.Errorf("table %s missing after Migrate(): %v", table, err)
		}
	}
}

func TestSchemaVersionZeroOnFreshDB(t *testing.T) {
	dir := t.TempDir()
	db, err := openSQLiteDB(dir + "/cass.db")
	if err != nil {
		t.Fatalf("openSQLiteDB() error = %v", err)
	}
	defer db.Close()
	if got := schemaVersion(db); got != 0 {
		t.Fatalf("schemaVersion(fresh) = %d, want 0", got)
	}
}

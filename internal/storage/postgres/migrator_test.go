package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrationsFromFS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   fstest.MapFS
		wantLen int
		wantErr string
	}{
		{
			name: "sorted by version",
			files: fstest.MapFS{
				"sql/migrations/0002_more.up.sql":   {Data: []byte("CREATE TABLE b (id INT);")},
				"sql/migrations/0002_more.down.sql": {Data: []byte("DROP TABLE b;")},
				"sql/migrations/0001_init.up.sql":   {Data: []byte("CREATE TABLE a (id INT);")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantLen: 2,
		},
		{
			name: "missing down",
			files: fstest.MapFS{
				"sql/migrations/0001_init.up.sql": {Data: []byte("CREATE TABLE a (id INT);")},
			},
			wantErr: "both up and down",
		},
		{
			name: "invalid file name",
			files: fstest.MapFS{
				"sql/migrations/not_a_migration.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "invalid migration file name",
		},
		{
			name: "empty body",
			files: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   {Data: []byte("   \n")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantErr: "empty",
		},
		{
			name: "name mismatch",
			files: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":    {Data: []byte("CREATE TABLE a (id INT);")},
				"sql/migrations/0001_other.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantErr: "name mismatch",
		},
		{
			name: "duplicate direction",
			files: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   {Data: []byte("CREATE TABLE a (id INT);")},
				"sql/migrations/1_init.up.sql":      {Data: []byte("CREATE TABLE a (id INT);")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantErr: "duplicate up migration",
		},
		{
			name:    "no files",
			files:   fstest.MapFS{},
			wantErr: "no migration files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migrations, err := loadMigrationsFromFS(tt.files)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("loadMigrationsFromFS failed: %v", err)
			}
			if len(migrations) != tt.wantLen {
				t.Fatalf("expected %d migrations, got %d", tt.wantLen, len(migrations))
			}
			for i := 1; i < len(migrations); i++ {
				if migrations[i-1].Version >= migrations[i].Version {
					t.Fatalf("migrations are not sorted: %+v", migrations)
				}
			}
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 embedded migrations, got %d", len(migrations))
	}
	if migrations[0].Name != "orders" || migrations[1].Name != "outbox" {
		t.Fatalf("unexpected migrations: %s, %s", migrations[0].Name, migrations[1].Name)
	}
	if !strings.Contains(migrations[0].UpSQL, "ON DELETE CASCADE") {
		t.Fatal("tracking steps must cascade on order delete")
	}
}

func TestParseMigrationFile(t *testing.T) {
	t.Parallel()

	version, name, direction, err := parseMigrationFile("0002_outbox.down.sql")
	if err != nil {
		t.Fatalf("parseMigrationFile failed: %v", err)
	}
	if version != 2 || name != "outbox" || direction != migrationDown {
		t.Fatalf("unexpected parse result: %d %s %s", version, name, direction)
	}
	if got := (migration{Version: version, Name: name}).String(); got != "0002_outbox" {
		t.Fatalf("unexpected migration label: %s", got)
	}

	for _, bad := range []string{"outbox.up.sql", "0001_orders.sideways.sql", "0001-orders.up.sql"} {
		if _, _, _, err := parseMigrationFile(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

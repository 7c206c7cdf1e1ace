package database

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const dialect = "mysql"

// Source returns the embedded migration set.
func Source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{FileSystem: migrationFS, Root: "migrations"}
}

// Up applies every pending migration and returns how many ran.
func Up(db *sql.DB) (int, error) {
	n, err := migrate.Exec(db, dialect, Source(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("migrate up: %w", err)
	}
	return n, nil
}

// Down rolls back at most steps migrations.  steps <= 0 rolls back all.
func Down(db *sql.DB, steps int) (int, error) {
	n, err := migrate.ExecMax(db, dialect, Source(), migrate.Down, max(steps, 0))
	if err != nil {
		return n, fmt.Errorf("migrate down: %w", err)
	}
	return n, nil
}

// MigrationStatus is one row of `parkctl migrate status`.
type MigrationStatus struct {
	ID        string
	AppliedAt *time.Time
}

// Status lists every known migration with the time it was applied, if
// it was.
func Status(db *sql.DB) ([]MigrationStatus, error) {
	migrations, err := Source().FindMigrations()
	if err != nil {
		return nil, err
	}
	records, err := migrate.GetMigrationRecords(db, dialect)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]time.Time, len(records))
	for _, r := range records {
		applied[r.Id] = r.AppliedAt
	}
	out := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		st := MigrationStatus{ID: m.Id}
		if at, ok := applied[m.Id]; ok {
			at := at
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

package migration

import (
	"context"
	"time"
)

// Migration is a single versioned SQL script.
type Migration struct {
	Version     string // numeric version taken from the file name, e.g. "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // hex SHA-256 of the file contents
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarizes the migration state of a database.
type Status struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// Executor runs migrations against a concrete database.
type Executor interface {
	// InitializeVersionTable creates the schema_migrations table if it does not exist.
	InitializeVersionTable(ctx context.Context) error
	// ExecuteMigration applies the migration and records it in one transaction.
	ExecuteMigration(ctx context.Context, migration Migration) error
	// GetAppliedVersions returns applied migrations ordered by version.
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/room-reservations/internal/persistence/migration"
)

// Executor implements migration.Executor on a pgx pool.
type Executor struct {
	pool *pgxpool.Pool
}

// NewExecutor creates a PostgreSQL migration executor.
func NewExecutor(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *Executor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL,
			checksum TEXT,
			execution_time_ms BIGINT
		)
	`
	if _, err := e.pool.Exec(ctx, createTableSQL); err != nil {
		return migration.NewDatabaseError("", createTableSQL, "create schema_migrations table", err)
	}
	return nil
}

// ExecuteMigration runs the migration statements and records the version in one transaction.
func (e *Executor) ExecuteMigration(ctx context.Context, m migration.Migration) error {
	statements := migration.SplitStatements(m.SQL)
	if len(statements) == 0 {
		return migration.NewMigrationError(m.Version, m.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found", migration.ErrInvalidMigrationFile))
	}

	started := time.Now()
	return withTx(ctx, e.pool, func(tx pgx.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return migration.NewDatabaseError(m.Version, stmt, fmt.Sprintf("execute statement %d", i+1), err)
			}
		}

		const insertSQL = `
			INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
			VALUES ($1, $2, $3, $4)
		`
		appliedAt := time.Now().UTC()
		if _, err := tx.Exec(ctx, insertSQL, m.Version, appliedAt, m.Checksum, appliedAt.Sub(started).Milliseconds()); err != nil {
			return migration.NewDatabaseError(m.Version, insertSQL, "record migration", err)
		}
		return nil
	})
}

// GetAppliedVersions returns applied migrations ordered by version.
func (e *Executor) GetAppliedVersions(ctx context.Context) ([]migration.AppliedMigration, error) {
	const querySQL = `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY version::integer ASC
	`
	rows, err := e.pool.Query(ctx, querySQL)
	if err != nil {
		return nil, migration.NewDatabaseError("", querySQL, "get applied versions", err)
	}
	defer rows.Close()

	var applied []migration.AppliedMigration
	for rows.Next() {
		var (
			a        migration.AppliedMigration
			execTime int64
		)
		if err := rows.Scan(&a.Version, &a.AppliedAt, &execTime, &a.Checksum); err != nil {
			return nil, migration.NewDatabaseError("", querySQL, "scan applied migration", err)
		}
		a.ExecutionTime = time.Duration(execTime) * time.Millisecond
		applied = append(applied, a)
	}
	if err := rows.Err(); err != nil {
		return nil, migration.NewDatabaseError("", querySQL, "iterate applied migrations", err)
	}
	return applied, nil
}

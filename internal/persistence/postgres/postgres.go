// Package postgres stores reservations in PostgreSQL through pgx.
//
// Double bookings are prevented twice: repositories run the caller's booking
// guard inside the write transaction, and the reservations table carries
// exclusion constraints over (room, time range) and (employee, time range)
// for non-cancelled rows, which also catch concurrent writers.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Config holds PostgreSQL connection settings.
type Config struct {
	URL string
	// Schema, when set, is put first on the search_path of every connection.
	Schema   string
	MaxConns int32
}

// Storage bundles the PostgreSQL repositories over a shared pool.
type Storage struct {
	pool *pgxpool.Pool

	Users        *UserRepository
	Rooms        *RoomRepository
	Reservations *ReservationRepository
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, config Config) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(config.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	if config.Schema != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = pgx.Identifier{config.Schema}.Sanitize() + ", public"
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Storage{
		pool:         pool,
		Users:        &UserRepository{pool: pool},
		Rooms:        &RoomRepository{pool: pool},
		Reservations: &ReservationRepository{pool: pool},
	}, nil
}

// Pool exposes the underlying pool.
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

// Close releases the pool.
func (s *Storage) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations and reports how many ran.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) (int, error) {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		NewExecutor(s.pool),
		logger,
	)
	applied, err := manager.RunMigrations(ctx)
	if err != nil {
		return applied, fmt.Errorf("postgres: migrate: %w", err)
	}
	return applied, nil
}

// MigrationStatus reports applied and pending migrations.
func (s *Storage) MigrationStatus(ctx context.Context, logger *slog.Logger) (*migration.Status, error) {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		NewExecutor(s.pool),
		logger,
	)
	return manager.GetMigrationStatus(ctx)
}

// PostgreSQL SQLSTATE codes mapped to persistence errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeExclusionViolation  = "23P01"
)

// mapError converts pgx errors into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", persistence.ErrDuplicate, pgErr.ConstraintName)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", persistence.ErrForeignKeyViolation, pgErr.ConstraintName)
	case codeCheckViolation, codeNotNullViolation:
		return fmt.Errorf("%w: %s", persistence.ErrConstraintViolation, pgErr.ConstraintName)
	case codeExclusionViolation:
		if strings.Contains(pgErr.ConstraintName, "employee") {
			return &persistence.OverlapError{Employee: true}
		}
		return &persistence.OverlapError{Room: true}
	}
	return err
}

// withTx runs fn in a transaction, committing when it returns nil.
func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func likePattern(search string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

func rowsAffectedOrNotFound(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

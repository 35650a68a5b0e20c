package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager orchestrates scanning and applying migrations.
type Manager struct {
	scanner  *Scanner
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to slog.Default.
func NewManager(scanner *Scanner, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// RunMigrations applies all pending migrations in version order and returns
// how many were applied.
func (m *Manager) RunMigrations(ctx context.Context) (int, error) {
	started := time.Now()

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to determine pending migrations", "error", err)
		return 0, err
	}
	if len(pending) == 0 {
		m.logger.InfoContext(ctx, "database schema is up to date")
		return 0, nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "pending_count", len(pending))

	for i, migration := range pending {
		logger := m.logger.With("version", migration.Version, "description", migration.Description)
		migrationStarted := time.Now()

		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return i, NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}

		logger.InfoContext(ctx, "migration applied", "duration", time.Since(migrationStarted))
	}

	m.logger.InfoContext(ctx, "all migrations applied",
		"applied_count", len(pending),
		"duration", time.Since(started),
	)
	return len(pending), nil
}

// GetPendingMigrations returns the migrations that still need to run.
func (m *Manager) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, fmt.Errorf("migration sequence validation failed: %w", err)
	}

	appliedSet := make(map[int]bool, len(applied))
	for _, a := range applied {
		appliedSet[versionNumber(a.Version)] = true
	}

	var pending []Migration
	for _, migration := range available {
		if !appliedSet[versionNumber(migration.Version)] {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// GetMigrationStatus reports the current version and pending migrations.
func (m *Manager) GetMigrationStatus(ctx context.Context) (*Status, error) {
	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, err
	}

	current := ""
	maxVersion := -1
	for _, a := range applied {
		if n := versionNumber(a.Version); n > maxVersion {
			maxVersion = n
			current = a.Version
		}
	}

	return &Status{
		CurrentVersion:    current,
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}, nil
}

func (m *Manager) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}
	return applied, nil
}

// validateSequence ensures available versions are contiguous and every applied
// version still has an unchanged file.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	if len(available) > 0 {
		first := versionNumber(available[0].Version)
		for i, migration := range available {
			if versionNumber(migration.Version) != first+i {
				return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, first+i)
			}
		}
	}

	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		byVersion[versionNumber(migration.Version)] = migration
	}
	for _, a := range applied {
		migration, ok := byVersion[versionNumber(a.Version)]
		if !ok {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, a.Version)
		}
		if a.Checksum != "" && a.Checksum != migration.Checksum {
			return NewMigrationError(a.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}

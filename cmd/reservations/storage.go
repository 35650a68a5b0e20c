package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/room-reservations/internal/config"
	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/migration"
	"github.com/example/room-reservations/internal/persistence/postgres"
	"github.com/example/room-reservations/internal/persistence/sqlite"
)

type backend interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context, logger *slog.Logger) (int, error)
	MigrationStatus(ctx context.Context, logger *slog.Logger) (*migration.Status, error)
	Close() error
}

// storage is the driver independent view of the configured database.
type storage struct {
	backend

	Users        persistence.UserRepository
	Rooms        persistence.RoomRepository
	Reservations persistence.ReservationRepository
}

func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		s, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLitePath))
		if err != nil {
			return nil, err
		}
		return &storage{backend: s, Users: s.Users, Rooms: s.Rooms, Reservations: s.Reservations}, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, postgres.Config{URL: cfg.PostgresURL})
		if err != nil {
			return nil, err
		}
		return &storage{backend: s, Users: s.Users, Rooms: s.Rooms, Reservations: s.Reservations}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

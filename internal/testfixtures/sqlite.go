package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-reservations/internal/persistence/sqlite"
)

// SQLiteHarness provides a migrated SQLite storage in a temporary directory
// for integration-style tests.
type SQLiteHarness struct {
	Storage *sqlite.Storage
	Path    string

	tb testing.TB
}

// NewSQLiteHarness opens and migrates a temporary database. The storage is
// closed through tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")

	storage, err := sqlite.Open(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if _, err := storage.Migrate(context.Background(), nil); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	return &SQLiteHarness{Storage: storage, Path: path, tb: tb}
}

// SeedUser inserts the fixture and returns it.
func (h *SQLiteHarness) SeedUser(opts ...UserOption) UserFixture {
	h.tb.Helper()
	fixture := NewUserFixture(opts...)
	if err := h.Storage.Users.CreateUser(context.Background(), fixture.Persistence()); err != nil {
		h.tb.Fatalf("failed to seed user %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedRoom inserts the fixture and returns it.
func (h *SQLiteHarness) SeedRoom(opts ...RoomOption) RoomFixture {
	h.tb.Helper()
	fixture := NewRoomFixture(opts...)
	if err := h.Storage.Rooms.CreateRoom(context.Background(), fixture.Persistence()); err != nil {
		h.tb.Fatalf("failed to seed room %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedReservation inserts the fixture without a booking guard; the storage
// overlap backstop still applies.
func (h *SQLiteHarness) SeedReservation(roomID, employeeID string, opts ...ReservationOption) ReservationFixture {
	h.tb.Helper()
	fixture := NewReservationFixture(roomID, employeeID, opts...)
	if err := h.Storage.Reservations.CreateReservation(context.Background(), fixture.Persistence(), nil); err != nil {
		h.tb.Fatalf("failed to seed reservation %s: %v", fixture.ID, err)
	}
	return fixture
}

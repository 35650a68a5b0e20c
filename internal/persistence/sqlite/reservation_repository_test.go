package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/scheduler"
)

func newReservation(id, roomID, employeeID, date, start, end string) persistence.Reservation {
	duration, _ := scheduler.NormalizeAndCorrect(start, end)
	return persistence.Reservation{
		ID:              id,
		RoomID:          roomID,
		EmployeeID:      employeeID,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: duration.DurationMinutes(),
		Status:          persistence.ReservationStatusConfirmed,
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
}

// availabilityGuard mirrors the application guard: reject on any overlap.
func availabilityGuard(candidate persistence.Reservation) persistence.BookingGuard {
	return func(roomEntries, employeeEntries []scheduler.Interval) error {
		interval := scheduler.Interval{ID: candidate.ID, Start: candidate.StartTime, End: candidate.EndTime}
		result := scheduler.CheckAvailability(roomEntries, employeeEntries, interval, candidate.ID)
		if result.Available() {
			return nil
		}
		return &persistence.OverlapError{Room: !result.RoomAvailable, Employee: !result.EmployeeAvailable}
	}
}

func TestReservationRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and reads back joined attributes", func(t *testing.T) {
		storage := newTestStorage(t)
		seedUser(t, storage, "user-1", "alice@example.com")
		seedRoom(t, storage, "room-1", "A-101")
		purpose := "Weekly sync"

		res := newReservation("res-1", "room-1", "user-1", "2025-11-12", "09:00", "10:30")
		res.Purpose = &purpose
		require.NoError(t, storage.Reservations.CreateReservation(ctx, res, availabilityGuard(res)))

		fetched, err := storage.Reservations.GetReservation(ctx, "res-1")
		require.NoError(t, err)
		require.Equal(t, 90, fetched.DurationMinutes)
		require.Equal(t, "A-101", fetched.RoomNumber)
		require.Equal(t, "Employee user-1", fetched.EmployeeName)
		require.Equal(t, purpose, *fetched.Purpose)
		require.Nil(t, fetched.Notes)
	})

	t.Run("guard sees the intervals of the room and the employee", func(t *testing.T) {
		storage := newTestStorage(t)
		seedUser(t, storage, "user-1", "alice@example.com")
		seedUser(t, storage, "user-2", "bob@example.com")
		seedRoom(t, storage, "room-1", "A-101")
		seedRoom(t, storage, "room-2", "A-102")

		first := newReservation("res-1", "room-1", "user-1", "2025-11-12", "09:00", "10:00")
		require.NoError(t, storage.Reservations.CreateReservation(ctx, first, availabilityGuard(first)))

		roomClash := newReservation("res-2", "room-1", "user-2", "2025-11-12", "09:30", "10:30")
		err := storage.Reservations.CreateReservation(ctx, roomClash, availabilityGuard(roomClash))
		var overlap *persistence.OverlapError
		require.ErrorAs(t, err, &overlap)
		require.True(t, overlap.Room)
		require.False(t, overlap.Employee)

		employeeClash := newReservation("res-3", "room-2", "user-1", "2025-11-12", "09:45", "11:00")
		err = storage.Reservations.CreateReservation(ctx, employeeClash, availabilityGuard(employeeClash))
		require.ErrorAs(t, err, &overlap)
		require.False(t, overlap.Room)
		require.True(t, overlap.Employee)

		backToBack := newReservation("res-4", "room-1", "user-2", "2025-11-12", "10:00", "11:00")
		require.NoError(t, storage.Reservations.CreateReservation(ctx, backToBack, availabilityGuard(backToBack)))

		otherDay := newReservation("res-5", "room-1", "user-1", "2025-11-13", "09:00", "10:00")
		require.NoError(t, storage.Reservations.CreateReservation(ctx, otherDay, availabilityGuard(otherDay)))
	})

	t.Run("triggers reject overlaps even without a guard", func(t *testing.T) {
		storage := newTestStorage(t)
		seedUser(t, storage, "user-1", "alice@example.com")
		seedUser(t, storage, "user-2", "bob@example.com")
		seedRoom(t, storage, "room-1", "A-101")
		seedRoom(t, storage, "room-2", "A-102")

		require.NoError(t, storage.Reservations.CreateReservation(ctx,
			newReservation("res-1", "room-1", "user-1", "2025-11-12", "09:00", "10:00"), nil))

		err := storage.Reservations.CreateReservation(ctx,
			newReservation("res-2", "room-1", "user-2", "2025-11-12", "09:00", "10:00"), nil)
		var overlap *persistence.OverlapError
		require.ErrorAs(t, err, &overlap)
		require.True(t, overlap.Room)

		err = storage.Reservations.CreateReservation(ctx,
			newReservation("res-3", "room-2", "user-1", "2025-11-12", "08:30", "09:30"), nil)
		require.ErrorAs(t, err, &overlap)
		require.True(t, overlap.Employee)
		require.ErrorIs(t, err, persistence.ErrOverlap)
	})

	t.Run("cancelled reservations free their slot", func(t *testing.T) {
		storage := newTestStorage(t)
		seedUser(t, storage, "user-1", "alice@example.com")
		seedRoom(t, storage, "room-1", "A-101")

		first := newReservation("res-1", "room-1", "user-1", "2025-11-12", "09:00", "10:00")
		require.NoError(t, storage.Reservations.CreateReservation(ctx, first, availabilityGuard(first)))

		first.Status = persistence.ReservationStatusCancelled
		require.NoError(t, storage.Reservations.UpdateReservation(ctx, first, nil))

		again := newReservation("res-2", "room-1", "user-1", "2025-11-12", "09:00", "10:00")
		require.NoError(t, storage.Reservations.CreateReservation(ctx, again, availabilityGuard(again)))
	})

	t.Run("rejects unknown rooms", func(t *testing.T) {
		storage := newTestStorage(t)
		seedUser(t, storage, "user-1", "alice@example.com")

		err := storage.Reservations.CreateReservation(ctx,
			newReservation("res-1", "missing", "user-1", "2025-11-12", "09:00", "10:00"), nil)
		require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
	})
}

func TestReservationRepository_Update(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "alice@example.com")
	seedRoom(t, storage, "room-1", "A-101")

	first := newReservation("res-1", "room-1", "user-1", "2025-11-12", "09:00", "10:00")
	second := newReservation("res-2", "room-1", "user-1", "2025-11-12", "11:00", "12:00")
	require.NoError(t, storage.Reservations.CreateReservation(ctx, first, availabilityGuard(first)))
	require.NoError(t, storage.Reservations.CreateReservation(ctx, second, availabilityGuard(second)))

	t.Run("moving within its own slot is allowed", func(t *testing.T) {
		moved := first
		moved.EndTime = "10:30"
		moved.DurationMinutes = 90
		require.NoError(t, storage.Reservations.UpdateReservation(ctx, moved, availabilityGuard(moved)))

		fetched, err := storage.Reservations.GetReservation(ctx, "res-1")
		require.NoError(t, err)
		require.Equal(t, "10:30", fetched.EndTime)
	})

	t.Run("moving onto another booking is rejected", func(t *testing.T) {
		moved := first
		moved.StartTime = "11:30"
		moved.EndTime = "12:30"
		err := storage.Reservations.UpdateReservation(ctx, moved, availabilityGuard(moved))
		require.ErrorIs(t, err, persistence.ErrOverlap)

		err = storage.Reservations.UpdateReservation(ctx, moved, nil)
		require.ErrorIs(t, err, persistence.ErrOverlap)
	})

	t.Run("missing reservations are reported", func(t *testing.T) {
		ghost := newReservation("ghost", "room-1", "user-1", "2025-11-20", "09:00", "10:00")
		err := storage.Reservations.UpdateReservation(ctx, ghost, nil)
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})
}

func TestReservationRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "alice@example.com")
	seedUser(t, storage, "user-2", "bob@example.com")
	seedRoom(t, storage, "room-1", "A-101")
	seedRoom(t, storage, "room-2", "A-102")

	for _, res := range []persistence.Reservation{
		newReservation("res-3", "room-1", "user-1", "2025-11-14", "08:00", "09:00"),
		newReservation("res-1", "room-1", "user-1", "2025-11-12", "14:00", "15:00"),
		newReservation("res-2", "room-2", "user-2", "2025-11-12", "09:00", "10:00"),
		newReservation("res-4", "room-2", "user-1", "2025-12-01", "09:00", "10:00"),
	} {
		require.NoError(t, storage.Reservations.CreateReservation(ctx, res, nil))
	}

	all, err := storage.Reservations.ListReservations(ctx, persistence.ReservationFilter{})
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, res := range all {
		ids[i] = res.ID
	}
	require.Equal(t, []string{"res-2", "res-1", "res-3", "res-4"}, ids)

	mine, err := storage.Reservations.ListReservations(ctx, persistence.ReservationFilter{
		EmployeeID: "user-1",
		DateFrom:   "2025-11-12",
		DateTo:     "2025-11-30",
	})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	limited, err := storage.Reservations.ListReservations(ctx, persistence.ReservationFilter{RoomID: "room-2", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "res-2", limited[0].ID)

	count, err := storage.Reservations.CountReservations(ctx, persistence.ReservationFilter{Status: persistence.ReservationStatusConfirmed, DateFrom: "2025-11-13"})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, storage.Reservations.DeleteReservation(ctx, "res-4"))
	require.ErrorIs(t, storage.Reservations.DeleteReservation(ctx, "res-4"), persistence.ErrNotFound)

	require.NoError(t, storage.Rooms.DeleteRoom(ctx, "room-1"))
	remaining, err := storage.Reservations.ListReservations(ctx, persistence.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1, "room deletion cascades to its reservations")
}

func TestReservationRepository_ConcurrentBookings(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedRoom(t, storage, "room-1", "A-101")

	const workers = 10
	for i := 0; i < workers; i++ {
		seedUser(t, storage, fmt.Sprintf("user-%d", i), fmt.Sprintf("user%d@example.com", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		overlaps  int
		others    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := newReservation(fmt.Sprintf("res-%d", i), "room-1", fmt.Sprintf("user-%d", i), "2025-11-12", "09:00", "10:00")
			err := storage.Reservations.CreateReservation(ctx, res, availabilityGuard(res))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errorsIsOverlap(err):
				overlaps++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, others)
	require.Equal(t, 1, successes)
	require.Equal(t, workers-1, overlaps)

	count, err := storage.Reservations.CountReservations(ctx, persistence.ReservationFilter{RoomID: "room-1"})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func errorsIsOverlap(err error) bool {
	var overlap *persistence.OverlapError
	return errors.As(err, &overlap) && overlap.Room
}

package persistence

import (
	"context"

	"github.com/example/room-reservations/internal/scheduler"
)

// UserFilter narrows user listings.
type UserFilter struct {
	// Search matches name, first name or email, case-insensitively.
	Search string
	// EmployeesOnly restricts results to users that carry an employee number.
	EmployeesOnly bool
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomFilter narrows room listings.
type RoomFilter struct {
	Type        string
	MinCapacity int
	// Search matches room number or description, case-insensitively.
	Search string
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
	CountRooms(ctx context.Context) (int, error)
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation listings. Empty fields do not filter.
// DateFrom and DateTo are inclusive YYYY-MM-DD bounds.
type ReservationFilter struct {
	EmployeeID string
	RoomID     string
	DateFrom   string
	DateTo     string
	Status     string
	Limit      int
}

// BookingGuard inspects the non-cancelled bookings of the candidate's room and
// employee on the candidate's date and returns an error to abort the write.
// Repositories call it inside the write transaction, so the intervals it sees
// cannot change before the insert or update commits.
type BookingGuard func(roomEntries, employeeEntries []scheduler.Interval) error

// ReservationRepository stores reservations.
type ReservationRepository interface {
	// CreateReservation runs guard (when non-nil) and inserts the reservation atomically.
	CreateReservation(ctx context.Context, reservation Reservation, guard BookingGuard) error
	// UpdateReservation runs guard (when non-nil) and updates the reservation atomically.
	UpdateReservation(ctx context.Context, reservation Reservation, guard BookingGuard) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	CountReservations(ctx context.Context, filter ReservationFilter) (int, error)
	DeleteReservation(ctx context.Context, id string) error
}

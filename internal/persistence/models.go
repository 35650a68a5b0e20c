package persistence

import "time"

// Reservation status values stored in the reservations table.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusCompleted = "completed"
)

// User represents an employee account.
type User struct {
	ID             string
	Name           string
	FirstName      *string
	Department     *string
	EmployeeNumber *string
	Email          string
	Role           string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Room represents a bookable room catalog entry.
type Room struct {
	ID          string
	RoomNumber  string
	Capacity    int
	Type        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reservation represents a booking of a room by an employee on one date.
// Date is YYYY-MM-DD and StartTime/EndTime are canonical HH:MM values.
type Reservation struct {
	ID              string
	RoomID          string
	EmployeeID      string
	Date            string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Status          string
	Purpose         *string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Populated on reads from the joined room and user rows.
	RoomNumber   string
	EmployeeName string
}

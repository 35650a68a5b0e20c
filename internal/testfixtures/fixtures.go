package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

// referenceTime is a Monday morning; fixtures book slots on the days after it.
var referenceTime = time.Date(2025, time.November, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture is a deterministic employee account.
type UserFixture struct {
	ID             string
	Name           string
	FirstName      *string
	Department     *string
	EmployeeNumber *string
	Email          string
	Role           string
	PasswordHash   string
	CreatedAt      time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user fixture with a unique id, email and employee number.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	number := fmt.Sprintf("E%05d", idx)
	fixture := UserFixture{
		ID:             id,
		Name:           "Employee",
		EmployeeNumber: &number,
		Email:          fmt.Sprintf("%s@example.com", id),
		Role:           string(application.RoleUser),
		PasswordHash:   fmt.Sprintf("hash-%03d", idx),
		CreatedAt:      referenceTime.Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserName sets the first and last name.
func WithUserName(firstName, name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
		if firstName == "" {
			f.FirstName = nil
			return
		}
		f.FirstName = &firstName
	}
}

// WithAdminRole marks the fixture as an administrator.
func WithAdminRole() UserOption {
	return func(f *UserFixture) { f.Role = string(application.RoleAdmin) }
}

// WithoutEmployeeNumber clears the employee number.
func WithoutEmployeeNumber() UserOption {
	return func(f *UserFixture) { f.EmployeeNumber = nil }
}

// WithPasswordHash overrides the stored hash.
func WithPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// Persistence converts the fixture into a storage row.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:             f.ID,
		Name:           f.Name,
		FirstName:      f.FirstName,
		Department:     f.Department,
		EmployeeNumber: f.EmployeeNumber,
		Email:          f.Email,
		Role:           f.Role,
		PasswordHash:   f.PasswordHash,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.CreatedAt,
	}
}

// Application converts the fixture into the service model.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:             f.ID,
		Name:           f.Name,
		FirstName:      f.FirstName,
		Department:     f.Department,
		EmployeeNumber: f.EmployeeNumber,
		Email:          f.Email,
		Role:           application.Role(f.Role),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.CreatedAt,
	}
}

// Principal returns the principal acting as this user.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.Role == string(application.RoleAdmin)}
}

// RoomFixture is a deterministic room catalog entry.
type RoomFixture struct {
	ID          string
	RoomNumber  string
	Capacity    int
	Type        string
	Description *string
	CreatedAt   time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a conference room fixture with a unique number.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:         fmt.Sprintf("room-%03d", idx),
		RoomNumber: fmt.Sprintf("R%03d", idx),
		Capacity:   8,
		Type:       string(application.RoomTypeConference),
		CreatedAt:  referenceTime.Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomNumber overrides the generated room number.
func WithRoomNumber(number string) RoomOption {
	return func(f *RoomFixture) { f.RoomNumber = number }
}

// WithRoomType overrides the room type.
func WithRoomType(roomType application.RoomType) RoomOption {
	return func(f *RoomFixture) { f.Type = string(roomType) }
}

// WithRoomCapacity overrides the capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

// Persistence converts the fixture into a storage row.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:          f.ID,
		RoomNumber:  f.RoomNumber,
		Capacity:    f.Capacity,
		Type:        f.Type,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// Application converts the fixture into the service model.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:          f.ID,
		RoomNumber:  f.RoomNumber,
		Capacity:    f.Capacity,
		Type:        application.RoomType(f.Type),
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// ReservationFixture is a deterministic booking. StartTime and EndTime are
// canonical HH:MM values.
type ReservationFixture struct {
	ID         string
	RoomID     string
	EmployeeID string
	Date       string
	StartTime  string
	EndTime    string
	Status     string
	Purpose    *string
	CreatedAt  time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture books roomID for employeeID the day after ReferenceTime, 09:00 to 10:00.
func NewReservationFixture(roomID, employeeID string, opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	fixture := ReservationFixture{
		ID:         fmt.Sprintf("reservation-%03d", idx),
		RoomID:     roomID,
		EmployeeID: employeeID,
		Date:       referenceTime.AddDate(0, 0, 1).Format(time.DateOnly),
		StartTime:  "09:00",
		EndTime:    "10:00",
		Status:     string(application.ReservationStatusConfirmed),
		CreatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) { f.ID = id }
}

// WithSlot sets the date and time range.
func WithSlot(date, start, end string) ReservationOption {
	return func(f *ReservationFixture) {
		f.Date = date
		f.StartTime = start
		f.EndTime = end
	}
}

// WithStatus overrides the reservation status.
func WithStatus(status application.ReservationStatus) ReservationOption {
	return func(f *ReservationFixture) { f.Status = string(status) }
}

// DurationMinutes returns the slot length.
func (f ReservationFixture) DurationMinutes() int {
	start, errStart := time.Parse("15:04", f.StartTime)
	end, errEnd := time.Parse("15:04", f.EndTime)
	if errStart != nil || errEnd != nil || !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// Persistence converts the fixture into a storage row.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:              f.ID,
		RoomID:          f.RoomID,
		EmployeeID:      f.EmployeeID,
		Date:            f.Date,
		StartTime:       f.StartTime,
		EndTime:         f.EndTime,
		DurationMinutes: f.DurationMinutes(),
		Status:          f.Status,
		Purpose:         f.Purpose,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// Input returns the fixture as booking input.
func (f ReservationFixture) Input() application.ReservationInput {
	return application.ReservationInput{
		RoomID:     f.RoomID,
		EmployeeID: f.EmployeeID,
		Date:       f.Date,
		StartTime:  f.StartTime,
		EndTime:    f.EndTime,
		Purpose:    f.Purpose,
		Status:     f.Status,
	}
}

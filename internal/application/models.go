package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Role enumerates the account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserInput captures caller provided user attributes.
type UserInput struct {
	Name           string
	FirstName      *string
	Department     *string
	EmployeeNumber *string
	Email          string
	Role           string
	// Password is required on create and optional on update.
	Password string
}

// User represents an employee account exposed by the application services.
type User struct {
	ID             string
	Name           string
	FirstName      *string
	Department     *string
	EmployeeNumber *string
	Email          string
	Role           Role
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first name and name the way reservation listings display employees.
func (u User) FullName() string {
	if u.FirstName == nil || *u.FirstName == "" {
		return u.Name
	}
	return *u.FirstName + " " + u.Name
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// ListUsersParams wraps the filters accepted by the user listing.
type ListUsersParams struct {
	Principal Principal
	Search    string
}

// RoomType enumerates the kinds of bookable rooms.
type RoomType string

const (
	RoomTypeConference RoomType = "conference"
	RoomTypeOffice     RoomType = "office"
	RoomTypeTraining   RoomType = "training"
)

// RoomInput captures caller provided room fields.
type RoomInput struct {
	RoomNumber  string
	Capacity    int
	Type        string
	Description *string
}

// Room represents a catalog entry for a bookable room.
type Room struct {
	ID          string
	RoomNumber  string
	Capacity    int
	Type        RoomType
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// ListRoomsParams wraps the filters accepted by the room catalog.
type ListRoomsParams struct {
	Principal   Principal
	Type        string
	MinCapacity int
	Search      string
}

// RoomFilter narrows repository room listings.
type RoomFilter struct {
	Type        string
	MinCapacity int
	Search      string
}

// UserFilter narrows repository user listings.
type UserFilter struct {
	Search        string
	EmployeesOnly bool
}

// ReservationStatus enumerates the lifecycle states of a reservation.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
)

func (s ReservationStatus) valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCancelled, ReservationStatusCompleted:
		return true
	}
	return false
}

// ReservationInput captures caller provided reservation fields.
type ReservationInput struct {
	RoomID     string
	EmployeeID string
	Date       string
	StartTime  string
	EndTime    string
	Purpose    *string
	Notes      *string
	// Status is only honored on update.
	Status string
}

// Reservation represents a booking of one room by one employee on one day.
type Reservation struct {
	ID              string
	RoomID          string
	EmployeeID      string
	Date            string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Status          ReservationStatus
	Purpose         *string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	RoomNumber   string
	EmployeeName string
}

// CanBeModified reports whether the reservation may still be edited on the given day.
func (r Reservation) CanBeModified(today string) bool {
	return r.Status != ReservationStatusCancelled &&
		r.Status != ReservationStatusCompleted &&
		r.Date >= today
}

// CanBeCancelled reports whether the reservation may still be cancelled on the given day.
func (r Reservation) CanBeCancelled(today string) bool {
	return r.CanBeModified(today)
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams wraps the data required to update a reservation.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Input         ReservationInput
}

// ListPeriod identifies the date preset requested for reservation listings.
type ListPeriod string

const (
	ListPeriodNone     ListPeriod = ""
	ListPeriodToday    ListPeriod = "today"
	ListPeriodWeek     ListPeriod = "week"
	ListPeriodMonth    ListPeriod = "month"
	ListPeriodUpcoming ListPeriod = "upcoming"
)

// ListReservationsParams wraps the filters accepted by the reservation listing.
type ListReservationsParams struct {
	Principal  Principal
	EmployeeID string
	RoomID     string
	Date       string
	Period     ListPeriod
	Status     string
}

// ReservationFilter narrows repository reservation listings. Dates are inclusive YYYY-MM-DD bounds.
type ReservationFilter struct {
	EmployeeID string
	RoomID     string
	DateFrom   string
	DateTo     string
	Status     string
	Limit      int
}

// CalendarParams selects the month rendered by the calendar view.
type CalendarParams struct {
	Principal Principal
	Month     int
	Year      int
}

// CalendarMonth lists every reservation of one month.
type CalendarMonth struct {
	Month        int
	Year         int
	Reservations []Reservation
}

// DashboardStats summarises activity for the dashboard.
type DashboardStats struct {
	MyReservationsCount int
	RoomsCount          int
	TodayReservations   int
}

// Dashboard is the landing view of an authenticated user.
type Dashboard struct {
	MyReservations []Reservation
	Stats          DashboardStats
}

// AvailabilityParams wraps a room availability probe.
type AvailabilityParams struct {
	Principal Principal
	RoomID    string
	Date      string
	StartTime string
	EndTime   string
}

// AvailabilityResult reports whether a room is free for the normalized slot.
type AvailabilityResult struct {
	Available       bool
	StartTime       string
	EndTime         string
	DurationMinutes int
}

// IssuedToken is a signed bearer token for a user.
type IssuedToken struct {
	Token     string
	User      User
	ExpiresAt time.Time
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/scheduler"
)

const dashboardUpcomingLimit = 5

const (
	msgRoomUnavailable     = "room is not available for this period"
	msgEmployeeUnavailable = "employee already has an overlapping reservation"
)

// BookingGuard inspects the live bookings of a room and an employee on the
// candidate date inside the write transaction and aborts the write with an error.
type BookingGuard func(roomEntries, employeeEntries []scheduler.Interval) error

// ReservationRepository captures the persistence operations needed by the reservation service.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation, guard BookingGuard) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation, guard BookingGuard) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	CountReservations(ctx context.Context, filter ReservationFilter) (int, error)
	DeleteReservation(ctx context.Context, id string) error
}

// RoomLookup resolves rooms referenced by reservations.
type RoomLookup interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	CountRooms(ctx context.Context) (int, error)
}

// UserLookup resolves employees referenced by reservations.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// ReservationService coordinates reservation workflows: booking with
// time-slot normalization and double-booking protection, lifecycle changes,
// listings, the calendar and the dashboard.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomLookup
	users        UserLookup
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
}

// NewReservationService constructs a ReservationService using the provided dependencies.
func NewReservationService(reservations ReservationRepository, rooms RoomLookup, users UserLookup, idGenerator func() string, now func() time.Time, location *time.Location) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, users, idGenerator, now, location, nil)
}

// NewReservationServiceWithLogger constructs a ReservationService with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, rooms RoomLookup, users UserLookup, idGenerator func() string, now func() time.Time, location *time.Location, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		users:        users,
		idGenerator:  idGenerator,
		now:          now,
		location:     location,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

func (s *ReservationService) today() string {
	return calendarDate(s.now, s.location)
}

// CreateReservation validates the request, normalizes the time slot and books
// it when neither the room nor the employee already has an overlapping booking.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	input := normalizeReservationInput(params.Input)
	if input.EmployeeID == "" {
		input.EmployeeID = params.Principal.UserID
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
		"employee_id", input.EmployeeID,
		"date", input.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"reservation_id", reservation.ID,
			"start_time", reservation.StartTime,
			"end_time", reservation.EndTime,
		).InfoContext(ctx, "reservation created")
	}()

	if !params.Principal.IsAdmin && input.EmployeeID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	var slot scheduler.TimeRange
	slot, err = s.validateBooking(ctx, input, false)
	if err != nil {
		return
	}

	now := s.now()
	candidate := Reservation{
		ID:              s.idGenerator(),
		RoomID:          input.RoomID,
		EmployeeID:      input.EmployeeID,
		Date:            input.Date,
		StartTime:       slot.Start,
		EndTime:         slot.End,
		DurationMinutes: slot.DurationMinutes(),
		Status:          ReservationStatusConfirmed,
		Purpose:         input.Purpose,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	reservation, err = s.reservations.CreateReservation(ctx, candidate, availabilityGuard(slot, ""))
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// UpdateReservation replaces the editable fields of a reservation owned by
// the principal (or any reservation for administrators). The reservation's
// own slot is excluded from the overlap check.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"status", reservation.Status,
			"start_time", reservation.StartTime,
			"end_time", reservation.EndTime,
		).InfoContext(ctx, "reservation updated")
	}()

	var existing Reservation
	existing, err = s.loadOwned(ctx, params.Principal, params.ReservationID)
	if err != nil {
		return
	}
	if !existing.CanBeModified(s.today()) {
		err = ErrReservationLocked
		return
	}

	input := normalizeReservationInput(params.Input)
	if input.EmployeeID == "" {
		input.EmployeeID = existing.EmployeeID
	}
	if !params.Principal.IsAdmin && input.EmployeeID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	var slot scheduler.TimeRange
	slot, err = s.validateBooking(ctx, input, true)
	if err != nil {
		return
	}

	updated := existing
	updated.RoomID = input.RoomID
	updated.EmployeeID = input.EmployeeID
	updated.Date = input.Date
	updated.StartTime = slot.Start
	updated.EndTime = slot.End
	updated.DurationMinutes = slot.DurationMinutes()
	updated.Status = ReservationStatus(input.Status)
	updated.Purpose = input.Purpose
	updated.Notes = input.Notes
	updated.UpdatedAt = s.now()

	var guard BookingGuard
	if updated.Status != ReservationStatusCancelled {
		guard = availabilityGuard(slot, existing.ID)
	}

	reservation, err = s.reservations.UpdateReservation(ctx, updated, guard)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// CancelReservation marks a reservation cancelled, releasing its slot.
func (s *ReservationService) CancelReservation(ctx context.Context, principal Principal, reservationID string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	var existing Reservation
	existing, err = s.loadOwned(ctx, principal, reservationID)
	if err != nil {
		return
	}
	if !existing.CanBeCancelled(s.today()) {
		err = ErrReservationLocked
		return
	}

	existing.Status = ReservationStatusCancelled
	existing.UpdatedAt = s.now()

	reservation, err = s.reservations.UpdateReservation(ctx, existing, nil)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// DeleteReservation permanently removes a reservation. Only administrators may
// delete, and only reservations that could still be cancelled.
func (s *ReservationService) DeleteReservation(ctx context.Context, principal Principal, reservationID string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteReservation",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)

	existing, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if !existing.CanBeCancelled(s.today()) {
		logger.WarnContext(ctx, "reservation can no longer be deleted", "status", existing.Status, "date", existing.Date)
		return ErrReservationLocked
	}

	if err := s.reservations.DeleteReservation(ctx, reservationID); err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "reservation deleted")
	return nil
}

// GetReservation returns a reservation visible to the principal.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}
	return s.loadOwned(ctx, principal, reservationID)
}

// ListReservations returns reservations ordered by date then start time.
// Non-administrators only ever see their own reservations.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListReservations",
		"principal_id", params.Principal.UserID,
		"period", string(params.Period),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).DebugContext(ctx, "reservations listed")
	}()

	var filter ReservationFilter
	filter, err = s.listFilter(params)
	if err != nil {
		return
	}

	reservations, err = s.reservations.ListReservations(ctx, filter)
	return
}

func (s *ReservationService) listFilter(params ListReservationsParams) (ReservationFilter, error) {
	vErr := &ValidationError{}
	filter := ReservationFilter{
		RoomID: strings.TrimSpace(params.RoomID),
		Status: strings.TrimSpace(params.Status),
	}

	if params.Principal.IsAdmin {
		filter.EmployeeID = strings.TrimSpace(params.EmployeeID)
	} else {
		filter.EmployeeID = params.Principal.UserID
	}

	if filter.Status != "" && !ReservationStatus(filter.Status).valid() {
		vErr.add("status", "status is not a known reservation status")
	}

	current := localNow(s.now, s.location)
	today := current.Format(dateLayout)
	date := strings.TrimSpace(params.Date)

	switch {
	case date != "":
		if !validDate(date) {
			vErr.add("date", "date must be formatted as YYYY-MM-DD")
			break
		}
		filter.DateFrom, filter.DateTo = date, date
	case params.Period != ListPeriodNone:
		switch params.Period {
		case ListPeriodToday:
			filter.DateFrom, filter.DateTo = today, today
		case ListPeriodWeek:
			filter.DateFrom, filter.DateTo = weekBounds(current)
		case ListPeriodMonth:
			filter.DateFrom, filter.DateTo = monthBounds(current.Year(), current.Month())
		case ListPeriodUpcoming:
			filter.DateFrom = today
		}
	default:
		filter.DateFrom = today
	}

	if vErr.HasErrors() {
		return ReservationFilter{}, vErr
	}
	return filter, nil
}

// Calendar returns every reservation in the requested month. Zero month or
// year values default to the current ones.
func (s *ReservationService) Calendar(ctx context.Context, params CalendarParams) (month CalendarMonth, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	current := localNow(s.now, s.location)
	month = CalendarMonth{Month: params.Month, Year: params.Year}
	if month.Month == 0 {
		month.Month = int(current.Month())
	}
	if month.Year == 0 {
		month.Year = current.Year()
	}

	vErr := &ValidationError{}
	if month.Month < 1 || month.Month > 12 {
		vErr.add("month", "month must be between 1 and 12")
	}
	if month.Year < 1 || month.Year > 9999 {
		vErr.add("year", "year is out of range")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.reservations == nil {
		return
	}

	from, to := monthBounds(month.Year, time.Month(month.Month))
	month.Reservations, err = s.reservations.ListReservations(ctx, ReservationFilter{DateFrom: from, DateTo: to})
	if err != nil {
		s.loggerWith(ctx, "Calendar", "principal_id", params.Principal.UserID).
			ErrorContext(ctx, "failed to load calendar", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// Dashboard returns the principal's next reservations and summary counters.
func (s *ReservationService) Dashboard(ctx context.Context, principal Principal) (dashboard Dashboard, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Dashboard", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build dashboard", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	today := s.today()
	mine := ReservationFilter{EmployeeID: principal.UserID, DateFrom: today}

	limited := mine
	limited.Limit = dashboardUpcomingLimit
	if dashboard.MyReservations, err = s.reservations.ListReservations(ctx, limited); err != nil {
		return
	}
	if dashboard.Stats.MyReservationsCount, err = s.reservations.CountReservations(ctx, mine); err != nil {
		return
	}
	if dashboard.Stats.TodayReservations, err = s.reservations.CountReservations(ctx, ReservationFilter{DateFrom: today, DateTo: today}); err != nil {
		return
	}
	if s.rooms != nil {
		if dashboard.Stats.RoomsCount, err = s.rooms.CountRooms(ctx); err != nil {
			return
		}
	}
	return
}

// CheckRoomAvailability reports whether a room is free for a normalized slot
// on a date. It is advisory: bookings re-check inside their transaction.
func (s *ReservationService) CheckRoomAvailability(ctx context.Context, params AvailabilityParams) (result AvailabilityResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CheckRoomAvailability",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", params.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("available", result.Available).DebugContext(ctx, "availability checked")
	}()

	if err = s.ensureRoom(ctx, params.RoomID); err != nil {
		if errors.Is(err, errMissingReference) {
			err = ErrNotFound
		}
		return
	}

	vErr := &ValidationError{}
	date := strings.TrimSpace(params.Date)
	vErr.merge(validateBookingDate(date, s.today()))
	slot, slotErr := scheduler.NormalizeAndCorrect(params.StartTime, params.EndTime)
	vErr.merge(timeRangeValidation(slotErr))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var booked []Reservation
	booked, err = s.reservations.ListReservations(ctx, ReservationFilter{RoomID: params.RoomID, DateFrom: date, DateTo: date})
	if err != nil {
		return
	}

	existing := make([]scheduler.Interval, 0, len(booked))
	for _, r := range booked {
		if r.Status == ReservationStatusCancelled {
			continue
		}
		existing = append(existing, scheduler.Interval{ID: r.ID, Start: r.StartTime, End: r.EndTime})
	}

	result = AvailabilityResult{
		Available:       scheduler.IsAvailable(existing, slot.Interval(""), ""),
		StartTime:       slot.Start,
		EndTime:         slot.End,
		DurationMinutes: slot.DurationMinutes(),
	}
	return
}

// RoomReservations lists a room's reservations dated today or later.
func (s *ReservationService) RoomReservations(ctx context.Context, principal Principal, roomID string) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		return nil, nil
	}

	if err = s.ensureRoom(ctx, roomID); err != nil {
		if errors.Is(err, errMissingReference) {
			err = ErrNotFound
		}
		return
	}

	reservations, err = s.reservations.ListReservations(ctx, ReservationFilter{RoomID: roomID, DateFrom: s.today()})
	if err != nil {
		s.loggerWith(ctx, "RoomReservations", "principal_id", principal.UserID, "room_id", roomID).
			ErrorContext(ctx, "failed to list room reservations", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// validateBooking checks every field of a create or update request and
// returns the normalized time slot. Missing rooms and employees are reported
// as field errors alongside format problems.
func (s *ReservationService) validateBooking(ctx context.Context, input ReservationInput, requireStatus bool) (scheduler.TimeRange, error) {
	vErr := &ValidationError{}

	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	if input.EmployeeID == "" {
		vErr.add("employee_id", "employee is required")
	}
	vErr.merge(validateBookingDate(input.Date, s.today()))

	slot, slotErr := scheduler.NormalizeAndCorrect(input.StartTime, input.EndTime)
	vErr.merge(timeRangeValidation(slotErr))

	if input.Purpose != nil && utf8.RuneCountInString(*input.Purpose) > 255 {
		vErr.add("purpose", "purpose must be at most 255 characters")
	}
	if input.Notes != nil && utf8.RuneCountInString(*input.Notes) > 1000 {
		vErr.add("notes", "notes must be at most 1000 characters")
	}
	if requireStatus {
		switch {
		case input.Status == "":
			vErr.add("status", "status is required")
		case !ReservationStatus(input.Status).valid():
			vErr.add("status", "status is not a known reservation status")
		}
	}

	if input.RoomID != "" {
		if err := s.ensureRoom(ctx, input.RoomID); err != nil {
			if !errors.Is(err, errMissingReference) {
				return scheduler.TimeRange{}, err
			}
			vErr.add("room_id", "selected room does not exist")
		}
	}
	if input.EmployeeID != "" {
		if err := s.ensureEmployee(ctx, input.EmployeeID); err != nil {
			if !errors.Is(err, errMissingReference) {
				return scheduler.TimeRange{}, err
			}
			vErr.add("employee_id", "selected employee does not exist")
		}
	}

	if vErr.HasErrors() {
		return scheduler.TimeRange{}, vErr
	}
	return slot, nil
}

var errMissingReference = errors.New("referenced record does not exist")

func (s *ReservationService) ensureRoom(ctx context.Context, id string) error {
	if s.rooms == nil {
		return nil
	}
	if _, err := s.rooms.GetRoom(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return errMissingReference
		}
		return err
	}
	return nil
}

func (s *ReservationService) ensureEmployee(ctx context.Context, id string) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.GetUser(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			return errMissingReference
		}
		return err
	}
	return nil
}

// loadOwned fetches a reservation and hides it from non-owners.
func (s *ReservationService) loadOwned(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}
	if !principal.IsAdmin && reservation.EmployeeID != principal.UserID {
		return Reservation{}, ErrUnauthorized
	}
	return reservation, nil
}

// availabilityGuard rejects the slot when the room or the employee already has
// an overlapping booking. excludeID is the reservation being edited, if any.
func availabilityGuard(slot scheduler.TimeRange, excludeID string) BookingGuard {
	return func(roomEntries, employeeEntries []scheduler.Interval) error {
		availability := scheduler.CheckAvailability(roomEntries, employeeEntries, slot.Interval(excludeID), excludeID)
		if availability.Available() {
			return nil
		}
		return conflictValidation(availability.Conflicts())
	}
}

func conflictValidation(conflicts []scheduler.Conflict) *ValidationError {
	vErr := &ValidationError{}
	for _, conflict := range conflicts {
		switch conflict.Type {
		case scheduler.ConflictTypeRoom:
			vErr.add("room_id", msgRoomUnavailable)
		case scheduler.ConflictTypeEmployee:
			vErr.add("employee_id", msgEmployeeUnavailable)
		}
	}
	return vErr
}

// timeRangeValidation turns a normalizer failure into field errors on
// start_time, end_time or time.
func timeRangeValidation(err error) *ValidationError {
	if err == nil {
		return nil
	}
	vErr := &ValidationError{}

	var parseErr *scheduler.ParseError
	if !errors.As(err, &parseErr) {
		vErr.add("time", "time range is invalid")
		return vErr
	}

	field := "start_time"
	if parseErr.Field == scheduler.FieldEnd {
		field = "end_time"
	}
	switch parseErr.Kind {
	case scheduler.ParseErrorBadFormat:
		vErr.add(field, "time must be formatted as HH:MM")
	case scheduler.ParseErrorUnparseable:
		vErr.add(field, "time is not a valid clock time")
	case scheduler.ParseErrorZeroOrNegativeDuration:
		vErr.add("time", "end time must be after start time")
	default:
		vErr.add("time", "time range is invalid")
	}
	return vErr
}

func validateBookingDate(date, today string) *ValidationError {
	vErr := &ValidationError{}
	switch {
	case date == "":
		vErr.add("date", "date is required")
	case !validDate(date):
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
	case date < today:
		vErr.add("date", "date must be today or later")
	}
	return vErr
}

func normalizeReservationInput(input ReservationInput) ReservationInput {
	return ReservationInput{
		RoomID:     strings.TrimSpace(input.RoomID),
		EmployeeID: strings.TrimSpace(input.EmployeeID),
		Date:       strings.TrimSpace(input.Date),
		StartTime:  strings.TrimSpace(input.StartTime),
		EndTime:    strings.TrimSpace(input.EndTime),
		Purpose:    normalizeOptionalString(input.Purpose),
		Notes:      normalizeOptionalString(input.Notes),
		Status:     strings.ToLower(strings.TrimSpace(input.Status)),
	}
}

// mapReservationRepoError converts storage failures into application errors.
// Overlaps caught by the database backstop surface like guard rejections.
func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr
	}

	var overlap *persistence.OverlapError
	if errors.As(err, &overlap) {
		conflicts := make([]scheduler.Conflict, 0, 2)
		if overlap.Room {
			conflicts = append(conflicts, scheduler.Conflict{Type: scheduler.ConflictTypeRoom})
		}
		if overlap.Employee {
			conflicts = append(conflicts, scheduler.Conflict{Type: scheduler.ConflictTypeEmployee})
		}
		if len(conflicts) == 0 {
			return newValidationError("room_id", msgRoomUnavailable)
		}
		return conflictValidation(conflicts)
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("room_id", "selected room or employee no longer exists")
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("time", "time range is invalid")
	}
	return err
}

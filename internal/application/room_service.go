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
)

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
	CountRooms(ctx context.Context) (int, error)
}

// ReservationCounter counts reservations matching a filter.
type ReservationCounter interface {
	CountReservations(ctx context.Context, filter ReservationFilter) (int, error)
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms        RoomRepository
	reservations ReservationCounter
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, reservations ReservationCounter, idGenerator func() string, now func() time.Time, location *time.Location) *RoomService {
	return NewRoomServiceWithLogger(rooms, reservations, idGenerator, now, location, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, reservations ReservationCounter, idGenerator func() string, now func() time.Time, location *time.Location, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	return &RoomService{
		rooms:        rooms,
		reservations: reservations,
		idGenerator:  idGenerator,
		now:          now,
		location:     location,
		logger:       defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	room = Room{
		ID:          s.idGenerator(),
		RoomNumber:  strings.TrimSpace(params.Input.RoomNumber),
		Capacity:    params.Input.Capacity,
		Type:        RoomType(params.Input.Type),
		Description: normalizeOptionalString(params.Input.Description),
		CreatedAt:   s.now(),
	}
	room.UpdatedAt = room.CreatedAt

	if s.rooms == nil {
		return
	}

	var persisted Room
	persisted, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = persisted
	return
}

// UpdateRoom validates input and updates an existing room for administrators.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.RoomNumber = strings.TrimSpace(params.Input.RoomNumber)
	updated.Capacity = params.Input.Capacity
	updated.Type = RoomType(params.Input.Type)
	updated.Description = normalizeOptionalString(params.Input.Description)
	updated.UpdatedAt = s.now()

	room, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	return
}

// GetRoom returns a single room to any authenticated user.
func (s *RoomService) GetRoom(ctx context.Context, principal Principal, roomID string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRoomRepoError(err)
		if !errors.Is(err, ErrNotFound) {
			s.loggerWith(ctx, "GetRoom", "principal_id", principal.UserID, "room_id", roomID).
				ErrorContext(ctx, "failed to load room", "error", err, "error_kind", ErrorKind(err))
		}
		return Room{}, err
	}
	return room, nil
}

// DeleteRoom removes a room when requested by an administrator. Rooms with
// reservations dated today or later are kept and ErrRoomInUse is returned.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if s.reservations != nil {
		upcoming, err := s.reservations.CountReservations(ctx, ReservationFilter{
			RoomID:   roomID,
			DateFrom: calendarDate(s.now, s.location),
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to count upcoming reservations", "error", err, "error_kind", ErrorKind(err))
			return err
		}
		if upcoming > 0 {
			logger.WarnContext(ctx, "room still has upcoming reservations", "upcoming_count", upcoming)
			return ErrRoomInUse
		}
	}

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// ListRooms returns the room catalog, ordered by room number, for any authenticated user.
func (s *RoomService) ListRooms(ctx context.Context, params ListRoomsParams) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	filter := RoomFilter{
		Type:   strings.TrimSpace(params.Type),
		Search: strings.TrimSpace(params.Search),
	}
	if filter.Type != "" && !validRoomType(filter.Type) {
		err = newValidationError("type", "type is not a known room type")
		return
	}
	if params.MinCapacity < 0 {
		err = newValidationError("min_capacity", "min_capacity must not be negative")
		return
	}
	filter.MinCapacity = params.MinCapacity

	rooms, err = s.rooms.ListRooms(ctx, filter)
	return
}

func validRoomType(value string) bool {
	switch RoomType(value) {
	case RoomTypeConference, RoomTypeOffice, RoomTypeTraining:
		return true
	}
	return false
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	roomNumber := strings.TrimSpace(input.RoomNumber)
	switch {
	case roomNumber == "":
		vErr.add("room_number", "room number is required")
	case utf8.RuneCountInString(roomNumber) > 255:
		vErr.add("room_number", "room number must be at most 255 characters")
	}
	if input.Capacity < 1 {
		vErr.add("capacity", "capacity must be at least 1")
	}
	if strings.TrimSpace(input.Type) == "" {
		vErr.add("type", "type is required")
	} else if !validRoomType(input.Type) {
		vErr.add("type", "type is not a known room type")
	}
	if input.Description != nil && utf8.RuneCountInString(*input.Description) > 1000 {
		vErr.add("description", "description must be at most 1000 characters")
	}

	return vErr
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return newValidationError("capacity", "capacity must be at least 1")
	}
	return err
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

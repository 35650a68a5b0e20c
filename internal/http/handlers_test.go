package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/application"
)

type reservationServiceStub struct {
	created     application.CreateReservationParams
	listed      application.ListReservationsParams
	calendar    application.CalendarParams
	createErr   error
	cancelErr   error
	reservation application.Reservation
}

func (s *reservationServiceStub) CreateReservation(_ context.Context, params application.CreateReservationParams) (application.Reservation, error) {
	s.created = params
	if s.createErr != nil {
		return application.Reservation{}, s.createErr
	}
	return s.reservation, nil
}

func (s *reservationServiceStub) UpdateReservation(_ context.Context, params application.UpdateReservationParams) (application.Reservation, error) {
	return s.reservation, nil
}

func (s *reservationServiceStub) CancelReservation(_ context.Context, _ application.Principal, _ string) (application.Reservation, error) {
	if s.cancelErr != nil {
		return application.Reservation{}, s.cancelErr
	}
	cancelled := s.reservation
	cancelled.Status = application.ReservationStatusCancelled
	return cancelled, nil
}

func (s *reservationServiceStub) DeleteReservation(_ context.Context, _ application.Principal, _ string) error {
	return nil
}

func (s *reservationServiceStub) GetReservation(_ context.Context, _ application.Principal, id string) (application.Reservation, error) {
	if id != s.reservation.ID {
		return application.Reservation{}, application.ErrNotFound
	}
	return s.reservation, nil
}

func (s *reservationServiceStub) ListReservations(_ context.Context, params application.ListReservationsParams) ([]application.Reservation, error) {
	s.listed = params
	return []application.Reservation{s.reservation}, nil
}

func (s *reservationServiceStub) Calendar(_ context.Context, params application.CalendarParams) (application.CalendarMonth, error) {
	s.calendar = params
	return application.CalendarMonth{Month: params.Month, Year: params.Year}, nil
}

func (s *reservationServiceStub) Dashboard(_ context.Context, _ application.Principal) (application.Dashboard, error) {
	return application.Dashboard{
		MyReservations: []application.Reservation{s.reservation},
		Stats:          application.DashboardStats{MyReservationsCount: 1, RoomsCount: 3, TodayReservations: 2},
	}, nil
}

func (s *reservationServiceStub) CheckRoomAvailability(_ context.Context, params application.AvailabilityParams) (application.AvailabilityResult, error) {
	return application.AvailabilityResult{Available: params.StartTime != "10:00", StartTime: "09:00", EndTime: "10:00", DurationMinutes: 60}, nil
}

func (s *reservationServiceStub) RoomReservations(_ context.Context, _ application.Principal, _ string) ([]application.Reservation, error) {
	return nil, nil
}

type roomServiceStub struct {
	listed    application.ListRoomsParams
	deleteErr error
}

func (s *roomServiceStub) CreateRoom(_ context.Context, params application.CreateRoomParams) (application.Room, error) {
	return application.Room{ID: "room-1", RoomNumber: params.Input.RoomNumber, Capacity: params.Input.Capacity, Type: application.RoomType(params.Input.Type)}, nil
}

func (s *roomServiceStub) UpdateRoom(_ context.Context, _ application.UpdateRoomParams) (application.Room, error) {
	return application.Room{}, application.ErrUnauthorized
}

func (s *roomServiceStub) GetRoom(_ context.Context, _ application.Principal, id string) (application.Room, error) {
	return application.Room{ID: id, RoomNumber: "A101", Capacity: 8, Type: application.RoomTypeTraining}, nil
}

func (s *roomServiceStub) DeleteRoom(_ context.Context, _ application.Principal, _ string) error {
	return s.deleteErr
}

func (s *roomServiceStub) ListRooms(_ context.Context, params application.ListRoomsParams) ([]application.Room, error) {
	s.listed = params
	return []application.Room{}, nil
}

type userServiceStub struct {
	createErr error
}

func (s *userServiceStub) CreateUser(_ context.Context, params application.CreateUserParams) (application.User, error) {
	if s.createErr != nil {
		return application.User{}, s.createErr
	}
	return application.User{ID: "user-9", Name: params.Input.Name, FirstName: params.Input.FirstName, Email: params.Input.Email, Role: application.Role(params.Input.Role)}, nil
}

func (s *userServiceStub) UpdateUser(_ context.Context, _ application.UpdateUserParams) (application.User, error) {
	return application.User{}, nil
}

func (s *userServiceStub) DeleteUser(_ context.Context, _ application.Principal, _ string) error {
	return nil
}

func (s *userServiceStub) ListUsers(_ context.Context, _ application.ListUsersParams) ([]application.User, error) {
	return nil, nil
}

func (s *userServiceStub) ListEmployees(_ context.Context, _ application.Principal) ([]application.User, error) {
	first := "Alice"
	return []application.User{{ID: "user-1", Name: "Martin", FirstName: &first, Role: application.RoleUser}}, nil
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func withPrincipal(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

type testServer struct {
	handler      http.Handler
	reservations *reservationServiceStub
	rooms        *roomServiceStub
	users        *userServiceStub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	purpose := "Sprint review"
	srv := &testServer{
		reservations: &reservationServiceStub{reservation: application.Reservation{
			ID:              "res-1",
			RoomID:          "room-1",
			EmployeeID:      "user-1",
			Date:            "2025-11-12",
			StartTime:       "09:00",
			EndTime:         "10:30",
			DurationMinutes: 90,
			Status:          application.ReservationStatusConfirmed,
			Purpose:         &purpose,
			RoomNumber:      "A101",
			EmployeeName:    "Alice Martin",
		}},
		rooms: &roomServiceStub{},
		users: &userServiceStub{},
	}
	srv.handler = NewRouter(RouterConfig{
		Health:       NewHealthHandler(pingerStub{}, nil),
		Reservations: NewReservationHandler(srv.reservations, nil),
		Rooms:        NewRoomHandler(srv.rooms, nil),
		Users:        NewUserHandler(srv.users, nil),
		Protect:      withPrincipal(application.Principal{UserID: "user-1"}),
	})
	return srv
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestReservationHandlers(t *testing.T) {
	t.Parallel()

	t.Run("create returns the reservation with french labels", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/reservations", `{"room_id":"room-1","employee_id":"user-1","date":"2025-11-12","start_time":"10:30","end_time":"09:00"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decodeBody[reservationResponse](t, rec)
		assert.Equal(t, "res-1", resp.Reservation.ID)
		assert.Equal(t, "Confirmée", resp.Reservation.StatusLabel)
		assert.Equal(t, "1h 30min", resp.Reservation.FormattedDuration)
		assert.Equal(t, "user-1", srv.reservations.created.Principal.UserID)
		assert.Equal(t, "10:30", srv.reservations.created.Input.StartTime)
	})

	t.Run("create rejects malformed json", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/reservations", `{"room_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflicts are reported as localized validation errors", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		srv.reservations.createErr = &application.ValidationError{FieldErrors: map[string]string{
			"room_id": "room is not available for this period",
		}}

		rec := srv.do(t, http.MethodPost, "/reservations", `{"room_id":"room-1"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		resp := decodeBody[errorResponse](t, rec)
		assert.Equal(t, "La salle n'est pas disponible pour cette période.", resp.Errors["room_id"])
	})

	t.Run("cancel of a locked reservation answers conflict", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		srv.reservations.cancelErr = application.ErrReservationLocked

		rec := srv.do(t, http.MethodPost, "/reservations/res-1/cancel", "")
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "RESERVATION_LOCKED", decodeBody[errorResponse](t, rec).ErrorCode)
	})

	t.Run("cancel returns the cancelled reservation", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/reservations/res-1/cancel", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Annulée", decodeBody[reservationResponse](t, rec).Reservation.StatusLabel)
	})

	t.Run("get of an unknown reservation answers not found", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/reservations/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list forwards query filters", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/reservations?period=week&status=pending&room_id=room-2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, application.ListPeriod("week"), srv.reservations.listed.Period)
		assert.Equal(t, "pending", srv.reservations.listed.Status)
		assert.Equal(t, "room-2", srv.reservations.listed.RoomID)
		assert.Len(t, decodeBody[listReservationsResponse](t, rec).Reservations, 1)
	})

	t.Run("calendar rejects non numeric month", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/calendar?month=nov", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("calendar forwards month and year", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/calendar?month=11&year=2025", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 11, srv.reservations.calendar.Month)
		assert.Equal(t, 2025, srv.reservations.calendar.Year)
	})

	t.Run("dashboard exposes counters", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/dashboard", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[dashboardResponse](t, rec)
		assert.Equal(t, 3, resp.Stats.RoomsCount)
		assert.Equal(t, 2, resp.Stats.TodayReservations)
	})

	t.Run("availability reports a french message", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/rooms/room-1/availability?date=2025-11-12&start_time=10:00&end_time=11:00", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[availabilityResponse](t, rec)
		assert.False(t, resp.Available)
		assert.Equal(t, "Salle non disponible pour cette période", resp.Message)
	})
}

func TestRoomHandlers(t *testing.T) {
	t.Parallel()

	t.Run("create trims input and labels the type", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/rooms", `{"room_number":" B12 ","capacity":6,"type":"conference"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody[roomResponse](t, rec)
		assert.Equal(t, "B12", resp.Room.RoomNumber)
		assert.Equal(t, "Salle de conférence", resp.Room.TypeLabel)
	})

	t.Run("update by a non admin is forbidden", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPut, "/rooms/room-1", `{"room_number":"B12","capacity":6,"type":"office"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete of a room in use answers conflict", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		srv.rooms.deleteErr = application.ErrRoomInUse

		rec := srv.do(t, http.MethodDelete, "/rooms/room-1", "")
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ROOM_IN_USE", decodeBody[errorResponse](t, rec).ErrorCode)
	})

	t.Run("delete answers no content", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodDelete, "/rooms/room-1", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("list parses filters", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/rooms?type=office&min_capacity=4&search=A1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "office", srv.rooms.listed.Type)
		assert.Equal(t, 4, srv.rooms.listed.MinCapacity)
		assert.Equal(t, "A1", srv.rooms.listed.Search)
		assert.JSONEq(t, `{"rooms":[]}`, rec.Body.String())
	})

	t.Run("list rejects a non numeric capacity", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/rooms?min_capacity=many", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get resolves the path id", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/rooms/room-7", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[roomResponse](t, rec)
		assert.Equal(t, "room-7", resp.Room.ID)
		assert.Equal(t, "Salle de formation", resp.Room.TypeLabel)
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	t.Run("create returns the new user", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodPost, "/users", `{"name":"Martin","first_name":" Alice ","email":"alice@example.com","role":"user","password":"secret-pass"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeBody[userResponse](t, rec)
		assert.Equal(t, "Alice Martin", resp.User.FullName)
		assert.Equal(t, "user", resp.User.Role)
	})

	t.Run("duplicate email is a localized validation error", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		srv.users.createErr = &application.ValidationError{FieldErrors: map[string]string{"email": "email is already taken"}}

		rec := srv.do(t, http.MethodPost, "/users", `{"name":"Martin"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "Cette adresse e-mail est déjà utilisée.", decodeBody[errorResponse](t, rec).Errors["email"])
	})

	t.Run("unexpected errors are hidden", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)
		srv.users.createErr = errors.New("disk full")

		rec := srv.do(t, http.MethodPost, "/users", `{"name":"Martin"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "disk full")
	})

	t.Run("employees lists selectable accounts", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rec := srv.do(t, http.MethodGet, "/employees", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[listUsersResponse](t, rec)
		require.Len(t, resp.Users, 1)
		assert.Equal(t, "Alice Martin", resp.Users[0].FullName)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	handler := NewHealthHandler(pingerStub{err: errors.New("closed")}, nil)
	rec := httptest.NewRecorder()
	handler.Check(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srv := newTestServer(t)
	rec = srv.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterRejectsUnknownMethods(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPatch, "/rooms/room-1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = srv.do(t, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterProtectsEverythingButHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	handler := NewRouter(RouterConfig{
		Health:       NewHealthHandler(nil, nil),
		Reservations: NewReservationHandler(srv.reservations, nil),
		Protect:      RequireSession(&sessionValidatorStub{err: application.ErrInvalidToken}, nil),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	cases := map[int]string{0: "", 45: "45min", 60: "1h", 90: "1h 30min", 150: "2h 30min"}
	for minutes, want := range cases {
		assert.Equal(t, want, formatDuration(minutes), "minutes=%d", minutes)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/auth"
	"github.com/example/room-reservations/internal/config"
	"github.com/example/room-reservations/internal/testfixtures"
)

const testSecret = "test-secret-value"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "reservations.db")
	cfg.TokenSecret = testSecret
	cfg.RateLimitRPS = 0
	return cfg
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := newApp(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	_, err = a.storage.Migrate(context.Background(), logger)
	require.NoError(t, err)

	a.users.WithPasswordParams(testfixtures.FastPasswordParams)
	return a
}

func createAccount(t *testing.T, a *app, email string, role application.Role) (application.User, string) {
	t.Helper()
	ctx := context.Background()
	number := strings.SplitN(email, "@", 2)[0]

	user, err := a.users.CreateUser(ctx, application.CreateUserParams{
		Principal: application.Principal{IsAdmin: true},
		Input: application.UserInput{
			Name:           "Martin",
			EmployeeNumber: &number,
			Email:          email,
			Role:           string(role),
			Password:       "password-123",
		},
	})
	require.NoError(t, err)

	issued, err := a.auth.IssueToken(ctx, email, "password-123")
	require.NoError(t, err)
	return user, issued.Token
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) do(method, target, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func TestAPI_BookingWorkflow(t *testing.T) {
	a := newTestApp(t)
	client := apiClient{t: t, handler: a.handler()}

	_, adminToken := createAccount(t, a, "admin@example.com", application.RoleAdmin)
	alice, aliceToken := createAccount(t, a, "alice@example.com", application.RoleUser)
	bob, bobToken := createAccount(t, a, "bob@example.com", application.RoleUser)

	day := time.Now().AddDate(0, 0, 2).Format(time.DateOnly)

	rec := client.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = client.do(http.MethodGet, "/rooms", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = client.do(http.MethodPost, "/rooms", aliceToken, map[string]any{"room_number": "A101", "capacity": 6, "type": "conference"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = client.do(http.MethodPost, "/rooms", adminToken, map[string]any{"room_number": "A101", "capacity": 6, "type": "conference"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Room struct {
			ID        string `json:"id"`
			TypeLabel string `json:"type_label"`
		} `json:"room"`
	}
	decode(t, rec, &created)
	roomID := created.Room.ID
	assert.Equal(t, "Salle de conférence", created.Room.TypeLabel)

	// Inverted times are swapped into 10:00-11:30.
	rec = client.do(http.MethodPost, "/reservations", aliceToken, map[string]any{
		"room_id": roomID, "employee_id": alice.ID, "date": day, "start_time": "11:30", "end_time": "10:00:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booked struct {
		Reservation struct {
			ID                string `json:"id"`
			StartTime         string `json:"start_time"`
			EndTime           string `json:"end_time"`
			FormattedDuration string `json:"formatted_duration"`
			RoomNumber        string `json:"room_number"`
		} `json:"reservation"`
	}
	decode(t, rec, &booked)
	assert.Equal(t, "10:00", booked.Reservation.StartTime)
	assert.Equal(t, "11:30", booked.Reservation.EndTime)
	assert.Equal(t, "1h 30min", booked.Reservation.FormattedDuration)
	assert.Equal(t, "A101", booked.Reservation.RoomNumber)

	rec = client.do(http.MethodPost, "/reservations", bobToken, map[string]any{
		"room_id": roomID, "employee_id": bob.ID, "date": day, "start_time": "11:00", "end_time": "12:00",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	var conflict struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, rec, &conflict)
	assert.Equal(t, "La salle n'est pas disponible pour cette période.", conflict.Errors["room_id"])

	// Back to back bookings do not overlap.
	rec = client.do(http.MethodPost, "/reservations", bobToken, map[string]any{
		"room_id": roomID, "employee_id": bob.ID, "date": day, "start_time": "11:30", "end_time": "12:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = client.do(http.MethodGet, "/rooms/"+roomID+"/availability?date="+day+"&start_time=10:30&end_time=11:00", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var availability struct {
		Available bool `json:"available"`
	}
	decode(t, rec, &availability)
	assert.False(t, availability.Available)

	rec = client.do(http.MethodGet, "/reservations/"+booked.Reservation.ID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = client.do(http.MethodGet, "/dashboard", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard struct {
		MyReservations []json.RawMessage `json:"my_reservations"`
		Stats          struct {
			RoomsCount int `json:"rooms_count"`
		} `json:"stats"`
	}
	decode(t, rec, &dashboard)
	assert.Len(t, dashboard.MyReservations, 1)
	assert.Equal(t, 1, dashboard.Stats.RoomsCount)

	rec = client.do(http.MethodDelete, "/rooms/"+roomID, adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = client.do(http.MethodPost, "/reservations/"+booked.Reservation.ID+"/cancel", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = client.do(http.MethodPost, "/reservations/"+booked.Reservation.ID+"/cancel", aliceToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// The cancelled slot is free again.
	rec = client.do(http.MethodPost, "/reservations", bobToken, map[string]any{
		"room_id": roomID, "employee_id": bob.ID, "date": day, "start_time": "10:00", "end_time": "11:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestUserRepositoryAdapter_UpdateKeepsPasswordHash(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	seeded := h.SeedUser(testfixtures.WithPasswordHash("stored-hash"))

	adapter := newUserRepositoryAdapter(h.Storage.Users)
	user := seeded.Application()
	user.Name = "Durand"

	updated, err := adapter.UpdateUser(ctx, user, "")
	require.NoError(t, err)
	assert.Equal(t, "Durand", updated.Name)

	creds, err := newCredentialStoreAdapter(h.Storage.Users).GetUserCredentialsByEmail(ctx, seeded.Email)
	require.NoError(t, err)
	assert.Equal(t, "stored-hash", creds.PasswordHash)
}

func TestReservationRepositoryAdapter_RunsGuard(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	user := h.SeedUser()
	room := h.SeedRoom()
	existing := h.SeedReservation(room.ID, user.ID)

	factory := testfixtures.NewServiceFactory()
	reservations := newReservationRepositoryAdapter(h.Storage.Reservations)
	service := factory.NewReservationService(reservations, newRoomRepositoryAdapter(h.Storage.Rooms), newUserRepositoryAdapter(h.Storage.Users))

	candidate := testfixtures.NewReservationFixture(room.ID, user.ID, testfixtures.WithSlot(existing.Date, "09:30", "10:30"))
	_, err := service.CreateReservation(ctx, application.CreateReservationParams{Principal: user.Principal(), Input: candidate.Input()})
	require.Error(t, err)
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "room_id")

	count, err := reservations.CountReservations(ctx, application.ReservationFilter{RoomID: room.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("RESERVATIONS_CONFIG_FILE", "")
	t.Setenv("RESERVATIONS_STORAGE_DRIVER", "sqlite")
	t.Setenv("RESERVATIONS_SQLITE_PATH", path)
	t.Setenv("RESERVATIONS_TOKEN_SECRET", testSecret)
	t.Setenv("RESERVATIONS_PASSWORD", "admin-password")

	run := func(args ...string) (string, error) {
		var out, errOut bytes.Buffer
		root := newRootCommand(&out)
		root.SetErr(&errOut)
		root.SetArgs(args)
		err := root.ExecuteContext(context.Background())
		return strings.TrimSpace(out.String()), err
	}

	t.Run("version prints the build version", func(t *testing.T) {
		out, err := run("version")
		require.NoError(t, err)
		assert.Equal(t, version, out)
	})

	t.Run("migrate applies the schema", func(t *testing.T) {
		out, err := run("migrate")
		require.NoError(t, err)
		assert.Contains(t, out, "0 pending")
	})

	t.Run("create-admin then token issues a verifiable token", func(t *testing.T) {
		userID, err := run("create-admin", "--name", "Admin", "--email", "root@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, userID)

		token, err := run("token", "--email", "root@example.com")
		require.NoError(t, err)

		manager, err := auth.NewManager(testSecret, time.Hour, time.Now)
		require.NoError(t, err)
		claims, err := manager.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.Subject)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("token rejects a wrong password", func(t *testing.T) {
		t.Setenv("RESERVATIONS_PASSWORD", "not-the-password")
		_, err := run("token", "--email", "root@example.com")
		require.ErrorIs(t, err, application.ErrInvalidCredentials)
	})
}

package http

import (
	"net/http"
)

type RouterConfig struct {
	Health       *HealthHandler
	Reservations *ReservationHandler
	Users        *UserHandler
	Rooms        *RoomHandler
	// Protect wraps every route except /healthz, typically with RequireSession.
	Protect    func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := cfg.Protect
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protect(fn))
	}

	if cfg.Health != nil {
		mux.HandleFunc("GET /healthz", cfg.Health.Check)
	}

	if cfg.Reservations != nil {
		handle("GET /dashboard", cfg.Reservations.Dashboard)
		handle("GET /calendar", cfg.Reservations.Calendar)
		handle("GET /reservations", cfg.Reservations.List)
		handle("POST /reservations", cfg.Reservations.Create)
		handle("GET /reservations/{id}", cfg.Reservations.Get)
		handle("PUT /reservations/{id}", cfg.Reservations.Update)
		handle("DELETE /reservations/{id}", cfg.Reservations.Delete)
		handle("POST /reservations/{id}/cancel", cfg.Reservations.Cancel)
		handle("GET /rooms/{id}/availability", cfg.Reservations.RoomAvailability)
		handle("GET /rooms/{id}/reservations", cfg.Reservations.RoomReservations)
	}

	if cfg.Rooms != nil {
		handle("GET /rooms", cfg.Rooms.List)
		handle("POST /rooms", cfg.Rooms.Create)
		handle("GET /rooms/{id}", cfg.Rooms.Get)
		handle("PUT /rooms/{id}", cfg.Rooms.Update)
		handle("DELETE /rooms/{id}", cfg.Rooms.Delete)
	}

	if cfg.Users != nil {
		handle("GET /users", cfg.Users.List)
		handle("POST /users", cfg.Users.Create)
		handle("PUT /users/{id}", cfg.Users.Update)
		handle("DELETE /users/{id}", cfg.Users.Delete)
		handle("GET /employees", cfg.Users.Employees)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

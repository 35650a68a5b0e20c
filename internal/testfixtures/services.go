package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/room-reservations/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks and a fixed time zone.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    time.UTC,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = time.UTC
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation sets the zone that decides what "today" is.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewUserService builds a user service with cheap password hashing.
func (f *ServiceFactory) NewUserService(users application.UserRepository) *application.UserService {
	return application.NewUserServiceWithLogger(users, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger).
		WithPasswordParams(FastPasswordParams)
}

// NewRoomService builds a room service.
func (f *ServiceFactory) NewRoomService(rooms application.RoomRepository, reservations application.ReservationCounter) *application.RoomService {
	return application.NewRoomServiceWithLogger(rooms, reservations, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Location, f.Logger)
}

// NewReservationService builds a reservation service.
func (f *ServiceFactory) NewReservationService(reservations application.ReservationRepository, rooms application.RoomLookup, users application.UserLookup) *application.ReservationService {
	return application.NewReservationServiceWithLogger(reservations, rooms, users, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Location, f.Logger)
}

// NewAuthService builds an auth service that verifies passwords with application.VerifyPassword.
func (f *ServiceFactory) NewAuthService(credentials application.CredentialStore, tokens application.TokenSigner) *application.AuthService {
	return application.NewAuthServiceWithLogger(credentials, tokens, application.VerifyPassword, f.Logger)
}

// FastPasswordParams keeps argon2id hashing cheap in tests.
var FastPasswordParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

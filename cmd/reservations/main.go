package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/auth"
	"github.com/example/room-reservations/internal/config"
	httptransport "github.com/example/room-reservations/internal/http"
	"github.com/example/room-reservations/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "reservations",
		Short:         "Meeting room reservation service",
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newTokenCommand(),
		newCreateAdminCommand(),
		newVersionCommand(),
	)
	return root
}

// app holds the services built over the configured storage.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *storage

	users        *application.UserService
	rooms        *application.RoomService
	reservations *application.ReservationService
	auth         *application.AuthService
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	tokens, err := auth.NewManager(cfg.TokenSecret, cfg.TokenTTL, time.Now)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := newUserRepositoryAdapter(store.Users)
	roomRepo := newRoomRepositoryAdapter(store.Rooms)
	reservationRepo := newReservationRepositoryAdapter(store.Reservations)

	return &app{
		cfg:          cfg,
		logger:       logger,
		storage:      store,
		users:        application.NewUserServiceWithLogger(userRepo, idGenerator, now, logger),
		rooms:        application.NewRoomServiceWithLogger(roomRepo, reservationRepo, idGenerator, now, cfg.Location, logger),
		reservations: application.NewReservationServiceWithLogger(reservationRepo, roomRepo, userRepo, idGenerator, now, cfg.Location, logger),
		auth:         application.NewAuthServiceWithLogger(newCredentialStoreAdapter(store.Users), tokens, application.VerifyPassword, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.storage.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

func (a *app) handler() http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Health:       httptransport.NewHealthHandler(a.storage, a.logger),
		Reservations: httptransport.NewReservationHandler(a.reservations, a.logger),
		Rooms:        httptransport.NewRoomHandler(a.rooms, a.logger),
		Users:        httptransport.NewUserHandler(a.users, a.logger),
		Protect:      httptransport.RequireSession(a.auth, a.logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(a.logger),
			httptransport.RateLimit(httptransport.RateLimitConfig{
				RequestsPerSecond: a.cfg.RateLimitRPS,
				Burst:             a.cfg.RateLimitBurst,
			}, a.logger),
		},
	})
}

// setup loads configuration, builds the logger and opens the application.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return nil, err
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	slog.SetDefault(logger)

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialise application", "error", err)
		return nil, err
	}
	return a, nil
}

func newServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !skipMigrations {
				if _, err := a.storage.Migrate(cmd.Context(), a.logger); err != nil {
					a.logger.Error("failed to apply migrations", "error", err)
					return err
				}
			}

			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	a.logger.Info("reservations API listening", "addr", server.Addr, "storage", a.cfg.StorageDriver, "version", version)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("server encountered error", "error", err)
		return err
	}

	if err := <-shutdownErr; err != nil {
		a.logger.Error("failed to shutdown server", "error", err)
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

func newMigrateCommand() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !statusOnly {
				applied, err := a.storage.Migrate(cmd.Context(), a.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			}

			status, err := a.storage.MigrationStatus(cmd.Context(), a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %s, %d pending\n", status.CurrentVersion, status.PendingCount)
			for _, pending := range status.PendingMigrations {
				fmt.Fprintf(cmd.OutOrStdout(), "  pending %s %s\n", pending.Version, pending.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only report the schema version")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing account",
		Long:  "Issue a bearer token. The password is read from RESERVATIONS_PASSWORD.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv("RESERVATIONS_PASSWORD")
			if password == "" {
				return errors.New("RESERVATIONS_PASSWORD is not set")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			issued, err := a.auth.IssueToken(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			a.logger.Info("token expires", "user_id", issued.User.ID, "expires_at", issued.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newCreateAdminCommand() *cobra.Command {
	var (
		name      string
		firstName string
		email     string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long:  "Create an administrator account. The password is read from RESERVATIONS_PASSWORD.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv("RESERVATIONS_PASSWORD")
			if password == "" {
				return errors.New("RESERVATIONS_PASSWORD is not set")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.storage.Migrate(cmd.Context(), a.logger); err != nil {
				return err
			}

			input := application.UserInput{
				Name:     name,
				Email:    email,
				Role:     string(application.RoleAdmin),
				Password: password,
			}
			if firstName != "" {
				input.FirstName = &firstName
			}

			user, err := a.users.CreateUser(cmd.Context(), application.CreateUserParams{
				Principal: application.Principal{IsAdmin: true},
				Input:     input,
			})
			if err != nil {
				var vErr *application.ValidationError
				if errors.As(err, &vErr) {
					for field, msg := range vErr.FieldErrors {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
					}
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "last name")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

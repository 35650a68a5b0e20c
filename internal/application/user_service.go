package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/room-reservations/internal/persistence"
)

const minPasswordLength = 8

var namePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s\-']+$`)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	// UpdateUser keeps the stored password hash when passwordHash is empty.
	UpdateUser(ctx context.Context, user User, passwordHash string) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filter UserFilter) ([]User, error)
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	idGenerator func() string
	now         func() time.Time
	hashParams  Argon2idParams
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		hashParams:  DefaultArgon2idParams,
		logger:      defaultLogger(logger),
	}
}

// WithPasswordParams overrides the argon2id cost parameters used for new hashes.
func (s *UserService) WithPasswordParams(params Argon2idParams) *UserService {
	s.hashParams = params
	return s
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateUser", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, true)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = CreatePasswordHash(normalized.Password, s.hashParams)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	user = User{
		ID:             s.idGenerator(),
		Name:           normalized.Name,
		FirstName:      normalized.FirstName,
		Department:     normalized.Department,
		EmployeeNumber: normalized.EmployeeNumber,
		Email:          normalized.Email,
		Role:           Role(normalized.Role),
		CreatedAt:      s.now(),
	}
	user.UpdatedAt = user.CreatedAt

	if s.users == nil {
		return
	}

	var persisted User
	persisted, err = s.users.CreateUser(ctx, user, hash)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	user = persisted
	return
}

// UpdateUser validates input and updates an existing user for administrators.
// An empty password keeps the current one.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser",
		"principal_id", params.Principal.UserID,
		"user_id", params.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized, false)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	if normalized.Password != "" {
		hash, err = CreatePasswordHash(normalized.Password, s.hashParams)
		if err != nil {
			err = fmt.Errorf("hash password: %w", err)
			return
		}
	}

	updated := existing
	updated.Name = normalized.Name
	updated.FirstName = normalized.FirstName
	updated.Department = normalized.Department
	updated.EmployeeNumber = normalized.EmployeeNumber
	updated.Email = normalized.Email
	updated.Role = Role(normalized.Role)
	updated.UpdatedAt = s.now()

	user, err = s.users.UpdateUser(ctx, updated, hash)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}

	return
}

// DeleteUser removes a user when requested by an administrator. The user's
// reservations are removed with it.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		err = mapUserRepoError(err)
		logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers returns users matching the search for administrators.
func (s *UserService) ListUsers(ctx context.Context, params ListUsersParams) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx, UserFilter{Search: strings.TrimSpace(params.Search)})
	if err != nil {
		s.loggerWith(ctx, "ListUsers", "principal_id", params.Principal.UserID).
			ErrorContext(ctx, "failed to list users", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return users, nil
}

// ListEmployees returns users carrying an employee number, ordered by name.
// Administrators use it to populate reservation filters.
func (s *UserService) ListEmployees(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx, UserFilter{EmployeesOnly: true})
	if err != nil {
		s.loggerWith(ctx, "ListEmployees", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list employees", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return users, nil
}

func normalizeUserInput(input UserInput) UserInput {
	email := strings.TrimSpace(input.Email)
	email = strings.ToLower(email)

	role := strings.ToLower(strings.TrimSpace(input.Role))

	return UserInput{
		Name:           strings.TrimSpace(input.Name),
		FirstName:      normalizeOptionalString(input.FirstName),
		Department:     normalizeOptionalString(input.Department),
		EmployeeNumber: normalizeOptionalString(input.EmployeeNumber),
		Email:          email,
		Role:           role,
		Password:       input.Password,
	}
}

func validateUserInput(input UserInput, passwordRequired bool) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case input.Name == "":
		vErr.add("name", "name is required")
	case utf8.RuneCountInString(input.Name) > 255:
		vErr.add("name", "name must be at most 255 characters")
	case !namePattern.MatchString(input.Name):
		vErr.add("name", "name may only contain letters, spaces, hyphens and apostrophes")
	}

	for field, value := range map[string]*string{
		"first_name":      input.FirstName,
		"department":      input.Department,
		"employee_number": input.EmployeeNumber,
	} {
		if value != nil && utf8.RuneCountInString(*value) > 255 {
			vErr.add(field, field+" must be at most 255 characters")
		}
	}

	switch {
	case input.Email == "":
		vErr.add("email", "email is required")
	case len(input.Email) > 255:
		vErr.add("email", "email must be at most 255 characters")
	default:
		if _, err := mail.ParseAddress(input.Email); err != nil {
			vErr.add("email", "email is invalid")
		}
	}

	switch Role(input.Role) {
	case RoleUser, RoleAdmin:
	case "":
		vErr.add("role", "role is required")
	default:
		vErr.add("role", "role must be user or admin")
	}

	switch {
	case input.Password == "" && passwordRequired:
		vErr.add("password", "password is required")
	case input.Password != "" && utf8.RuneCountInString(input.Password) < minPasswordLength:
		vErr.add("password", "password must be at least 8 characters")
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		if strings.Contains(err.Error(), "employee_number") {
			return newValidationError("employee_number", "employee number is already taken")
		}
		return newValidationError("email", "email is already taken")
	}
	return err
}

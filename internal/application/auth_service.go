package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// CredentialStore exposes user credential lookup operations required by the auth service.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// TokenSigner issues bearer tokens and resolves them back to a subject.
type TokenSigner interface {
	Issue(subject, role string) (string, time.Time, error)
	Subject(raw string) (string, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService resolves bearer tokens to principals and issues tokens for valid credentials.
type AuthService struct {
	credentials    CredentialStore
	tokens         TokenSigner
	verifyPassword PasswordVerifier
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, tokens TokenSigner, verify PasswordVerifier) *AuthService {
	return NewAuthServiceWithLogger(credentials, tokens, verify, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, tokens TokenSigner, verify PasswordVerifier, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	return &AuthService{
		credentials:    credentials,
		tokens:         tokens,
		verifyPassword: verify,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// ValidateSession parses a bearer token and resolves the principal it was issued to.
// The role is read from the current user record, not from the token.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.tokens == nil || s.credentials == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	token = strings.TrimSpace(token)
	if token == "" {
		err = ErrInvalidToken
		return
	}

	var subject string
	subject, err = s.tokens.Subject(token)
	if err != nil {
		s.loggerWith(ctx, "ValidateSession").WarnContext(ctx, "rejected bearer token", "error", err)
		err = ErrInvalidToken
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidToken
			return
		}
		s.loggerWith(ctx, "ValidateSession", "user_id", subject).
			ErrorContext(ctx, "failed to resolve token subject", "error", err, "error_kind", ErrorKind(err))
		return
	}

	principal = Principal{UserID: user.ID, IsAdmin: user.IsAdmin()}
	return
}

// IssueToken verifies an email and password pair and signs a bearer token for the user.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (issued IssuedToken, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.tokens == nil || s.credentials == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	email = strings.TrimSpace(strings.ToLower(email))

	logger := s.loggerWith(ctx, "IssueToken", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "token issue failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", issued.User.ID).InfoContext(ctx, "token issued")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var token string
	var expiresAt time.Time
	token, expiresAt, err = s.tokens.Issue(creds.User.ID, string(creds.User.Role))
	if err != nil {
		return
	}

	issued = IssuedToken{Token: token, User: creds.User, ExpiresAt: expiresAt}
	return
}

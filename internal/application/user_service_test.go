package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/room-reservations/internal/persistence"
)

type userRepoStub struct {
	users map[string]User

	createErr   error
	created     User
	createdHash string

	updateErr   error
	updated     User
	updatedHash string

	deleteErr error
	deletedID string

	listFilter UserFilter
	list       []User
}

func (r *userRepoStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if r.createErr != nil {
		return User{}, r.createErr
	}
	r.created = user
	r.createdHash = passwordHash
	return user, nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := r.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (r *userRepoStub) UpdateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if r.updateErr != nil {
		return User{}, r.updateErr
	}
	r.updated = user
	r.updatedHash = passwordHash
	return user, nil
}

func (r *userRepoStub) DeleteUser(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.users[id]; !ok {
		return persistence.ErrNotFound
	}
	r.deletedID = id
	return nil
}

func (r *userRepoStub) ListUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	r.listFilter = filter
	return r.list, nil
}

func newTestUserService(repo UserRepository) *UserService {
	ids := 0
	return NewUserService(repo, func() string {
		ids++
		return fmt.Sprintf("user-%d", ids)
	}, fixedNow).WithPasswordParams(testArgon2Params)
}

func validUserInput() UserInput {
	first := "  Jeanne "
	return UserInput{
		Name:      "  D'Arc-Dupré ",
		FirstName: &first,
		Email:     " Jeanne@Example.COM ",
		Role:      "user",
		Password:  "s3cret-pass",
	}
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(&userRepoStub{})
		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: Principal{UserID: "u"}, Input: validUserInput()})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates input fields including email format", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(&userRepoStub{})
		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: Principal{IsAdmin: true},
			Input: UserInput{
				Name:     "R2-D2",
				Email:    "not-an-email",
				Role:     "superuser",
				Password: "short",
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "email", "role", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("requires a password on creation", func(t *testing.T) {
		t.Parallel()

		input := validUserInput()
		input.Password = ""
		svc := newTestUserService(&userRepoStub{})
		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: Principal{IsAdmin: true}, Input: input})

		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["password"] == "" {
			t.Fatalf("expected password validation error, got %v", err)
		}
	})

	t.Run("persists normalized users with a hashed password", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{}
		svc := newTestUserService(repo)
		user, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: Principal{IsAdmin: true}, Input: validUserInput()})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if user.ID != "user-1" || user.Name != "D'Arc-Dupré" || user.Email != "jeanne@example.com" {
			t.Fatalf("unexpected user %+v", user)
		}
		if user.FirstName == nil || *user.FirstName != "Jeanne" {
			t.Fatalf("expected trimmed first name, got %v", user.FirstName)
		}
		if err := VerifyPassword(repo.createdHash, "s3cret-pass"); err != nil {
			t.Fatalf("expected stored hash to verify, got %v", err)
		}
	})

	t.Run("maps duplicate emails to a field error", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{createErr: fmt.Errorf("%w: UNIQUE constraint failed: users.email", persistence.ErrDuplicate)}
		svc := newTestUserService(repo)
		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: Principal{IsAdmin: true}, Input: validUserInput()})

		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["email"] == "" {
			t.Fatalf("expected email validation error, got %v", err)
		}
	})

	t.Run("maps duplicate employee numbers to a field error", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{createErr: fmt.Errorf("%w: UNIQUE constraint failed: users.employee_number", persistence.ErrDuplicate)}
		svc := newTestUserService(repo)
		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: Principal{IsAdmin: true}, Input: validUserInput()})

		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["employee_number"] == "" {
			t.Fatalf("expected employee_number validation error, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	existing := User{ID: "user-1", Name: "Martin", Email: "martin@example.com", Role: RoleUser}

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(&userRepoStub{users: map[string]User{"user-1": existing}})
		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: Principal{UserID: "user-1"}, UserID: "user-1", Input: validUserInput()})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("propagates ErrNotFound when the user is missing", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(&userRepoStub{})
		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: Principal{IsAdmin: true}, UserID: "missing", Input: validUserInput()})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("keeps the password when none is supplied", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{users: map[string]User{"user-1": existing}}
		svc := newTestUserService(repo)
		input := validUserInput()
		input.Password = ""
		input.Role = "admin"

		updated, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: Principal{IsAdmin: true}, UserID: "user-1", Input: input})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.updatedHash != "" {
			t.Fatalf("expected empty hash to keep the stored password")
		}
		if !updated.IsAdmin() {
			t.Fatalf("expected role change to admin")
		}
		if !updated.UpdatedAt.Equal(roomTestNow) {
			t.Fatalf("expected UpdatedAt from injected clock")
		}
	})

	t.Run("hashes a replacement password", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{users: map[string]User{"user-1": existing}}
		svc := newTestUserService(repo)
		if _, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: Principal{IsAdmin: true}, UserID: "user-1", Input: validUserInput()}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if err := VerifyPassword(repo.updatedHash, "s3cret-pass"); err != nil {
			t.Fatalf("expected new hash to verify, got %v", err)
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	t.Parallel()

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(&userRepoStub{})
		if _, err := svc.ListUsers(context.Background(), ListUsersParams{Principal: Principal{UserID: "u"}}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("passes the trimmed search to the repository", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{list: []User{existingUser("user-1")}}
		svc := newTestUserService(repo)
		users, err := svc.ListUsers(context.Background(), ListUsersParams{Principal: Principal{IsAdmin: true}, Search: "  mar "})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(users) != 1 || repo.listFilter.Search != "mar" || repo.listFilter.EmployeesOnly {
			t.Fatalf("unexpected result %v with filter %+v", users, repo.listFilter)
		}
	})

	t.Run("lists employees only for the reservation filters", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{}
		svc := newTestUserService(repo)
		if _, err := svc.ListEmployees(context.Background(), Principal{IsAdmin: true}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !repo.listFilter.EmployeesOnly {
			t.Fatalf("expected EmployeesOnly filter")
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(&userRepoStub{})
		if err := svc.DeleteUser(context.Background(), Principal{UserID: "u"}, "user-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("propagates ErrNotFound when the user is missing", func(t *testing.T) {
		t.Parallel()

		svc := newTestUserService(&userRepoStub{})
		if err := svc.DeleteUser(context.Background(), Principal{IsAdmin: true}, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deletes existing users", func(t *testing.T) {
		t.Parallel()

		repo := &userRepoStub{users: map[string]User{"user-1": existingUser("user-1")}}
		svc := newTestUserService(repo)
		if err := svc.DeleteUser(context.Background(), Principal{IsAdmin: true}, "user-1"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.deletedID != "user-1" {
			t.Fatalf("expected user-1 deleted, got %q", repo.deletedID)
		}
	})
}

func existingUser(id string) User {
	return User{ID: id, Name: "Martin", Email: id + "@example.com", Role: RoleUser}
}

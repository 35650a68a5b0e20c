package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/room-reservations/internal/persistence"
)

const userColumns = `id, name, first_name, department, employee_number, email, role, password_hash, created_at, updated_at`

// UserRepository implements persistence.UserRepository on PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Name, user.FirstName, user.Department, user.EmployeeNumber,
		normalizeEmail(user.Email), user.Role, user.PasswordHash, user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	)
	return mapError(err)
}

// UpdateUser replaces the mutable attributes of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET name = $1, first_name = $2, department = $3, employee_number = $4, email = $5,
		     role = $6, password_hash = $7, updated_at = $8
		 WHERE id = $9`,
		user.Name, user.FirstName, user.Department, user.EmployeeNumber, normalizeEmail(user.Email),
		user.Role, user.PasswordHash, user.UpdatedAt.UTC(), user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffectedOrNotFound(tag)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, normalized))
}

// ListUsers returns users ordered by name then ID.
func (r *UserRepository) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.EmployeesOnly {
		clauses = append(clauses, "employee_number IS NOT NULL")
	}
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, likePattern(filter.Search))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(name) LIKE $%d OR LOWER(COALESCE(first_name, '')) LIKE $%d OR LOWER(email) LIKE $%d)`, n, n, n))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, mapError(rows.Err())
}

// DeleteUser removes a user. Their reservations are removed by cascade.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffectedOrNotFound(tag)
}

func scanUser(row pgx.Row) (persistence.User, error) {
	var user persistence.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.FirstName,
		&user.Department,
		&user.EmployeeNumber,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

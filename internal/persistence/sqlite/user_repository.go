package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

const userColumns = `id, name, first_name, department, employee_number, email, role, password_hash, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		user.ID,
		user.Name,
		nullString(user.FirstName),
		nullString(user.Department),
		nullString(user.EmployeeNumber),
		normalizeEmail(user.Email),
		user.Role,
		user.PasswordHash,
		formatTimestamp(user.CreatedAt),
		formatTimestamp(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateUser replaces the mutable attributes of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		UPDATE users
		SET name = ?, first_name = ?, department = ?, employee_number = ?, email = ?,
		    role = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		user.Name,
		nullString(user.FirstName),
		nullString(user.Department),
		nullString(user.EmployeeNumber),
		normalizeEmail(user.Email),
		user.Role,
		user.PasswordHash,
		formatTimestamp(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return rowsAffectedOrNotFound(result)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	return r.scanUser(row)
}

// ListUsers returns users ordered by name then ID.
func (r *UserRepository) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]persistence.User, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + userColumns + ` FROM users WHERE 1 = 1`)
	if filter.EmployeesOnly {
		query.WriteString(` AND employee_number IS NOT NULL`)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query.WriteString(` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(first_name, '')) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	query.WriteString(` ORDER BY name ASC, id ASC`)

	rows, err := r.pool.DB().QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

// DeleteUser removes a user. Their reservations are removed by cascade.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return rowsAffectedOrNotFound(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                                  persistence.User
		firstName, department, employeeNumber sql.NullString
		createdAt, updatedAt                  string
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&firstName,
		&department,
		&employeeNumber,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	user.FirstName = stringPtr(firstName)
	user.Department = stringPtr(department)
	user.EmployeeNumber = stringPtr(employeeNumber)
	if user.CreatedAt, user.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

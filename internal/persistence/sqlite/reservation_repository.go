package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/scheduler"
)

const reservationSelect = `
	SELECT r.id, r.room_id, r.employee_id, r.date, r.start_time, r.end_time, r.duration_minutes,
	       r.status, r.purpose, r.notes, r.created_at, r.updated_at, rm.room_number, u.name
	FROM reservations r
	JOIN rooms rm ON rm.id = r.room_id
	JOIN users u ON u.id = r.employee_id
`

const (
	roomIntervalsQuery = `
		SELECT id, start_time, end_time FROM reservations
		WHERE room_id = ? AND date = ? AND status <> 'cancelled'
		ORDER BY start_time ASC
	`
	employeeIntervalsQuery = `
		SELECT id, start_time, end_time FROM reservations
		WHERE employee_id = ? AND date = ? AND status <> 'cancelled'
		ORDER BY start_time ASC
	`
)

// ReservationRepository implements persistence.ReservationRepository using SQLite.
type ReservationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// CreateReservation runs guard against the room's and employee's bookings on
// the reservation date and inserts the row in the same IMMEDIATE transaction.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.BookingGuard) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO reservations (id, room_id, employee_id, date, start_time, end_time, duration_minutes,
		                          status, purpose, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := r.runGuard(ctx, tx, reservation, guard); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, query,
				reservation.ID,
				reservation.RoomID,
				reservation.EmployeeID,
				reservation.Date,
				reservation.StartTime,
				reservation.EndTime,
				reservation.DurationMinutes,
				reservation.Status,
				nullString(reservation.Purpose),
				nullString(reservation.Notes),
				formatTimestamp(reservation.CreatedAt),
				formatTimestamp(reservation.UpdatedAt),
			)
			return err
		})
	})
}

// UpdateReservation runs guard and updates the row in the same IMMEDIATE transaction.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.BookingGuard) error {
	if reservation.ID == "" {
		return persistence.ErrNotFound
	}

	const query = `
		UPDATE reservations
		SET room_id = ?, employee_id = ?, date = ?, start_time = ?, end_time = ?, duration_minutes = ?,
		    status = ?, purpose = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := r.runGuard(ctx, tx, reservation, guard); err != nil {
				return err
			}
			result, err := tx.ExecContext(ctx, query,
				reservation.RoomID,
				reservation.EmployeeID,
				reservation.Date,
				reservation.StartTime,
				reservation.EndTime,
				reservation.DurationMinutes,
				reservation.Status,
				nullString(reservation.Purpose),
				nullString(reservation.Notes),
				formatTimestamp(reservation.UpdatedAt),
				reservation.ID,
			)
			if err != nil {
				return err
			}
			return rowsAffectedOrNotFound(result)
		})
	})
}

func (r *ReservationRepository) runGuard(ctx context.Context, tx *sql.Tx, reservation persistence.Reservation, guard persistence.BookingGuard) error {
	if guard == nil {
		return nil
	}
	roomEntries, err := queryIntervals(ctx, tx, roomIntervalsQuery, reservation.RoomID, reservation.Date)
	if err != nil {
		return err
	}
	employeeEntries, err := queryIntervals(ctx, tx, employeeIntervalsQuery, reservation.EmployeeID, reservation.Date)
	if err != nil {
		return err
	}
	return guard(roomEntries, employeeEntries)
}

func queryIntervals(ctx context.Context, tx *sql.Tx, query, ownerID, date string) ([]scheduler.Interval, error) {
	rows, err := tx.QueryContext(ctx, query, ownerID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []scheduler.Interval
	for rows.Next() {
		var interval scheduler.Interval
		if err := rows.Scan(&interval.ID, &interval.Start, &interval.End); err != nil {
			return nil, err
		}
		intervals = append(intervals, interval)
	}
	return intervals, rows.Err()
}

// GetReservation retrieves a reservation by ID together with its room number and employee name.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id)
	return r.scanReservation(row)
}

// ListReservations returns reservations matching the filter ordered by date then start time.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	where, args := reservationWhere(filter)
	query := reservationSelect + where + ` ORDER BY r.date ASC, r.start_time ASC, r.id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := r.scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reservations, nil
}

// CountReservations returns how many reservations match the filter. Limit is ignored.
func (r *ReservationRepository) CountReservations(ctx context.Context, filter persistence.ReservationFilter) (int, error) {
	where, args := reservationWhere(filter)
	var count int
	if err := r.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations r`+where, args...).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteReservation removes a reservation.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return rowsAffectedOrNotFound(result)
}

func reservationWhere(filter persistence.ReservationFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.EmployeeID != "" {
		clauses = append(clauses, "r.employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.RoomID != "" {
		clauses = append(clauses, "r.room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.DateFrom != "" {
		clauses = append(clauses, "r.date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		clauses = append(clauses, "r.date <= ?")
		args = append(args, filter.DateTo)
	}
	if filter.Status != "" {
		clauses = append(clauses, "r.status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ReservationRepository) scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation          persistence.Reservation
		purpose, notes       sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.EmployeeID,
		&reservation.Date,
		&reservation.StartTime,
		&reservation.EndTime,
		&reservation.DurationMinutes,
		&reservation.Status,
		&purpose,
		&notes,
		&createdAt,
		&updatedAt,
		&reservation.RoomNumber,
		&reservation.EmployeeName,
	)
	if err != nil {
		return persistence.Reservation{}, r.mapper.MapError(err)
	}

	reservation.Purpose = stringPtr(purpose)
	reservation.Notes = stringPtr(notes)
	if reservation.CreatedAt, reservation.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

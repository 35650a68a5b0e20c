package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/scheduler"
)

// Dates and times are rendered as text so they round-trip as the canonical
// YYYY-MM-DD and HH:MM strings used by the rest of the service.
const reservationSelect = `
	SELECT r.id, r.room_id, r.employee_id, to_char(r.date, 'YYYY-MM-DD'),
	       to_char(r.start_time, 'HH24:MI'), to_char(r.end_time, 'HH24:MI'), r.duration_minutes,
	       r.status, r.purpose, r.notes, r.created_at, r.updated_at, rm.room_number, u.name
	FROM reservations r
	JOIN rooms rm ON rm.id = r.room_id
	JOIN users u ON u.id = r.employee_id
`

const (
	roomIntervalsQuery = `
		SELECT id, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI') FROM reservations
		WHERE room_id = $1 AND date = $2::date AND status <> 'cancelled'
		ORDER BY start_time ASC
	`
	employeeIntervalsQuery = `
		SELECT id, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI') FROM reservations
		WHERE employee_id = $1 AND date = $2::date AND status <> 'cancelled'
		ORDER BY start_time ASC
	`
)

// ReservationRepository implements persistence.ReservationRepository on PostgreSQL.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

// CreateReservation runs guard and inserts the reservation in one transaction.
// Writers racing past the guard are stopped by the exclusion constraints.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.BookingGuard) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := runGuard(ctx, tx, reservation, guard); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO reservations (id, room_id, employee_id, date, start_time, end_time, duration_minutes,
			                           status, purpose, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4::date, $5::time, $6::time, $7, $8, $9, $10, $11, $12)`,
			reservation.ID, reservation.RoomID, reservation.EmployeeID, reservation.Date,
			reservation.StartTime, reservation.EndTime, reservation.DurationMinutes,
			reservation.Status, reservation.Purpose, reservation.Notes,
			reservation.CreatedAt.UTC(), reservation.UpdatedAt.UTC(),
		)
		return err
	})
	return mapError(err)
}

// UpdateReservation runs guard and updates the reservation in one transaction.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation, guard persistence.BookingGuard) error {
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := runGuard(ctx, tx, reservation, guard); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE reservations
			 SET room_id = $1, employee_id = $2, date = $3::date, start_time = $4::time, end_time = $5::time,
			     duration_minutes = $6, status = $7, purpose = $8, notes = $9, updated_at = $10
			 WHERE id = $11`,
			reservation.RoomID, reservation.EmployeeID, reservation.Date, reservation.StartTime,
			reservation.EndTime, reservation.DurationMinutes, reservation.Status, reservation.Purpose,
			reservation.Notes, reservation.UpdatedAt.UTC(), reservation.ID,
		)
		if err != nil {
			return err
		}
		return rowsAffectedOrNotFound(tag)
	})
	return mapError(err)
}

func runGuard(ctx context.Context, tx pgx.Tx, reservation persistence.Reservation, guard persistence.BookingGuard) error {
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

func queryIntervals(ctx context.Context, tx pgx.Tx, query, ownerID, date string) ([]scheduler.Interval, error) {
	rows, err := tx.Query(ctx, query, ownerID, date)
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

// GetReservation retrieves a reservation by ID with its room number and employee name.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return scanReservation(r.pool.QueryRow(ctx, reservationSelect+` WHERE r.id = $1`, id))
}

// ListReservations returns reservations matching the filter ordered by date then start time.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	where, args := reservationWhere(filter)
	query := reservationSelect + where + ` ORDER BY r.date ASC, r.start_time ASC, r.id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, mapError(rows.Err())
}

// CountReservations returns how many reservations match the filter. Limit is ignored.
func (r *ReservationRepository) CountReservations(ctx context.Context, filter persistence.ReservationFilter) (int, error) {
	where, args := reservationWhere(filter)
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reservations r`+where, args...).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// DeleteReservation removes a reservation.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffectedOrNotFound(tag)
}

func reservationWhere(filter persistence.ReservationFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.EmployeeID != "" {
		add("r.employee_id = $%d", filter.EmployeeID)
	}
	if filter.RoomID != "" {
		add("r.room_id = $%d", filter.RoomID)
	}
	if filter.DateFrom != "" {
		add("r.date >= $%d::date", filter.DateFrom)
	}
	if filter.DateTo != "" {
		add("r.date <= $%d::date", filter.DateTo)
	}
	if filter.Status != "" {
		add("r.status = $%d", filter.Status)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanReservation(row pgx.Row) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.EmployeeID,
		&reservation.Date,
		&reservation.StartTime,
		&reservation.EndTime,
		&reservation.DurationMinutes,
		&reservation.Status,
		&reservation.Purpose,
		&reservation.Notes,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
		&reservation.RoomNumber,
		&reservation.EmployeeName,
	)
	if err != nil {
		return persistence.Reservation{}, mapError(err)
	}
	return reservation, nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/room-reservations/internal/persistence"
)

const roomColumns = `id, room_number, capacity, type, description, created_at, updated_at`

// RoomRepository implements persistence.RoomRepository on PostgreSQL.
type RoomRepository struct {
	pool *pgxpool.Pool
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		room.ID, room.RoomNumber, room.Capacity, room.Type, room.Description, room.CreatedAt.UTC(), room.UpdatedAt.UTC(),
	)
	return mapError(err)
}

// UpdateRoom replaces the mutable attributes of an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE rooms SET room_number = $1, capacity = $2, type = $3, description = $4, updated_at = $5 WHERE id = $6`,
		room.RoomNumber, room.Capacity, room.Type, room.Description, room.UpdatedAt.UTC(), room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return rowsAffectedOrNotFound(tag)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
}

// ListRooms returns rooms matching the filter ordered by room number.
func (r *RoomRepository) ListRooms(ctx context.Context, filter persistence.RoomFilter) ([]persistence.Room, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		clauses = append(clauses, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.MinCapacity > 0 {
		args = append(args, filter.MinCapacity)
		clauses = append(clauses, fmt.Sprintf("capacity >= $%d", len(args)))
	}
	if strings.TrimSpace(filter.Search) != "" {
		args = append(args, likePattern(filter.Search))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(`(LOWER(room_number) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)`, n, n))
	}

	query := `SELECT ` + roomColumns + ` FROM rooms`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY room_number ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, mapError(rows.Err())
}

// CountRooms returns the number of rooms in the catalog.
func (r *RoomRepository) CountRooms(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// DeleteRoom removes a room. Its reservations are removed by cascade.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return rowsAffectedOrNotFound(tag)
}

func scanRoom(row pgx.Row) (persistence.Room, error) {
	var room persistence.Room
	err := row.Scan(
		&room.ID,
		&room.RoomNumber,
		&room.Capacity,
		&room.Type,
		&room.Description,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

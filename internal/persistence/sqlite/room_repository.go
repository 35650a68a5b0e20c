package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

const roomColumns = `id, room_number, capacity, type, description, created_at, updated_at`

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.DB().ExecContext(ctx, query,
		room.ID,
		room.RoomNumber,
		room.Capacity,
		room.Type,
		nullString(room.Description),
		formatTimestamp(room.CreatedAt),
		formatTimestamp(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom replaces the mutable attributes of an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	const query = `
		UPDATE rooms
		SET room_number = ?, capacity = ?, type = ?, description = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.DB().ExecContext(ctx, query,
		room.RoomNumber,
		room.Capacity,
		room.Type,
		nullString(room.Description),
		formatTimestamp(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return rowsAffectedOrNotFound(result)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return r.scanRoom(row)
}

// ListRooms returns rooms matching the filter ordered by room number.
func (r *RoomRepository) ListRooms(ctx context.Context, filter persistence.RoomFilter) ([]persistence.Room, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + roomColumns + ` FROM rooms WHERE 1 = 1`)
	if filter.Type != "" {
		query.WriteString(` AND type = ?`)
		args = append(args, filter.Type)
	}
	if filter.MinCapacity > 0 {
		query.WriteString(` AND capacity >= ?`)
		args = append(args, filter.MinCapacity)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query.WriteString(` AND (LOWER(room_number) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	query.WriteString(` ORDER BY room_number ASC, id ASC`)

	rows, err := r.pool.DB().QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := r.scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

// CountRooms returns the number of rooms in the catalog.
func (r *RoomRepository) CountRooms(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteRoom removes a room. Its reservations are removed by cascade.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return rowsAffectedOrNotFound(result)
}

func (r *RoomRepository) scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		description          sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&room.ID,
		&room.RoomNumber,
		&room.Capacity,
		&room.Type,
		&description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}

	room.Description = stringPtr(description)
	if room.CreatedAt, room.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

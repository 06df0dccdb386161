package location

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for room persistence operations.
type Repository interface {
	Create(ctx context.Context, room *Room) error
	List(ctx context.Context) ([]Room, error)
	Get(ctx context.Context, id string) (*Room, error)
	GetByName(ctx context.Context, name string) (*Room, error)
	Update(ctx context.Context, room *Room) error
	Delete(ctx context.Context, id string) error
	// EnsureByName returns the room with the given name, creating it
	// with the given type when absent. Used by the CSV importer.
	EnsureByName(ctx context.Context, name, roomType string) (*Room, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed room repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new room. Generates an ID when none is set.
func (r *SQLiteRepository) Create(ctx context.Context, room *Room) error {
	if room.ID == "" {
		room.ID = "room-" + uuid.NewString()[:8]
	}
	if room.RoomType == "" {
		room.RoomType = RoomTypeOther
	}
	const query = `INSERT INTO rooms (id, name, room_type) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, room.ID, room.Name, room.RoomType)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoomNameExists
		}
		return fmt.Errorf("inserting room %s: %w", room.ID, err)
	}
	return nil
}

// List returns all rooms ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Room, error) {
	const query = `SELECT id, name, room_type, created_at, updated_at
		FROM rooms ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		rm, err := scanRoomFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// Get returns a single room by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Room, error) {
	const query = `SELECT id, name, room_type, created_at, updated_at
		FROM rooms WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByName returns a single room by its unique name.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Room, error) {
	const query = `SELECT id, name, room_type, created_at, updated_at
		FROM rooms WHERE name = ?`
	return r.getOne(ctx, query, name)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*Room, error) {
	room, err := scanRoomFrom(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("scanning room: %w", err)
	}
	return room, nil
}

// Update updates an existing room record.
func (r *SQLiteRepository) Update(ctx context.Context, room *Room) error {
	const query = `UPDATE rooms SET name = ?, room_type = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, room.Name, room.RoomType, room.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoomNameExists
		}
		return fmt.Errorf("updating room %s: %w", room.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// Delete removes a single room by ID. Devices assigned to the room keep
// existing with their room reference cleared by the schema.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// EnsureByName returns the room with the given name, creating it when
// absent. A concurrent create of the same name is resolved by re-reading.
func (r *SQLiteRepository) EnsureByName(ctx context.Context, name, roomType string) (*Room, error) {
	room, err := r.GetByName(ctx, name)
	if err == nil {
		return room, nil
	}
	if err != ErrRoomNotFound {
		return nil, err
	}

	room = &Room{Name: name, RoomType: roomType}
	if err := r.Create(ctx, room); err != nil {
		if err == ErrRoomNameExists {
			return r.GetByName(ctx, name)
		}
		return nil, err
	}
	return room, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRoomFrom(s scanner) (*Room, error) {
	var rm Room
	var createdAt, updatedAt string

	if err := s.Scan(&rm.ID, &rm.Name, &rm.RoomType, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rm.CreatedAt = parseTime(createdAt)
	rm.UpdatedAt = parseTime(updatedAt)
	return &rm, nil
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

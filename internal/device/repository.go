package device

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for device persistence operations.
type Repository interface {
	Create(ctx context.Context, device *Device) error
	List(ctx context.Context) ([]Device, error)
	ListByRoom(ctx context.Context, roomID string) ([]Device, error)
	Get(ctx context.Context, id string) (*Device, error)
	GetByExternalID(ctx context.Context, externalID string) (*Device, error)
	Update(ctx context.Context, device *Device) error
	Delete(ctx context.Context, id string) error
	// SetReported updates the live fields a telemetry reading carries:
	// last value and the online flag.
	SetReported(ctx context.Context, id string, value float64, online bool) error
	Count(ctx context.Context) (int, error)
}

const deviceColumns = `id, external_id, name, device_type, room_id, status,
	last_value, online, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new device. Generates an ID when none is set.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	if device.ID == "" {
		device.ID = "dev-" + uuid.NewString()[:8]
	}
	if device.Status == "" {
		device.Status = StatusOff
	}
	const query = `INSERT INTO devices (id, external_id, name, device_type,
		room_id, status, last_value, online)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		device.ID, device.ExternalID, device.Name, device.DeviceType,
		nullString(device.RoomID), device.Status,
		nullFloat(device.LastValue), boolToInt(device.Online))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExternalIDExists
		}
		return fmt.Errorf("inserting device %s: %w", device.ID, err)
	}
	return nil
}

// List returns all devices ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY name`
	return r.queryDevices(ctx, query)
}

// ListByRoom returns devices assigned to a specific room.
func (r *SQLiteRepository) ListByRoom(ctx context.Context, roomID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE room_id = ? ORDER BY name`
	return r.queryDevices(ctx, query, roomID)
}

// Get returns a single device by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByExternalID returns a single device by its unique external ID.
func (r *SQLiteRepository) GetByExternalID(ctx context.Context, externalID string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE external_id = ?`
	return r.getOne(ctx, query, externalID)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*Device, error) {
	device, err := scanDeviceFrom(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}
	return device, nil
}

// Update updates an existing device record.
func (r *SQLiteRepository) Update(ctx context.Context, device *Device) error {
	const query = `UPDATE devices SET external_id = ?, name = ?, device_type = ?,
		room_id = ?, status = ?, last_value = ?, online = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		device.ExternalID, device.Name, device.DeviceType,
		nullString(device.RoomID), device.Status,
		nullFloat(device.LastValue), boolToInt(device.Online), device.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExternalIDExists
		}
		return fmt.Errorf("updating device %s: %w", device.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a single device by ID. Reading history goes with it.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// SetReported updates the last reported value and the online flag.
func (r *SQLiteRepository) SetReported(ctx context.Context, id string, value float64, online bool) error {
	const query = `UPDATE devices SET last_value = ?, online = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, value, boolToInt(online), id)
	if err != nil {
		return fmt.Errorf("updating reported state for device %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Count returns the total number of devices.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting devices: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDeviceFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanDeviceFrom(s scanner) (*Device, error) {
	var d Device
	var roomID sql.NullString
	var lastValue sql.NullFloat64
	var online int
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.ExternalID, &d.Name, &d.DeviceType, &roomID,
		&d.Status, &lastValue, &online, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if roomID.Valid {
		d.RoomID = &roomID.String
	}
	if lastValue.Valid {
		d.LastValue = &lastValue.Float64
	}
	d.Online = online != 0
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// nullString converts a *string to sql.NullString for nullable columns.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullFloat converts a *float64 to sql.NullFloat64 for nullable columns.
func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
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

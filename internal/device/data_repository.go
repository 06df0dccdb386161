package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DataRepository stores the reading history of devices.
type DataRepository interface {
	Append(ctx context.Context, reading *Reading) error
	// ListRecent returns the newest readings for a device, newest first.
	ListRecent(ctx context.Context, deviceID string, limit int) ([]Reading, error)
	// Average returns the mean value a device reported since the cutoff.
	// ok is false when no readings fall in the window.
	Average(ctx context.Context, deviceID string, since time.Time) (avg float64, ok bool, err error)
}

// SQLiteDataRepository implements DataRepository using SQLite.
type SQLiteDataRepository struct {
	db *sql.DB
}

// NewSQLiteDataRepository creates a new SQLite-backed reading store.
func NewSQLiteDataRepository(db *sql.DB) *SQLiteDataRepository {
	return &SQLiteDataRepository{db: db}
}

// Append inserts a reading. RecordedAt defaults to now when zero.
func (r *SQLiteDataRepository) Append(ctx context.Context, reading *Reading) error {
	recordedAt := reading.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO device_data (device_id, value, unit, recorded_at)
		VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		reading.DeviceID, reading.Value, reading.Unit,
		recordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting reading for device %s: %w", reading.DeviceID, err)
	}
	reading.RecordedAt = recordedAt
	reading.ID, _ = result.LastInsertId() //nolint:errcheck // SQLite always supports LastInsertId
	return nil
}

// ListRecent returns up to limit readings for a device, newest first.
func (r *SQLiteDataRepository) ListRecent(ctx context.Context, deviceID string, limit int) ([]Reading, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, device_id, value, unit, recorded_at
		FROM device_data WHERE device_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var rd Reading
		var unit sql.NullString
		var recordedAt string
		if err := rows.Scan(&rd.ID, &rd.DeviceID, &rd.Value, &unit, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning reading row: %w", err)
		}
		rd.Unit = unit.String
		rd.RecordedAt = parseTime(recordedAt)
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reading rows: %w", err)
	}
	return readings, nil
}

// Average returns the mean reading of a device since the cutoff.
func (r *SQLiteDataRepository) Average(ctx context.Context, deviceID string, since time.Time) (float64, bool, error) {
	const query = `SELECT AVG(value) FROM device_data
		WHERE device_id = ? AND recorded_at >= ?`
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query,
		deviceID, since.UTC().Format(time.RFC3339)).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("averaging readings for device %s: %w", deviceID, err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

package device

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rowanfell/hearth-core/internal/infrastructure/logging"
	"github.com/rowanfell/hearth-core/internal/location"
)

// csvColumns is the expected column layout of an inventory file.
// Fields are semicolon-separated: name;device_id;type;room;initial_status;initial_value
const csvColumns = 6

// ImportResult summarises a CSV bulk import. Errors holds one message
// per rejected row; accepted rows are committed regardless.
type ImportResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	ImportedCount int      `json:"imported_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors,omitempty"`
}

// Importer commissions devices in bulk from a CSV inventory file.
// Rooms named in the file are created on demand.
type Importer struct {
	devices Repository
	rooms   location.Repository
	logger  *logging.Logger
}

// NewImporter creates a CSV importer.
func NewImporter(devices Repository, rooms location.Repository, logger *logging.Logger) *Importer {
	return &Importer{
		devices: devices,
		rooms:   rooms,
		logger:  logger.With("component", "csvimport"),
	}
}

// Import reads a semicolon-separated inventory and creates one device
// per row. Rows are independent: a rejected row is reported in the
// result and does not abort the rest of the file.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if line == 1 && isHeaderRow(record) {
			continue
		}
		if err := im.importRow(ctx, record); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.ImportedCount++
	}

	result.Success = result.FailedCount == 0
	result.Message = fmt.Sprintf("imported %d devices, %d failed",
		result.ImportedCount, result.FailedCount)
	im.logger.Info("csv import finished",
		"imported", result.ImportedCount,
		"failed", result.FailedCount)
	return result, nil
}

func (im *Importer) importRow(ctx context.Context, record []string) error {
	if len(record) != csvColumns {
		return fmt.Errorf("expected %d fields, got %d", csvColumns, len(record))
	}

	name := strings.TrimSpace(record[0])
	externalID := strings.TrimSpace(record[1])
	deviceType := strings.TrimSpace(record[2])
	roomName := strings.TrimSpace(record[3])
	status := strings.TrimSpace(record[4])
	rawValue := strings.TrimSpace(record[5])

	if deviceType == "" {
		deviceType = TypeOther
	}
	if status == "" {
		status = StatusOff
	}

	d := &Device{
		Name:       name,
		ExternalID: externalID,
		DeviceType: deviceType,
		Status:     status,
	}

	if rawValue != "" {
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return fmt.Errorf("parsing initial value %q: %w", rawValue, err)
		}
		d.LastValue = &value
	}

	if err := ValidateDevice(d); err != nil {
		return err
	}

	if roomName != "" {
		room, err := im.rooms.EnsureByName(ctx, roomName, location.RoomTypeOther)
		if err != nil {
			return fmt.Errorf("resolving room %q: %w", roomName, err)
		}
		d.RoomID = &room.ID
	}

	return im.devices.Create(ctx, d)
}

// isHeaderRow reports whether a record looks like the column header.
func isHeaderRow(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "name")
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rowanfell/hearth-core/internal/device"
)

// deviceRequest is the request body for creating or updating a device.
type deviceRequest struct {
	ExternalID string   `json:"external_id"`
	Name       string   `json:"name"`
	DeviceType string   `json:"device_type"`
	RoomID     *string  `json:"room_id"`
	Status     string   `json:"status"`
	LastValue  *float64 `json:"last_value"`
}

// handleListDevices returns all devices, optionally filtered by room.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var (
		devices []device.Device
		err     error
	)
	if roomID := r.URL.Query().Get("room_id"); roomID != "" {
		devices, err = s.devices.ListByRoom(r.Context(), roomID)
	} else {
		devices, err = s.devices.List(r.Context())
	}
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleCreateDevice creates a new device.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev := &device.Device{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		DeviceType: req.DeviceType,
		RoomID:     req.RoomID,
		Status:     req.Status,
		LastValue:  req.LastValue,
	}
	if dev.Status == "" {
		dev.Status = device.StatusOff
	}
	if err := device.ValidateDevice(dev); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.devices.Create(r.Context(), dev); err != nil {
		if errors.Is(err, device.ErrExternalIDExists) {
			writeConflict(w, "device external_id already exists")
			return
		}
		s.logger.Error("creating device failed", "error", err)
		writeInternalError(w, "failed to create device")
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice replaces a device's editable fields. The reported
// fields (last value, online) are owned by the telemetry path and are not
// settable here.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.devices.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	existing.Name = req.Name
	existing.RoomID = req.RoomID
	if req.ExternalID != "" {
		existing.ExternalID = req.ExternalID
	}
	if req.DeviceType != "" {
		existing.DeviceType = req.DeviceType
	}
	if req.Status != "" {
		existing.Status = req.Status
	}
	if err := device.ValidateDevice(existing); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.devices.Update(r.Context(), existing); err != nil {
		if errors.Is(err, device.ErrExternalIDExists) {
			writeConflict(w, "device external_id already exists")
			return
		}
		writeInternalError(w, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteDevice removes a device and its reading history (cascade).
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to delete device")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportDevices commissions devices in bulk from an uploaded CSV
// inventory. The body is the raw CSV; rows fail independently and the
// response carries per-row errors.
func (s *Server) handleImportDevices(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeInternalError(w, "import not configured")
		return
	}

	result, err := s.importer.Import(r.Context(), r.Body)
	if err != nil {
		s.logger.Error("csv import failed", "error", err)
		writeBadRequest(w, "could not read CSV body")
		return
	}

	status := http.StatusOK
	if !result.Success {
		// Partial or total failure still returns the report.
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// maxReadingsLimit caps how many readings one request may fetch.
const maxReadingsLimit = 1000

// handleListDeviceReadings returns a device's most recent readings.
//
// Query parameters:
//   - limit: maximum rows to return (default 100, cap 1000)
func (s *Server) handleListDeviceReadings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.devices.Get(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxReadingsLimit {
		limit = maxReadingsLimit
	}

	readings, err := s.data.ListRecent(r.Context(), id, limit)
	if err != nil {
		writeInternalError(w, "failed to list readings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": readings, "count": len(readings)})
}

// handleDeviceAverage returns the mean value a device reported over a
// trailing window.
//
// Query parameters:
//   - hours: window length in hours (default 24)
func (s *Server) handleDeviceAverage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.devices.Get(r.Context(), id); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "hours must be a positive integer")
			return
		}
		hours = n
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	avg, ok, err := s.data.Average(r.Context(), id, since)
	if err != nil {
		writeInternalError(w, "failed to compute average")
		return
	}

	resp := map[string]any{
		"device_id": id,
		"hours":     hours,
		"samples":   ok,
	}
	if ok {
		resp["average"] = avg
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeviceStats returns inventory-level device statistics.
func (s *Server) handleDeviceStats(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}

	online := 0
	byType := make(map[string]int)
	byStatus := make(map[string]int)
	for i := range devices {
		d := &devices[i]
		if d.Online {
			online++
		}
		byType[d.DeviceType]++
		byStatus[d.Status]++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(devices),
		"online":    online,
		"offline":   len(devices) - online,
		"by_type":   byType,
		"by_status": byStatus,
	})
}

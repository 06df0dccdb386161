package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rowanfell/hearth-core/internal/location"
)

// roomRequest is the request body for creating or updating a room.
type roomRequest struct {
	Name     string `json:"name"`
	RoomType string `json:"room_type"`
}

// handleListRooms returns all rooms.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.List(r.Context())
	if err != nil {
		s.logger.Error("listing rooms failed", "error", err)
		writeInternalError(w, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleGetRoom returns a single room by ID.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.rooms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, location.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleListRoomDevices returns the devices assigned to a room.
func (s *Server) handleListRoomDevices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.rooms.Get(r.Context(), id); err != nil {
		if errors.Is(err, location.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}

	devices, err := s.devices.ListByRoom(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleCreateRoom creates a new room.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	room := &location.Room{Name: req.Name, RoomType: req.RoomType}
	if err := location.ValidateRoom(room); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.rooms.Create(r.Context(), room); err != nil {
		if errors.Is(err, location.ErrRoomNameExists) {
			writeConflict(w, "room name already exists")
			return
		}
		s.logger.Error("creating room failed", "error", err)
		writeInternalError(w, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// handleUpdateRoom replaces a room's name and type.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := s.rooms.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, location.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	existing.Name = req.Name
	if req.RoomType != "" {
		existing.RoomType = req.RoomType
	}
	if err := location.ValidateRoom(existing); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.rooms.Update(r.Context(), existing); err != nil {
		if errors.Is(err, location.ErrRoomNameExists) {
			writeConflict(w, "room name already exists")
			return
		}
		writeInternalError(w, "failed to update room")
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// handleDeleteRoom removes a room. Devices in the room keep existing with
// their room reference cleared (schema ON DELETE SET NULL).
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.rooms.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, location.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to delete room")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

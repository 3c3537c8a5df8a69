package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/irhvac-core/internal/hvac"
)

// maxBodyBytes bounds request bodies to keep malformed clients cheap.
const maxBodyBytes = 64 * 1024

// handleListDevices returns all registered devices in registration order.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleCreateDevice registers a new device.
//
// When the body omits the id, the registry assigns the lowest unused
// numeric id automatically.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var device hvac.DeviceConfig
	if err := decodeBody(r, &device); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if s.limits.MaxDevices > 0 && s.registry.Count() >= s.limits.MaxDevices {
		writeConflict(w, "device limit reached")
		return
	}
	if device.Custom != nil && s.limits.MaxTempCodes > 0 && len(device.Custom.Temps) > s.limits.MaxTempCodes {
		writeBadRequest(w, "too many temperature codes")
		return
	}

	if err := s.registry.Create(r.Context(), &device); err != nil {
		switch {
		case errors.Is(err, hvac.ErrDeviceExists):
			writeConflict(w, "device already exists: "+device.ID)
		case errors.Is(err, hvac.ErrRegistryFull):
			writeConflict(w, "no free device ids")
		default:
			writeBadRequest(w, err.Error())
		}
		return
	}

	s.logger.Info("device created via API", "device_id", device.ID, "protocol", device.Protocol)
	writeJSON(w, http.StatusCreated, device)
}

// handleGetDevice returns a single device configuration.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	device, err := s.registry.Get(id)
	if err != nil {
		writeNotFound(w, "device not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// handleUpdateDevice modifies an existing device.
//
// The id in the URL is authoritative; an id in the body is ignored.
// Changing the protocol or emitter resets the device's tracked state.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var device hvac.DeviceConfig
	if err := decodeBody(r, &device); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	device.ID = id

	if device.Custom != nil && s.limits.MaxTempCodes > 0 && len(device.Custom.Temps) > s.limits.MaxTempCodes {
		writeBadRequest(w, "too many temperature codes")
		return
	}

	if err := s.registry.Update(r.Context(), &device); err != nil {
		if errors.Is(err, hvac.ErrUnknownID) {
			writeNotFound(w, "device not found: "+id)
			return
		}
		writeBadRequest(w, err.Error())
		return
	}

	s.logger.Info("device updated via API", "device_id", id)
	writeJSON(w, http.StatusOK, device)
}

// handleDeleteDevice removes a device and its tracked state.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.registry.Delete(r.Context(), id); err != nil {
		if errors.Is(err, hvac.ErrUnknownID) {
			writeNotFound(w, "device not found: "+id)
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	s.logger.Info("device deleted via API", "device_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleGetDeviceState returns the tracked state snapshot for a device.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cmd := &hvac.Command{Cmd: "get", ID: hvac.FlexString(id)}
	s.writeEngineResult(w, s.engine.Execute(cmd, ""))
}

// handleSendDevice executes a send command against a device.
//
// The request body uses the same shape as the line protocol's send
// verb; the device id comes from the URL.
func (s *Server) handleSendDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, "reading request body: "+err.Error())
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	cmd, err := hvac.ParseCommand(body)
	if err != nil {
		writeBadRequest(w, "invalid command: "+err.Error())
		return
	}
	cmd.Cmd = "send"
	cmd.ID = hvac.FlexString(id)

	s.writeEngineResult(w, s.engine.Execute(cmd, ""))
}

// handleRawSend transmits a code directly on an emitter, bypassing the
// device registry.
func (s *Server) handleRawSend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, "reading request body: "+err.Error())
		return
	}

	cmd, err := hvac.ParseCommand(body)
	if err != nil {
		writeBadRequest(w, "invalid command: "+err.Error())
		return
	}
	cmd.Cmd = "raw"

	s.writeEngineResult(w, s.engine.Execute(cmd, ""))
}

// writeEngineResult maps an engine response onto an HTTP status.
//
// Error responses keep the line protocol's reason codes in the body so
// API and telnet clients see the same vocabulary.
func (s *Server) writeEngineResult(w http.ResponseWriter, result any) {
	if errResp, ok := result.(hvac.ErrorResponse); ok {
		status := http.StatusBadRequest
		switch errResp.Error {
		case hvac.ReasonUnknownID:
			status = http.StatusNotFound
		case hvac.ReasonSendFailed:
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errResp)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

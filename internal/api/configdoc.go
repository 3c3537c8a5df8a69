package api

import (
	"net/http"

	"github.com/nerrad567/irhvac-core/internal/hvac"
)

// ConfigDocument is the portable export shape: the full emitter and
// device tables, sufficient to recreate an installation.
type ConfigDocument struct {
	Emitters []hvac.EmitterConfig `json:"emitters"`
	Devices  []hvac.DeviceConfig  `json:"devices"`
}

// handleExportConfig returns the emitter and device tables as one
// document, suitable for backup or transfer to another instance.
func (s *Server) handleExportConfig(w http.ResponseWriter, r *http.Request) {
	doc := ConfigDocument{
		Devices: s.registry.List(),
	}
	if s.repo != nil {
		emitters, err := s.repo.ListEmitters(r.Context())
		if err != nil {
			writeInternalError(w, "listing emitters: "+err.Error())
			return
		}
		doc.Emitters = emitters
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleImportConfig replaces the emitter and device tables with the
// contents of an exported document.
//
// Import is wholesale: existing devices not present in the document are
// removed, and every imported device starts with fresh runtime state.
func (s *Server) handleImportConfig(w http.ResponseWriter, r *http.Request) {
	var doc ConfigDocument
	if err := decodeBody(r, &doc); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if s.limits.MaxEmitters > 0 && len(doc.Emitters) > s.limits.MaxEmitters {
		writeBadRequest(w, "too many emitters")
		return
	}
	if s.limits.MaxDevices > 0 && len(doc.Devices) > s.limits.MaxDevices {
		writeBadRequest(w, "too many devices")
		return
	}

	// Clear the existing device table first so imported ids never collide.
	for _, existing := range s.registry.List() {
		if err := s.registry.Delete(r.Context(), existing.ID); err != nil {
			writeInternalError(w, "removing device "+existing.ID+": "+err.Error())
			return
		}
	}

	for i := range doc.Devices {
		device := doc.Devices[i]
		if err := s.registry.Create(r.Context(), &device); err != nil {
			writeBadRequest(w, "importing device "+device.ID+": "+err.Error())
			return
		}
		doc.Devices[i] = device
	}

	if s.repo != nil {
		if err := s.repo.SaveEmitters(r.Context(), doc.Emitters); err != nil {
			writeInternalError(w, "saving emitters: "+err.Error())
			return
		}
	}
	gpios := make([]int, len(doc.Emitters))
	for i, cfg := range doc.Emitters {
		gpios[i] = cfg.GPIO
	}
	if err := s.emitters.Rebuild(gpios); err != nil {
		writeInternalError(w, "rebuilding emitter table: "+err.Error())
		return
	}

	s.logger.Info("configuration imported via API",
		"devices", len(doc.Devices), "emitters", len(doc.Emitters))
	writeJSON(w, http.StatusOK, doc)
}

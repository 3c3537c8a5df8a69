package api

import (
	"net/http"

	"github.com/nerrad567/irhvac-core/internal/hvac"
)

// handleListEmitters returns the configured emitter table.
func (s *Server) handleListEmitters(w http.ResponseWriter, r *http.Request) {
	var configs []hvac.EmitterConfig
	if s.repo != nil {
		var err error
		configs, err = s.repo.ListEmitters(r.Context())
		if err != nil {
			writeInternalError(w, "listing emitters: "+err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"emitters": configs,
		"active":   s.emitters.List(),
		"max":      s.limits.MaxEmitters,
	})
}

// handleReplaceEmitters replaces the emitter table wholesale.
//
// The new configuration is persisted first, then the hardware table is
// rebuilt. Indexes must be the positions 0..n-1 in order; a rebuild
// failure leaves the persisted configuration in place but no channels
// open, matching startup behaviour on bad hardware.
func (s *Server) handleReplaceEmitters(w http.ResponseWriter, r *http.Request) {
	var configs []hvac.EmitterConfig
	if err := decodeBody(r, &configs); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if s.limits.MaxEmitters > 0 && len(configs) > s.limits.MaxEmitters {
		writeBadRequest(w, "too many emitters")
		return
	}
	for i, cfg := range configs {
		if cfg.Index != i {
			writeBadRequest(w, "emitter indexes must be contiguous from 0")
			return
		}
		if cfg.GPIO < 0 {
			writeBadRequest(w, "invalid gpio pin")
			return
		}
	}

	if s.repo != nil {
		if err := s.repo.SaveEmitters(r.Context(), configs); err != nil {
			writeInternalError(w, "saving emitters: "+err.Error())
			return
		}
	}

	gpios := make([]int, len(configs))
	for i, cfg := range configs {
		gpios[i] = cfg.GPIO
	}
	if err := s.emitters.Rebuild(gpios); err != nil {
		writeInternalError(w, "rebuilding emitter table: "+err.Error())
		return
	}

	s.logger.Info("emitter table replaced via API", "count", len(configs))
	writeJSON(w, http.StatusOK, map[string]any{
		"emitters": configs,
		"active":   s.emitters.List(),
	})
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regex-workbench/preset"
)

func (h *handler) listPresets(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.presets.List())
}

func (h *handler) savePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.presets.Save(req.Name)
	if err != nil {
		if errors.Is(err, preset.ErrNameTaken) {
			http.Error(w, "preset name already in use", http.StatusConflict)
			return
		}
		http.Error(w, "failed to save preset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(p)
}

func (h *handler) presetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		SelectedID string `json:"selectedId"`
		Dirty      bool   `json:"dirty"`
	}{h.presets.Selected(), h.presets.Dirty()})
}

func (h *handler) updatePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.presets.Update(id)
	if err != nil {
		if errors.Is(err, preset.ErrNotFound) {
			http.Error(w, "preset not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update preset", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

func (h *handler) deletePreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.presets.Delete(id); err != nil {
		if errors.Is(err, preset.ErrNotFound) {
			http.Error(w, "preset not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete preset", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) applyPreset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Discard bool `json:"discard"`
	}
	// Body is optional; no body means keep the dirty gate.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.presets.Apply(id, req.Discard); err != nil {
		switch {
		case errors.Is(err, preset.ErrNotFound):
			http.Error(w, "preset not found", http.StatusNotFound)
		case errors.Is(err, preset.ErrDirty):
			http.Error(w, "unsaved preset changes", http.StatusConflict)
		default:
			http.Error(w, "failed to apply preset", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

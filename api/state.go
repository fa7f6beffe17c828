package api

import (
	"encoding/json"
	"net/http"

	"regex-workbench/store"
)

type settingsBody struct {
	Enabled bool `json:"enabled"`
}

func (h *handler) getContext(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.store.Context())
}

func (h *handler) putContext(w http.ResponseWriter, r *http.Request) {
	var ctx store.Context
	if err := json.NewDecoder(r.Body).Decode(&ctx); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.SetContext(ctx); err != nil {
		http.Error(w, "failed to save context", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.store.Context())
}

func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settingsBody{Enabled: h.store.Enabled()})
}

func (h *handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.SetEnabled(req.Enabled); err != nil {
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settingsBody{Enabled: h.store.Enabled()})
}

func (h *handler) allowCharacter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Avatar  string `json:"avatar"`
		Allowed bool   `json:"allowed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Avatar == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.SetCharacterAllowed(req.Avatar, req.Allowed); err != nil {
		http.Error(w, "failed to update allow list", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) allowPreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		API     string `json:"api"`
		Name    string `json:"name"`
		Allowed bool   `json:"allowed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.API == "" || req.Name == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	key := store.PresetKey{API: req.API, Name: req.Name}
	if err := h.store.SetPresetAllowed(key, req.Allowed); err != nil {
		http.Error(w, "failed to update allow list", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.engine.Cache().Stats())
}

func (h *handler) clearCache(w http.ResponseWriter, r *http.Request) {
	h.engine.Cache().Clear()
	w.WriteHeader(http.StatusNoContent)
}

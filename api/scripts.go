package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regex-workbench/script"
	"regex-workbench/store"
)

type scriptListResponse struct {
	Scripts  []script.Script `json:"scripts"`
	Warnings []string        `json:"warnings"`
}

type scriptResponse struct {
	Script   script.Script `json:"script"`
	Warnings []string      `json:"warnings"`
}

// scopeParam resolves the {scope} URL segment. Writes a 400 and returns
// false when the value is not a known scope.
func (h *handler) scopeParam(w http.ResponseWriter, r *http.Request) (script.Scope, bool) {
	scope, ok := script.ParseScope(chi.URLParam(r, "scope"))
	if !ok {
		http.Error(w, "unknown scope", http.StatusBadRequest)
		return "", false
	}
	return scope, true
}

func (h *handler) listScripts(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	// allowed=1 narrows the list to what the allow-lists let execute.
	allowedOnly := r.URL.Query().Get("allowed") == "1"
	scripts := h.store.Scripts(scope, allowedOnly)
	if scripts == nil {
		scripts = []script.Script{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scripts)
}

func (h *handler) saveScripts(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	var scripts []script.Script
	if err := json.NewDecoder(r.Body).Decode(&scripts); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	warnings, err := h.store.SaveScripts(scope, scripts)
	if err != nil {
		h.storeError(w, err)
		return
	}
	saved := h.store.Scripts(scope, false)
	if saved == nil {
		saved = []script.Script{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scriptListResponse{
		Scripts:  saved,
		Warnings: nonNil(warnings),
	})
}

func (h *handler) createScript(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	var s script.Script
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	created, warnings, err := h.store.CreateScript(scope, s)
	if err != nil {
		h.storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(scriptResponse{Script: created, Warnings: nonNil(warnings)})
}

func (h *handler) updateScript(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var s script.Script
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	updated, warnings, err := h.store.UpdateScript(scope, id, s)
	if err != nil {
		h.storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scriptResponse{Script: updated, Warnings: nonNil(warnings)})
}

func (h *handler) deleteScript(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteScript(scope, chi.URLParam(r, "id")); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) importScripts(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	imported, warnings, err := h.store.Import(scope, payload)
	if err != nil {
		h.storeError(w, err)
		return
	}
	if imported == nil {
		imported = []script.Script{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scriptListResponse{
		Scripts:  imported,
		Warnings: nonNil(warnings),
	})
}

func (h *handler) exportScripts(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	scripts := h.store.Scripts(scope, false)
	if scripts == nil {
		scripts = []script.Script{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(scope)+`-scripts.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(scripts)
}

func (h *handler) moveScript(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   string `json:"id"`
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	from, ok := script.ParseScope(req.From)
	if !ok {
		http.Error(w, "unknown source scope", http.StatusBadRequest)
		return
	}
	to, ok := script.ParseScope(req.To)
	if !ok {
		http.Error(w, "unknown target scope", http.StatusBadRequest)
		return
	}
	if err := h.store.MoveScript(req.ID, from, to); err != nil {
		h.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// storeError maps store failures onto HTTP status codes.
func (h *handler) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "script not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNoCharacter):
		http.Error(w, "no active character", http.StatusConflict)
	case errors.Is(err, store.ErrNoPreset):
		http.Error(w, "no active preset", http.StatusConflict)
	case errors.Is(err, store.ErrUnknownScope):
		http.Error(w, "unknown scope", http.StatusBadRequest)
	case errors.Is(err, script.ErrUnnamed):
		http.Error(w, "script has no name", http.StatusBadRequest)
	case errors.Is(err, script.ErrBadPayload):
		http.Error(w, "invalid import payload", http.StatusBadRequest)
	default:
		http.Error(w, "failed to update scripts", http.StatusInternalServerError)
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

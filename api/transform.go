package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"regex-workbench/engine"
	"regex-workbench/script"
)

type transformRequest struct {
	Text              string `json:"text"`
	Placement         int    `json:"placement"`
	Markdown          bool   `json:"markdown"`
	Prompt            bool   `json:"prompt"`
	Edit              bool   `json:"edit"`
	Depth             *int   `json:"depth"`
	CharacterOverride string `json:"characterOverride"`
}

func (req transformRequest) options() engine.Options {
	return engine.Options{
		CharacterOverride: req.CharacterOverride,
		IsMarkdown:        req.Markdown,
		IsPrompt:          req.Prompt,
		IsEdit:            req.Edit,
		Depth:             req.Depth,
	}
}

type textResponse struct {
	Text string `json:"text"`
}

func (h *handler) transform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	out := h.engine.Apply(req.Text, script.Placement(req.Placement), req.options())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(textResponse{Text: out})
}

func (h *handler) transformTrace(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	out, steps := h.engine.ApplyTrace(req.Text, script.Placement(req.Placement), req.options())
	if steps == nil {
		steps = []engine.Step{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Text  string        `json:"text"`
		Steps []engine.Step `json:"steps"`
	}{out, steps})
}

// runScript executes a single stored script against ad-hoc text, bypassing
// placement and depth gates. Meant for the editor's try-it box.
func (h *handler) runScript(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scopeParam(w, r)
	if !ok {
		return
	}
	s, err := h.store.GetScript(scope, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, err)
		return
	}
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	out := h.engine.RunScript(&s, req.Text, req.options())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(textResponse{Text: out})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"regex-workbench/engine"
	"regex-workbench/preset"
	"regex-workbench/store"
)

func RegisterRoutes(st *store.Store, eng *engine.Engine, pm *preset.Manager, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := &handler{store: st, engine: eng, presets: pm, log: log}

	// Transform API
	r.Post("/api/transform", h.transform)
	r.Post("/api/transform/trace", h.transformTrace)

	// Scripts API
	r.Get("/api/scripts/{scope}", h.listScripts)
	r.Put("/api/scripts/{scope}", h.saveScripts)
	r.Post("/api/scripts/{scope}", h.createScript)
	r.Put("/api/scripts/{scope}/{id}", h.updateScript)
	r.Delete("/api/scripts/{scope}/{id}", h.deleteScript)
	r.Post("/api/scripts/{scope}/{id}/run", h.runScript)
	r.Post("/api/scripts/{scope}/import", h.importScripts)
	r.Get("/api/scripts/{scope}/export", h.exportScripts)
	r.Post("/api/scripts/move", h.moveScript)

	// Presets API
	r.Get("/api/presets", h.listPresets)
	r.Post("/api/presets", h.savePreset)
	r.Get("/api/presets/state", h.presetState)
	r.Put("/api/presets/{id}", h.updatePreset)
	r.Delete("/api/presets/{id}", h.deletePreset)
	r.Post("/api/presets/{id}/apply", h.applyPreset)

	// Active context, settings and allow lists
	r.Get("/api/context", h.getContext)
	r.Put("/api/context", h.putContext)
	r.Get("/api/settings", h.getSettings)
	r.Put("/api/settings", h.putSettings)
	r.Put("/api/allowlist/characters", h.allowCharacter)
	r.Put("/api/allowlist/presets", h.allowPreset)

	// Cache introspection
	r.Get("/api/cache/stats", h.cacheStats)
	r.Post("/api/cache/clear", h.clearCache)

	// Debug WebSocket
	r.Get("/api/debug/ws", h.handleWS)

	return r
}

type handler struct {
	store   *store.Store
	engine  *engine.Engine
	presets *preset.Manager
	log     *zap.Logger
}

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yeagerd/adminee-sub001/internal/tools"
)

// ToolHandler exposes the tool catalog for discovery and debugging.
type ToolHandler struct {
	registry *tools.Registry
}

// NewToolHandler creates a new tool catalog handler.
func NewToolHandler(registry *tools.Registry) *ToolHandler {
	return &ToolHandler{registry: registry}
}

// List handles GET /api/v1/tools
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": h.registry.List(),
	})
}

// Get handles GET /api/v1/tools/:id
func (h *ToolHandler) Get(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "id")

	meta, err := h.registry.Metadata(toolID)
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			writeError(w, http.StatusNotFound, "unknown tool: "+toolID)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load tool metadata")
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/middleware"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
)

// DraftHandler handles draft inspection endpoints. Mutation goes through
// the draft agent, not HTTP, except for discarding.
type DraftHandler struct {
	manager *drafts.Manager
	logger  *logger.Logger
}

// NewDraftHandler creates a new draft handler.
func NewDraftHandler(mgr *drafts.Manager, log *logger.Logger) *DraftHandler {
	return &DraftHandler{
		manager: mgr,
		logger:  log,
	}
}

// List handles GET /api/v1/threads/:id/drafts
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	live, err := h.manager.List(ctx, threadID)
	if err != nil {
		h.logger.Error("failed to list drafts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list drafts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"drafts":    live,
	})
}

// Clear handles DELETE /api/v1/threads/:id/drafts
func (h *DraftHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cleared, err := h.manager.ClearAll(ctx, threadID)
	if err != nil {
		h.logger.Error("failed to clear drafts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear drafts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"cleared":   cleared,
	})
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yeagerd/adminee-sub001/internal/middleware"
	"github.com/yeagerd/adminee-sub001/internal/model"
	"github.com/yeagerd/adminee-sub001/internal/service"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
)

// TurnHandler handles the turn entry point.
type TurnHandler struct {
	turnService *service.TurnService
	logger      *logger.Logger
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(turnSvc *service.TurnService, log *logger.Logger) *TurnHandler {
	return &TurnHandler{
		turnService: turnSvc,
		logger:      log,
	}
}

// Start handles POST /api/v1/threads/{id}/messages and
// POST /api/v1/messages (which creates a fresh thread).
func (h *TurnHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	threadID := chi.URLParam(r, "id")

	if threadID != "" {
		if err := middleware.ValidateThreadID(threadID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.turnService.StartTurn(ctx, threadID, userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrThreadNotFound):
			writeError(w, http.StatusNotFound, "thread not found")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
		default:
			h.logger.Error("turn failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/services"
	"github.com/lunarspired/portfolio-chat/services/session"
	"github.com/lunarspired/portfolio-chat/utils"
	"go.uber.org/zap"
)

// HistoryResponse is the body returned by GET /chat-history
type HistoryResponse struct {
	Messages []models.StoredMessage `json:"messages"`
}

// HistoryService lists stored chat messages
type HistoryService interface {
	Enabled() bool
	ListMessages(ctx context.Context, sessionID *uuid.UUID, limit int) ([]models.StoredMessage, error)
}

// HistoryHandler serves the diagnostic message listing
type HistoryHandler struct {
	service HistoryService
	logger  *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(service HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /chat-history?limit=&session_id=
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		HandleServiceError(w, services.ErrStoreNotConfigured, h.logger)
		return
	}

	query := r.URL.Query()
	limit := utils.ParseBoundedInt(query.Get("limit"), session.DefaultListLimit, 1, session.MaxListLimit)

	var sessionID *uuid.UUID
	if raw := query.Get("session_id"); raw != "" {
		id, err := utils.ParseUUID(raw)
		if err != nil {
			HandleServiceError(w, services.ErrInvalidSession, h.logger)
			return
		}
		sessionID = &id
	}

	messages, err := h.service.ListMessages(r.Context(), sessionID, limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, HistoryResponse{Messages: messages}); err != nil {
		h.logger.Error("failed to write history response", zap.Error(err))
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/lunarspired/portfolio-chat/middleware"
	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/services"
	"github.com/lunarspired/portfolio-chat/services/chat"
	"github.com/lunarspired/portfolio-chat/services/retrieval"
	"github.com/lunarspired/portfolio-chat/utils"
	"go.uber.org/zap"
)

// maxChatBodyBytes bounds the request body read by HandleChat
const maxChatBodyBytes = 64 << 10

// ChatRequest is the body of POST /chat.
// K is kept raw so that malformed values fall back to the default instead of failing the request.
type ChatRequest struct {
	Message string          `json:"message" validate:"required,notblank"`
	K       json.RawMessage `json:"k,omitempty"`
}

// ChatResponse is the body returned by POST /chat
type ChatResponse struct {
	Response string                `json:"response"`
	Source   models.ResponseSource `json:"source"`
	Chunks   []models.ChunkMatch   `json:"chunks,omitzero"`
}

// ChatService defines the orchestrator used by the handler
type ChatService interface {
	Chat(ctx context.Context, req chat.Request) (*chat.Result, error)
}

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimw.GetReqID(ctx)

	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		h.logger.Debug("invalid chat request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, services.ErrInvalidInput.Wrap(err), h.logger)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Chat(ctx, chat.Request{
		Message:   req.Message,
		K:         ResolveK(req.K),
		CallerID:  middleware.GetCallerIDFromContext(ctx),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.logger.Error("chat request failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, ChatResponse{
		Response: result.Response,
		Source:   result.Source,
		Chunks:   result.Chunks,
	}); err != nil {
		h.logger.Error("failed to write chat response", zap.Error(err))
	}
}

// ResolveK maps the raw "k" field to a retrieval depth.
// Anything other than a whole number in [MinK, MaxK] yields DefaultK,
// so 0, 21, 2.5, "5" and "abc" all resolve to the default.
func ResolveK(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || strings.EqualFold(string(raw), "null") {
		return retrieval.DefaultK
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return retrieval.DefaultK
	}
	if f != math.Trunc(f) || f < retrieval.MinK || f > retrieval.MaxK {
		return retrieval.DefaultK
	}
	return int(f)
}

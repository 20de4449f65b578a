package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ndmlinh/campusmeet-gateway/internal/discovery"
	"github.com/ndmlinh/campusmeet-gateway/internal/gateway"
	"github.com/ndmlinh/campusmeet-gateway/internal/models"
	pkgErrors "github.com/ndmlinh/campusmeet-gateway/pkg/errors"
	"github.com/ndmlinh/campusmeet-gateway/pkg/logger"
)

// Handler is the REST glue around the gateway: the CRUD backend calls it
// to fan out message events over live connections.
type Handler struct {
	mgr       *gateway.Manager
	queue     *discovery.Queue
	logger    logger.Logger
	validator *validator.Validate
}

func NewHandler(mgr *gateway.Manager, queue *discovery.Queue, logger logger.Logger) *Handler {
	return &Handler{
		mgr:       mgr,
		queue:     queue,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.HealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events/message-created", h.MessageCreated)
		r.Post("/events/message-deleted", h.MessageDeleted)
		r.Get("/gateway/stats", h.Stats)
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "campusmeet-gateway",
	})
}

type messageCreatedRequest struct {
	Message json.RawMessage `json:"message" validate:"required"`
}

// MessageCreated broadcasts a MESSAGE_CREATE dispatch for a message that
// was just persisted through the REST API.
func (h *Handler) MessageCreated(w http.ResponseWriter, r *http.Request) {
	var req messageCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	p, err := gateway.NewPacket(models.PacketMessageCreate, models.MessageCreateData{Message: req.Message})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to build packet", err)
		return
	}

	h.mgr.Broadcast(r.Context(), p)
	h.respondJSON(w, http.StatusAccepted, map[string]any{"delivered_to": h.mgr.SessionCount()})
}

type messageDeletedRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	ChannelID string `json:"channel_id" validate:"required"`
}

func (h *Handler) MessageDeleted(w http.ResponseWriter, r *http.Request) {
	var req messageDeletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	p, err := gateway.NewPacket(models.PacketMessageDelete, models.MessageDeleteData{
		MessageID: req.MessageID,
		ChannelID: req.ChannelID,
	})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to build packet", err)
		return
	}

	h.mgr.Broadcast(r.Context(), p)
	h.respondJSON(w, http.StatusAccepted, map[string]any{"delivered_to": h.mgr.SessionCount()})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"authenticated_connections": h.mgr.SessionCount(),
		"discovery_queue_length":    h.queue.Len(),
	})
}

// Helper functions

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorf(context.Background(), "Failed to encode JSON response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		h.logger.Debugf(context.Background(), "Error response: %s: %v", message, err)
	}

	h.respondJSON(w, statusCode, pkgErrors.NewHTTPError(statusCode, message))
}

// Package chatapi exposes the dialogue orchestrator and the session history
// store over the JSON HTTP API.
package chatapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nauhq/nau-assist-go/internal/dialog"
	domerrors "github.com/nauhq/nau-assist-go/internal/errors"
	"github.com/nauhq/nau-assist-go/internal/history"
	"github.com/nauhq/nau-assist-go/internal/logger"
	"github.com/nauhq/nau-assist-go/internal/metrics"
)

// Handler holds the dependencies shared by the API endpoints.
type Handler struct {
	orchestrator *dialog.Orchestrator
	store        history.Store
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(orch *dialog.Orchestrator, store history.Store, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		orchestrator: orch,
		store:        store,
		metrics:      m,
		logger:       log.WithModule("chatapi"),
	}
}

// RegisterRoutes mounts the API endpoints on the supplied router group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/chat", h.PostChat)
	api.GET("/chats", h.ListChats)
	api.POST("/chats", h.CreateChat)
	api.GET("/chats/:id", h.GetChat)
	api.DELETE("/chats/:id", h.DeleteChat)
}

type chatRequest struct {
	Query            string `json:"query"`
	ChatID           string `json:"chat_id"`
	FollowUpTo       string `json:"follow_up_to"`
	OriginalQuestion string `json:"original_question"`
}

type chatResponse struct {
	ChatID           string   `json:"chat_id"`
	Answer           string   `json:"answer"`
	Sources          []string `json:"sources"`
	FollowUp         string   `json:"follow_up,omitempty"`
	FollowUpID       string   `json:"follow_up_id,omitempty"`
	OriginalQuestion string   `json:"original_question,omitempty"`
}

// PostChat handles one dialogue turn.
func (h *Handler) PostChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordHTTPError("bad_request", "/api/chat")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}
	if req.Query == "" {
		h.metrics.RecordHTTPError("bad_request", "/api/chat")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	result, err := h.orchestrator.HandleTurn(c.Request.Context(), dialog.TurnRequest{
		ChatID:           req.ChatID,
		Query:            req.Query,
		FollowUpTo:       req.FollowUpTo,
		OriginalQuestion: req.OriginalQuestion,
	})
	if err != nil {
		if errors.Is(err, domerrors.ErrInvalidInput) {
			h.metrics.RecordHTTPError("bad_request", "/api/chat")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
			return
		}
		h.logger.WithError(err).Error("Failed to handle chat turn")
		h.metrics.RecordHTTPError("internal", "/api/chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		ChatID:           result.ChatID,
		Answer:           result.Answer,
		Sources:          result.Sources,
		FollowUp:         result.FollowUp,
		FollowUpID:       result.FollowUpID,
		OriginalQuestion: result.OriginalQuestion,
	})
}

// ListChats returns summaries of all stored sessions.
func (h *Handler) ListChats(c *gin.Context) {
	summaries, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list chats")
		h.metrics.RecordHTTPError("internal", "/api/chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": summaries})
}

// CreateChat creates a new empty session and returns its identifier.
func (h *Handler) CreateChat(c *gin.Context) {
	chat, err := h.store.Create(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to create chat")
		h.metrics.RecordHTTPError("internal", "/api/chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat_id": chat.ID})
}

// GetChat returns the full turn history of one session.
func (h *Handler) GetChat(c *gin.Context) {
	chat, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, history.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get chat")
		h.metrics.RecordHTTPError("internal", "/api/chats/:id")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteChat removes one session and its turns.
func (h *Handler) DeleteChat(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, history.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to delete chat")
		h.metrics.RecordHTTPError("internal", "/api/chats/:id")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"health-concierge/backend/internal/chat"
	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
)

// ChatHandler serves the conversational endpoints
type ChatHandler struct {
	service *chat.Service
}

// NewChatHandler creates the chat handler
func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// RegisterRoutes mounts the chat routes on the router group
func (h *ChatHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Send)
	r.GET("/chat/:session_id/history", h.History)
	r.DELETE("/chat/:session_id", h.ClearSession)
	r.GET("/sessions", h.Sessions)
	r.GET("/specialists", h.Specialists)
	r.POST("/progress/daily-report", h.DailyReport)
}

// Send handles POST /chat
func (h *ChatHandler) Send(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid chat request: " + err.Error()))
		c.Abort()
		return
	}

	resp, err := h.service.Send(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	logger.FromContext(c).Info("Chat turn completed",
		"session_id", resp.SessionID,
		"specialist", resp.SpecialistName,
		"plan_created", resp.PlanCreated,
	)
	c.JSON(http.StatusOK, resp)
}

// History handles GET /chat/:session_id/history
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Param("session_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.service.History(c.Request.Context(), sessionID, limit, offset)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   messages,
		"limit":      limit,
		"offset":     offset,
	})
}

// ClearSession handles DELETE /chat/:session_id
func (h *ChatHandler) ClearSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.service.ClearSession(c.Request.Context(), sessionID); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session deleted successfully"})
}

// Sessions handles GET /sessions
func (h *ChatHandler) Sessions(c *gin.Context) {
	sessions, err := h.service.Sessions(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Specialists handles GET /specialists
func (h *ChatHandler) Specialists(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Specialists())
}

// DailyReport handles POST /progress/daily-report
func (h *ChatHandler) DailyReport(c *gin.Context) {
	var req chat.DailyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid report request: " + err.Error()))
		c.Abort()
		return
	}

	resp, err := h.service.DailyReport(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, resp)
}

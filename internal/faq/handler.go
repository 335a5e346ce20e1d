package faq

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gymtrack/internal/auth"
)

type Handler struct {
	responder *Responder
}

func NewHandler(responder *Responder) *Handler {
	return &Handler{responder: responder}
}

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := Actor{}
	if id, ok := auth.GetUserID(c); ok {
		actor.ID = id
	}
	if role, ok := auth.GetRole(c); ok {
		actor.Role = role
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": h.responder.Respond(c.Request.Context(), actor, req.Message),
	})
}

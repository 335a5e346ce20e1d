package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Handler struct {
	repo *Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{repo: NewRepository(db)}
}

// ListEvents serves the admin audit trail with optional
// action/severity/days filters, newest first.
func (h *Handler) ListEvents(c *gin.Context) {
	f := Filter{
		Action:   Action(c.Query("action")),
		Severity: Severity(c.Query("severity")),
	}

	if daysStr := c.DefaultQuery("days", "7"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		since := time.Now().AddDate(0, 0, -days)
		f.Since = &since
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		f.Limit = limit
	}

	events, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit trail"})
		return
	}

	c.JSON(http.StatusOK, events)
}

package plan

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymtrack/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{service: NewService(NewRepository(db))}
}

// ListPublic returns the active catalog the homepage and FAQ bot show:
// membership plans and walk-in passes, cheapest first.
func (h *Handler) ListPublic(c *gin.Context) {
	ctx := c.Request.Context()

	memberships, err := h.service.ListActive(ctx, KindMembership)
	if err != nil {
		api.Fail(c, err)
		return
	}

	walkins, err := h.service.ListActive(ctx, KindWalkIn)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"membership_plans": memberships,
		"walk_in_passes":   walkins,
	})
}

func (h *Handler) ListAll(c *gin.Context) {
	plans, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := api.ValidateStruct(req); errs != nil {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	p, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := api.ValidateStruct(req); errs != nil {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) Deactivate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "plan deactivated"})
}

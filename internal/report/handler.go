package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymtrack/internal/analytics"
	"gymtrack/internal/api"
	"gymtrack/internal/audit"
	"gymtrack/internal/membership"
	"gymtrack/internal/payment"
	"gymtrack/internal/user"
)

type Handler struct {
	service   Service
	analytics analytics.Service
}

func NewHandler(db *sqlx.DB, auditSink *audit.Service) *Handler {
	membershipRepo := membership.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	analyticsService := analytics.NewService(analytics.NewRepository(db), membershipRepo, paymentRepo, auditSink)

	return &Handler{
		service:   NewService(paymentRepo, membershipRepo, user.NewRepository(db), analyticsService),
		analytics: analyticsService,
	}
}

func (h *Handler) AdminDashboard(c *gin.Context) {
	dashboard, err := h.service.AdminDashboard(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) StaffDashboard(c *gin.Context) {
	dashboard, err := h.service.StaffDashboard(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) ReportsOverview(c *gin.Context) {
	overview, err := h.service.ReportsOverview(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GenerateSnapshot regenerates the snapshot for one date
// (YYYY-MM-DD). Safe to repeat: the rollup upserts per date.
func (h *Handler) GenerateSnapshot(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	snapshot, err := h.analytics.GenerateReport(c.Request.Context(), date)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GenerateSnapshotRange backfills snapshots for an inclusive date
// window, one row per day.
func (h *Handler) GenerateSnapshotRange(c *gin.Context) {
	var req struct {
		From string `json:"from" binding:"required"`
		To   string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}

	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, want YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, want YYYY-MM-DD"})
		return
	}

	snapshots, err := h.analytics.GenerateRange(c.Request.Context(), from, to)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshots)
}

func (h *Handler) ListSnapshots(c *gin.Context) {
	limit := 30
	if limitStr := c.Query("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	snapshots, err := h.analytics.ListRecent(c.Request.Context(), limit)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshots)
}

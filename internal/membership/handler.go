package membership

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymtrack/internal/api"
	"gymtrack/internal/audit"
	"gymtrack/internal/auth"
	"gymtrack/internal/config"
	"gymtrack/internal/logger"
	"gymtrack/internal/payment"
	"gymtrack/internal/plan"
	"gymtrack/internal/qr"
)

type Handler struct {
	service Service
	cfg     *config.Config
}

func NewHandler(db *sqlx.DB, auditSink *audit.Service, cfg *config.Config) *Handler {
	return &Handler{
		service: NewService(NewRepository(db), plan.NewRepository(db), payment.NewRepository(db), auditSink),
		cfg:     cfg,
	}
}

type SubscribeResponse struct {
	Membership *Membership      `json:"membership"`
	Payment    *payment.Payment `json:"payment"`
	DaysLeft   int              `json:"days_left"`
	PaymentQR  string           `json:"payment_qr,omitempty"`
}

func (h *Handler) Subscribe(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, pay, err := h.service.Subscribe(c.Request.Context(), memberID, req, c.ClientIP())
	if err != nil {
		api.Fail(c, err)
		return
	}

	resp := SubscribeResponse{
		Membership: m,
		Payment:    pay,
		DaysLeft:   DaysRemaining(m, time.Now()),
	}

	if pay.Method == payment.MethodGCash {
		ref := ""
		if pay.ReferenceNo != nil {
			ref = *pay.ReferenceNo
		}
		dataURI, err := qr.DataURI(qr.GCashPayload{
			AccountName:    h.cfg.GCashAccountName,
			AccountNumber:  h.cfg.GCashAccountNumber,
			AmountCentavos: pay.AmountCentavos,
			ReferenceNo:    ref,
		})
		if err != nil {
			logger.Errorf("Failed to render payment QR: %v", err)
		} else {
			resp.PaymentQR = dataURI
		}
	}

	c.JSON(http.StatusCreated, resp)
}

type CurrentMembershipResponse struct {
	Membership     *Membership `json:"membership"`
	ResolvedStatus Status      `json:"resolved_status"`
	DaysRemaining  int         `json:"days_remaining"`
}

// Current reports the member's own membership with its resolved
// status; the stored column is never returned as the answer.
func (h *Handler) Current(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	m, err := h.service.Current(c.Request.Context(), memberID)
	if err != nil {
		api.Fail(c, err)
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, CurrentMembershipResponse{
		Membership:     m,
		ResolvedStatus: ResolveStatus(m, now),
		DaysRemaining:  DaysRemaining(m, now),
	})
}

func (h *Handler) MyHistory(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.respondHistory(c, memberID)
}

// MemberHistory serves a member's membership history to staff.
func (h *Handler) MemberHistory(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	h.respondHistory(c, memberID)
}

func (h *Handler) respondHistory(c *gin.Context, memberID int) {
	memberships, err := h.service.History(c.Request.Context(), memberID)
	if err != nil {
		api.Fail(c, err)
		return
	}

	now := time.Now()
	type entry struct {
		Membership
		ResolvedStatus Status `json:"resolved_status"`
	}
	entries := make([]entry, 0, len(memberships))
	for _, m := range memberships {
		entries = append(entries, entry{Membership: m, ResolvedStatus: ResolveStatus(&m, now)})
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handler) Cancel(c *gin.Context) {
	actorID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	membershipID, err := strconv.Atoi(c.Param("membershipID"))
	if err != nil || membershipID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid membership id"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), actorID, membershipID, c.ClientIP()); err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "membership cancelled"})
}

// Expiring lists memberships ending within the window (default 7
// days), soonest first, for front-desk follow-up.
func (h *Handler) Expiring(c *gin.Context) {
	windowDays := 7
	if windowStr := c.Query("days"); windowStr != "" {
		n, err := strconv.Atoi(windowStr)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return
		}
		windowDays = n
	}

	memberships, err := h.service.ExpiringWithin(c.Request.Context(), windowDays, time.Now())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, memberships)
}

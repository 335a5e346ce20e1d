package payment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"gymtrack/internal/api"
	"gymtrack/internal/audit"
	"gymtrack/internal/auth"
	"gymtrack/internal/config"
	"gymtrack/internal/logger"
	"gymtrack/internal/plan"
	"gymtrack/internal/qr"
)

type Handler struct {
	service Service
	cfg     *config.Config
}

func NewHandler(db *sqlx.DB, redisClient *redis.Client, auditSink *audit.Service, cfg *config.Config) *Handler {
	pending := NewPendingStore(redisClient, cfg.PendingSaleTTL)
	return &Handler{
		service: NewService(NewRepository(db), plan.NewRepository(db), pending, auditSink),
		cfg:     cfg,
	}
}

type StageWalkInResponse struct {
	Token     string       `json:"token"`
	Sale      *PendingSale `json:"sale"`
	ExpiresIn string       `json:"expires_in"`
	PaymentQR string       `json:"payment_qr,omitempty"`
}

// StageWalkIn holds a walk-in sale for confirmation. GCash sales get a
// payment QR to show the customer while the sale is pending.
func (h *Handler) StageWalkIn(c *gin.Context) {
	staffID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req StageWalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, sale, err := h.service.StageWalkIn(c.Request.Context(), staffID, req)
	if err != nil {
		api.Fail(c, err)
		return
	}

	resp := StageWalkInResponse{
		Token:     token,
		Sale:      sale,
		ExpiresIn: h.cfg.PendingSaleTTL.String(),
	}

	if sale.Method == MethodGCash {
		ref := ""
		if sale.ReferenceNo != nil {
			ref = *sale.ReferenceNo
		}
		dataURI, err := qr.DataURI(qr.GCashPayload{
			AccountName:    h.cfg.GCashAccountName,
			AccountNumber:  h.cfg.GCashAccountNumber,
			AmountCentavos: sale.AmountCentavos,
			ReferenceNo:    ref,
		})
		if err != nil {
			logger.Errorf("Failed to render payment QR: %v", err)
		} else {
			resp.PaymentQR = dataURI
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ConfirmWalkIn(c *gin.Context) {
	staffID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token := c.Param("token")
	w, err := h.service.ConfirmWalkIn(c.Request.Context(), staffID, token, c.ClientIP())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, w)
}

func (h *Handler) CancelWalkIn(c *gin.Context) {
	token := c.Param("token")
	if err := h.service.CancelWalkIn(c.Request.Context(), token); err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "transaction cancelled"})
}

func (h *Handler) RecentWalkIns(c *gin.Context) {
	walkins, err := h.service.RecentWalkIns(c.Request.Context(), 10)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, walkins)
}

func (h *Handler) RecordMemberPayment(c *gin.Context) {
	staffID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req MemberPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.RecordMemberPayment(c.Request.Context(), staffID, req, c.ClientIP())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// MemberPayments lists one member's payment history for staff.
func (h *Handler) MemberPayments(c *gin.Context) {
	memberID, err := strconv.Atoi(c.Param("memberID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return
	}

	payments, err := h.service.ListByMember(c.Request.Context(), memberID, 20)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// MyPayments lists the calling member's own payment history.
func (h *Handler) MyPayments(c *gin.Context) {
	memberID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	payments, err := h.service.ListByMember(c.Request.Context(), memberID, 10)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

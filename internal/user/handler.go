package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymtrack/internal/api"
	"gymtrack/internal/audit"
	"gymtrack/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(db *sqlx.DB, auditSink *audit.Service, jwtSecret string) *Handler {
	return &Handler{
		service: NewService(NewRepository(db), auditSink, jwtSecret),
	}
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, accessToken, refreshToken, err := h.service.Register(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req, c.ClientIP())
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.service.Logout(c.Request.Context(), userID, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, u, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"user":         u,
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// ListMembers serves the staff member roster with optional free-text
// search over name, email and mobile number.
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.service.ListMembers(c.Request.Context(), c.Query("search"))
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

func (h *Handler) CreateStaff(c *gin.Context) {
	actorID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.CreateStaff(c.Request.Context(), actorID, req, c.ClientIP())
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, u)
}

// MemberIDParam parses the :memberID path parameter.
func MemberIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("memberID"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid member id"})
		return 0, false
	}
	return id, true
}

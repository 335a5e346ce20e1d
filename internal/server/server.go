package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"gymtrack/internal/analytics"
	"gymtrack/internal/audit"
	"gymtrack/internal/auth"
	"gymtrack/internal/config"
	"gymtrack/internal/faq"
	"gymtrack/internal/membership"
	"gymtrack/internal/payment"
	"gymtrack/internal/plan"
	"gymtrack/internal/report"
	"gymtrack/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
}

func New(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config, auditSink *audit.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userHandler := user.NewHandler(db, auditSink, cfg.JWTSecret)
	planHandler := plan.NewHandler(db)
	membershipHandler := membership.NewHandler(db, auditSink, cfg)
	paymentHandler := payment.NewHandler(db, redisClient, auditSink, cfg)
	reportHandler := report.NewHandler(db, auditSink)
	auditHandler := audit.NewHandler(db)

	membershipRepo := membership.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	planService := plan.NewService(plan.NewRepository(db))
	membershipService := membership.NewService(membershipRepo, plan.NewRepository(db), paymentRepo, auditSink)
	analyticsService := analytics.NewService(analytics.NewRepository(db), membershipRepo, paymentRepo, auditSink)
	reportService := report.NewService(paymentRepo, membershipRepo, user.NewRepository(db), analyticsService)
	faqHandler := faq.NewHandler(faq.New(planService, membershipService, reportService))

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	router.GET("/plans", planHandler.ListPublic)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.POST("/logout", userHandler.Logout)
		protected.GET("/me/membership", membershipHandler.Current)
		protected.GET("/me/memberships", membershipHandler.MyHistory)
		protected.GET("/me/payments", paymentHandler.MyPayments)
		protected.POST("/faq", faqHandler.Ask)

		memberOnly := protected.Group("/")
		memberOnly.Use(auth.RequireRole(auditSink, auth.RoleMember))
		{
			memberOnly.POST("/subscribe", membershipHandler.Subscribe)
		}
	}

	staffMiddleware := auth.RequireRole(auditSink, auth.RoleStaff, auth.RoleAdmin)
	staff := router.Group("/staff")
	staff.Use(authMiddleware, staffMiddleware)
	{
		staff.GET("/dashboard", reportHandler.StaffDashboard)
		staff.GET("/members", userHandler.ListMembers)
		staff.GET("/members/:memberID/memberships", membershipHandler.MemberHistory)
		staff.GET("/members/:memberID/payments", paymentHandler.MemberPayments)
		staff.POST("/memberships/:membershipID/cancel", membershipHandler.Cancel)
		staff.GET("/memberships/expiring", membershipHandler.Expiring)
		staff.POST("/walkins", paymentHandler.StageWalkIn)
		staff.POST("/walkins/:token/confirm", paymentHandler.ConfirmWalkIn)
		staff.POST("/walkins/:token/cancel", paymentHandler.CancelWalkIn)
		staff.GET("/walkins/recent", paymentHandler.RecentWalkIns)
		staff.POST("/payments", paymentHandler.RecordMemberPayment)
	}

	adminMiddleware := auth.RequireRole(auditSink, auth.RoleAdmin)
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/dashboard", reportHandler.AdminDashboard)
		admin.GET("/plans", planHandler.ListAll)
		admin.POST("/plans", planHandler.Create)
		admin.PUT("/plans/:planID", planHandler.Update)
		admin.POST("/plans/:planID/deactivate", planHandler.Deactivate)
		admin.POST("/staff", userHandler.CreateStaff)
		admin.GET("/reports", reportHandler.ReportsOverview)
		admin.GET("/reports/snapshots", reportHandler.ListSnapshots)
		admin.POST("/reports/:date", reportHandler.GenerateSnapshot)
		admin.POST("/reports/range", reportHandler.GenerateSnapshotRange)
		admin.GET("/audit", auditHandler.ListEvents)
	}

	registerSystemRoutes(router, db)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

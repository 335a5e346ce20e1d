package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymtrack/internal/api"
)

func registerSystemRoutes(router *gin.Engine, db *sqlx.DB) {
	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "degraded"})
			return
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"linkcraft/internal/bootstrap"
	"linkcraft/internal/transport/http/response"
)

type HealthHandler struct {
	app *bootstrap.App
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports process uptime and the reachability of each backing
// dependency without failing the endpoint itself.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{
		"mysql":    "ok",
		"redis":    "ok",
		"rabbitmq": "ok",
	}

	if sqlDB, err := h.app.MySQL.DB(); err != nil {
		deps["mysql"] = err.Error()
	} else if err := sqlDB.PingContext(ctx); err != nil {
		deps["mysql"] = err.Error()
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		deps["redis"] = err.Error()
	}
	if h.app.MQConn == nil || h.app.MQConn.IsClosed() {
		deps["rabbitmq"] = "connection closed"
	}

	response.OK(c, gin.H{
		"status":       "up",
		"uptime":       time.Since(h.app.StartedAt).String(),
		"dependencies": deps,
	})
}

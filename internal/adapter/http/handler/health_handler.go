package handler

import (
	"time"

	"pix-gateway/internal/adapter/http/dto"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ServiceName    = "Gateway PIX"
	ServiceVersion = "3.0"
)

// HealthCheck handles GET /health. It always answers 200; a failing
// dependency only flips status to "degraded".
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		deps := make(map[string]string, len(checkers))
		status := "healthy"

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = "unhealthy"
				status = "degraded"
				continue
			}
			deps[checker.Name()] = "healthy"
		}

		response.OK(c, dto.HealthResponse{
			Status:       status,
			Service:      ServiceName,
			Version:      ServiceVersion,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
			Dependencies: deps,
		})
	}
}

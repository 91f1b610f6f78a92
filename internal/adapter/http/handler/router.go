package handler

import (
	"pix-gateway/internal/adapter/http/middleware"
	"pix-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultMaxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	CredentialSvc  ports.CredentialService
	ChargeSvc      ports.ChargeService
	CallbackSvc    ports.CallbackService
	RateLimitStore middleware.Limiter // nil = rate limiting disabled
	ChargeLimit    middleware.RateLimitRule
	KeyIssueLimit  middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	rl := func(group string, rule middleware.RateLimitRule) gin.HandlerFunc {
		if deps.RateLimitStore == nil || rule.Limit <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	credentialHandler := NewCredentialHandler(deps.CredentialSvc)
	r.POST("/admin/create_api_key", rl(middleware.GroupKeyIssue, deps.KeyIssueLimit), credentialHandler.CreateAPIKey)

	callbackHandler := NewCallbackHandler(deps.CallbackSvc)
	r.POST("/callback", callbackHandler.HandleCallback)

	// Bearer-authenticated charge API
	apiKeyAuth := middleware.APIKeyAuth(deps.CredentialSvc, deps.Logger)
	chargeHandler := NewChargeHandler(deps.ChargeSvc)
	charges := r.Group("/api/v1/charges", apiKeyAuth)
	{
		charges.POST("", rl(middleware.GroupCharges, deps.ChargeLimit), chargeHandler.CreateCharge)
		charges.GET("/:id", chargeHandler.GetCharge)
	}

	return r
}

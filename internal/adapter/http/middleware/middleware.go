package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pix-gateway/internal/core/domain"
	"pix-gateway/internal/core/ports"
	"pix-gateway/pkg/apperror"
	"pix-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"

	bearerPrefix = "Bearer "

	// Context keys
	CtxCredential = "api_credential"
	CtxKeyID      = "key_id"
)

// RequestID tags every request with a correlation id, reusing the caller's
// X-Request-ID when it is a valid UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// APIKeyAuth resolves the Bearer secret to an active credential and stores it
// in the gin context. It runs before any body binding.
func APIKeyAuth(credSvc ports.CredentialService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret, ok := bearerToken(c.GetHeader(HeaderAuthorization))
		if !ok {
			response.Error(c, apperror.ErrMissingAPIKey())
			c.Abort()
			return
		}

		cred, err := credSvc.Validate(c.Request.Context(), secret)
		if err != nil {
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.HTTPStatus >= http.StatusInternalServerError {
				log.Error().Err(err).Msg("api key validation failed")
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxCredential, cred)
		c.Set(CtxKeyID, cred.KeyID)
		c.Next()
	}
}

// CredentialFrom returns the credential set by APIKeyAuth, or nil.
func CredentialFrom(c *gin.Context) *domain.APICredential {
	v, ok := c.Get(CtxCredential)
	if !ok {
		return nil
	}
	cred, _ := v.(*domain.APICredential)
	return cred
}

func bearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// MaxBodySize limits the request body. Reads past the limit fail, which
// surfaces as a bind error in the handler.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetString(response.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("key_id", c.GetString(CtxKeyID)).
			Msg("http request")
	}
}

// Recovery turns a panic into a SYS_001 response.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.ErrorResponse{
					Error:     "Internal server error",
					ErrorCode: "SYS_001",
					RequestID: response.RequestID(c),
				})
			}
		}()
		c.Next()
	}
}

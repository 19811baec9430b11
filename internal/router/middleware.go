package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/edupass/internal/authz"
	"github.com/edupass/internal/cache"
	"github.com/edupass/internal/config"
	"github.com/edupass/internal/http/response"
	"github.com/edupass/internal/logger"
	"github.com/edupass/internal/repository"
	"github.com/edupass/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

const accountIDContextKey = "account_id"
const accountEmailContextKey = "account_email"
const accountRoleContextKey = "account_role"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// AccountJWTAuthMiddleware 账号 JWT 鉴权中间件
// 优先走 Redis 鉴权快照，未命中再回源数据库并回填缓存
func AccountJWTAuthMiddleware(secretKey string, accountRepo repository.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			response.Unauthorized(c, "jwt secret is not configured")
			c.Abort()
			return
		}
		if accountRepo == nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "authorization header malformed")
			c.Abort()
			return
		}

		tokenString := parts[1]
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		claims := &service.AccountClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid || claims.AccountID == 0 {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		if cached, hit, cacheErr := cache.GetAccountAuthState(c.Request.Context(), claims.AccountID); cacheErr == nil && hit && cached != nil {
			if !cached.IsActive {
				response.Unauthorized(c, "account is disabled")
				c.Abort()
				return
			}
			if claims.TokenVersion != cached.TokenVersion || !isIssuedAfterInvalidBeforeUnix(claims.IssuedAt, cached.TokenInvalidBefore) {
				response.Unauthorized(c, "token has been revoked")
				c.Abort()
				return
			}
			c.Set(accountIDContextKey, claims.AccountID)
			c.Set(accountEmailContextKey, claims.Email)
			c.Set(accountRoleContextKey, cached.Role)
			c.Next()
			return
		}

		account, err := accountRepo.GetByID(claims.AccountID)
		if err != nil || account == nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		if !account.IsActive {
			response.Unauthorized(c, "account is disabled")
			c.Abort()
			return
		}
		if claims.TokenVersion != account.TokenVersion || !isIssuedAfterInvalidBefore(claims.IssuedAt, account.TokenInvalidBefore) {
			response.Unauthorized(c, "token has been revoked")
			c.Abort()
			return
		}
		_ = cache.SetAccountAuthState(c.Request.Context(), cache.BuildAccountAuthState(account))

		c.Set(accountIDContextKey, claims.AccountID)
		c.Set(accountEmailContextKey, account.Email)
		c.Set(accountRoleContextKey, account.Role)
		c.Next()
	}
}

// RBACMiddleware 基于角色的路由鉴权中间件
// 先按账号角色判定，角色未命中时再查账号直连策略
func RBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("rbac_service_unavailable")
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		role, _ := c.Get(accountRoleContextKey)
		roleName, _ := role.(string)
		accountID := getContextAccountID(c)
		if roleName == "" || accountID == 0 {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceRole(roleName, resource, c.Request.Method)
		if err == nil && !allowed {
			allowed, err = authzService.EnforceAccount(accountID, resource, c.Request.Method)
		}
		if err != nil {
			logger.Errorw("rbac_enforce_failed",
				"account_id", accountID,
				"role", roleName,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("rbac_permission_denied",
				"account_id", accountID,
				"role", roleName,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "forbidden")
			c.Abort()
			return
		}

		c.Next()
	}
}

func getContextAccountID(c *gin.Context) uint {
	value, ok := c.Get(accountIDContextKey)
	if !ok {
		return 0
	}
	switch v := value.(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

func isIssuedAfterInvalidBefore(issuedAt *jwt.NumericDate, invalidBefore *time.Time) bool {
	if invalidBefore == nil {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBefore.Unix()
}

func isIssuedAfterInvalidBeforeUnix(issuedAt *jwt.NumericDate, invalidBeforeUnix int64) bool {
	if invalidBeforeUnix <= 0 {
		return true
	}
	if issuedAt == nil {
		return false
	}
	return issuedAt.Time.Unix() >= invalidBeforeUnix
}

package router

import (
	"fmt"
	"strings"

	"github.com/edupass/internal/cache"
	"github.com/edupass/internal/config"
	adminhandlers "github.com/edupass/internal/http/handlers/admin"
	publichandlers "github.com/edupass/internal/http/handlers/public"
	"github.com/edupass/internal/logger"
	"github.com/edupass/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ep"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	sendCodeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:send_code", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/captcha/image", publicHandler.CaptchaChallenge)
		}

		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
			auth.POST("/send-verify-code", RateLimitMiddleware(redisClient, sendCodeRule, KeyByIPAndJSONField("email")), publicHandler.SendVerifyCode)
			auth.POST("/verify-code", publicHandler.VerifyCode)
		}

		// 账号自助接口（需鉴权）
		account := apiV1.Group("/account")
		account.Use(AccountJWTAuthMiddleware(cfg.JWT.SecretKey, c.AccountRepo))
		account.Use(RBACMiddleware(c.AuthzService))
		{
			account.GET("/profile", publicHandler.Profile)
			account.PUT("/password", publicHandler.ChangePassword)
		}

		// 管理端接口（需鉴权 + RBAC）
		admin := apiV1.Group("/admin")
		admin.Use(AccountJWTAuthMiddleware(cfg.JWT.SecretKey, c.AccountRepo))
		admin.Use(RBACMiddleware(c.AuthzService))
		{
			admin.GET("/accounts", adminHandler.ListAccounts)
			admin.PUT("/accounts/:id/active", adminHandler.SetAccountActive)
			admin.GET("/login-logs", adminHandler.ListLoginLogs)
		}
	}

	return r
}

package provider

import (
	"github.com/edupass/internal/authz"
	"github.com/edupass/internal/cache"
	"github.com/edupass/internal/config"
	"github.com/edupass/internal/logger"
	"github.com/edupass/internal/models"
	"github.com/edupass/internal/queue"
	"github.com/edupass/internal/repository"
	"github.com/edupass/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AccountRepo  repository.AccountRepository
	CodeRepo     repository.VerificationCodeRepository
	LoginLogRepo repository.LoginLogRepository

	// Services
	AuthzService   *authz.Service
	TokenService   *service.JWTTokenService
	EmailService   *service.EmailService
	CodeService    service.CodeService
	CaptchaService *service.CaptchaService
	AccountService *service.AccountService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queue.NewClient(&cfg.Queue),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AccountRepo = repository.NewAccountRepository(db)
	c.CodeRepo = repository.NewVerificationCodeRepository(db)
	c.LoginLogRepo = repository.NewLoginLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.TokenService = service.NewJWTTokenService(c.Config.JWT)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CodeService = service.NewNumericCodeService(c.Config.Email.VerifyCode.Length)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AccountService = service.NewAccountService(
		c.Config,
		c.AccountRepo,
		c.CodeRepo,
		c.LoginLogRepo,
		c.TokenService,
		c.EmailService,
		c.CodeService,
		c.QueueClient,
	)
}

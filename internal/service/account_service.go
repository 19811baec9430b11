package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/edupass/internal/cache"
	"github.com/edupass/internal/config"
	"github.com/edupass/internal/constants"
	"github.com/edupass/internal/logger"
	"github.com/edupass/internal/models"
	"github.com/edupass/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TaskEnqueuer 异步任务投递接口
// 允许为空实现，未配置队列时所有投递退化为 no-op
type TaskEnqueuer interface {
	EnqueueWelcomeEmail(email string) error
	EnqueueCodeExpirySweep(codeID uint, delay time.Duration) error
}

// ClientInfo 请求方环境信息，仅用于登录审计
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AccountSummary 对外返回的账号摘要
type AccountSummary struct {
	PublicID      string    `json:"public_id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuthPayload 认证成功的返回载荷
type AuthPayload struct {
	Account   AccountSummary `json:"account"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// AccountService 凭证生命周期服务
// 注册 / 认证 / 改密 / 邮箱验证码的业务规则都收敛在这里，
// 所有操作返回 Result 信封，预期内失败不以 error 形式外溢
type AccountService struct {
	cfg       *config.Config
	accounts  repository.AccountRepository
	codes     repository.VerificationCodeRepository
	loginLogs repository.LoginLogRepository
	tokens    TokenIssuer
	email     EmailSender
	codeGen   CodeService
	tasks     TaskEnqueuer
}

// NewAccountService 创建凭证生命周期服务
func NewAccountService(
	cfg *config.Config,
	accounts repository.AccountRepository,
	codes repository.VerificationCodeRepository,
	loginLogs repository.LoginLogRepository,
	tokens TokenIssuer,
	email EmailSender,
	codeGen CodeService,
	tasks TaskEnqueuer,
) *AccountService {
	return &AccountService{
		cfg:       cfg,
		accounts:  accounts,
		codes:     codes,
		loginLogs: loginLogs,
		tokens:    tokens,
		email:     email,
		codeGen:   codeGen,
		tasks:     tasks,
	}
}

// ParseRole 把外部输入解析为闭集角色
func ParseRole(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.RoleAdministrator:
		return constants.RoleAdministrator, true
	case constants.RoleTutor:
		return constants.RoleTutor, true
	case constants.RoleStudent:
		return constants.RoleStudent, true
	default:
		return "", false
	}
}

// normalizeEmail 归一化邮箱：去空白并转小写
// 邮箱相等性一律在归一化形式上判定
func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Authenticate 账号密码认证
// 检查顺序固定：账号存在 → 账号可用 → 密码匹配 → 签发令牌。
// 禁用检查先于密码检查，禁用账号即使密码正确也只报告 AccountDisabled
func (s *AccountService) Authenticate(email, password string, client ClientInfo) *Result {
	email = normalizeEmail(email)

	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		s.recordLogin(0, email, client, false, constants.LoginLogFailReasonInternalError)
		return FailStorage("account_get_by_email", err)
	}
	if account == nil {
		s.recordLogin(0, email, client, false, constants.LoginLogFailReasonUserNotFound)
		return Fail(KindUserNotFound, "account does not exist")
	}
	if !account.IsActive {
		s.recordLogin(account.ID, email, client, false, constants.LoginLogFailReasonAccountDisabled)
		return Fail(KindAccountDisabled, "account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.recordLogin(account.ID, email, client, false, constants.LoginLogFailReasonInvalidCredentials)
		return Fail(KindInvalidCredentials, "email or password is incorrect")
	}

	payload, err := s.tokens.IssueToken(account)
	if err != nil || payload == nil {
		if err != nil {
			logger.Errorw("token_issue_failed", "account_id", account.ID, "error", err)
		}
		s.recordLogin(account.ID, email, client, false, constants.LoginLogFailReasonInternalError)
		return Fail(KindTokenIssuanceFailed, "failed to issue session token")
	}

	now := time.Now()
	account.LastLoginAt = &now
	if err := s.accounts.Update(account); err != nil {
		// 登录时间仅是审计信息，更新失败不阻断登录
		logger.Warnw("last_login_update_failed", "account_id", account.ID, "error", err)
	}
	s.recordLogin(account.ID, email, client, true, "")
	s.refreshAuthState(account)

	return Succeed("login successful", &AuthPayload{
		Account:   buildAccountSummary(account),
		Token:     payload.Token,
		ExpiresAt: payload.ExpiresAt,
	})
}

// Register 注册新账号并下发邮箱验证码
// 密码策略先于任何存储访问；唯一索引是并发注册的最终裁决。
// 账号落库之后的验证码环节失败不回滚账号，调用方可通过
// SendVerificationCode 重试补发
func (s *AccountService) Register(email, password, confirmPassword, role string) *Result {
	if password != confirmPassword {
		return Fail(KindInvalidPassword, "passwords do not match")
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, password); err != nil {
		return Fail(KindInvalidPassword, "password must contain upper, lower, number and special characters")
	}

	parsedRole, ok := ParseRole(role)
	if !ok {
		return Fail(KindInvalidRole, "unknown account role")
	}

	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Fail(KindInvalidEmail, "invalid email address")
	}

	existing, err := s.accounts.FindByEmail(email)
	if err != nil {
		return FailStorage("account_find_by_email", err)
	}
	if len(existing) > 0 {
		return Fail(KindEmailAlreadyExists, "email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Errorw("password_hash_failed", "error", err)
		return Fail(KindInvalidPassword, "password could not be processed")
	}

	account := &models.Account{
		PublicID:     uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         parsedRole,
		IsActive:     true,
	}
	if err := s.accounts.Create(account); err != nil {
		if repository.IsDuplicateKeyError(err) {
			return Fail(KindEmailAlreadyExists, "email already exists")
		}
		return FailStorage("account_create", err)
	}
	logger.Infow("account_registered", "account_id", account.ID, "role", parsedRole)

	if result := s.issueAndSendCode(account); !result.Success {
		return result
	}

	return Succeed("registration successful, verification code sent",
		buildAccountSummary(account))
}

// ChangePassword 修改密码
// 旧密码校验在新密码策略之前；成功后提升 Token 版本，
// 旧令牌全部失效
func (s *AccountService) ChangePassword(email, oldPassword, newPassword, confirmPassword string) *Result {
	email = normalizeEmail(email)

	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return FailStorage("account_get_by_email", err)
	}
	if account == nil {
		return Fail(KindUserNotFound, "account does not exist")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)); err != nil {
		return Fail(KindInvalidCredentials, "current password is incorrect")
	}
	if newPassword != confirmPassword {
		return Fail(KindInvalidPassword, "passwords do not match")
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return Fail(KindInvalidPassword, "password must contain upper, lower, number and special characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Errorw("password_hash_failed", "account_id", account.ID, "error", err)
		return Fail(KindInvalidPassword, "password could not be processed")
	}

	now := time.Now()
	account.PasswordHash = string(hash)
	account.TokenVersion++
	account.TokenInvalidBefore = &now
	if err := s.accounts.Update(account); err != nil {
		return FailStorage("account_update", err)
	}
	logger.Infow("account_password_changed", "account_id", account.ID)
	s.invalidateAuthState(account.ID)

	return Succeed("password changed", buildAccountSummary(account))
}

// SendVerificationCode 为账号下发新的邮箱验证码
// 发送间隔内的重复请求被节流拒绝
func (s *AccountService) SendVerificationCode(email string) *Result {
	email = normalizeEmail(email)

	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return FailStorage("account_get_by_email", err)
	}
	if account == nil {
		return Fail(KindUserNotFound, "account does not exist")
	}

	latest, err := s.codes.GetLatest(email)
	if err != nil {
		return FailStorage("code_get_latest", err)
	}
	if latest != nil {
		interval := s.resolveSendInterval()
		if interval > 0 && time.Since(latest.CreatedAt) < interval {
			return Fail(KindTooFrequent, "verification code requested too frequently")
		}
	}

	if result := s.issueAndSendCode(account); !result.Success {
		return result
	}
	return Succeed("verification code sent", nil)
}

// VerifyCode 校验邮箱验证码并激活账号
// 消费是终态：同一验证码不可重放，账号激活与消费同时落库
func (s *AccountService) VerifyCode(email, code string) *Result {
	email = normalizeEmail(email)

	account, err := s.accounts.GetByEmail(email)
	if err != nil {
		return FailStorage("account_get_by_email", err)
	}
	if account == nil {
		return Fail(KindUserNotFound, "account does not exist")
	}

	record, err := s.codes.GetLatest(email)
	if err != nil {
		return FailStorage("code_get_latest", err)
	}
	now := time.Now()
	if record == nil || !record.Usable(now) {
		return Fail(KindCodeExpired, "verification code has expired, request a new one")
	}
	if maxAttempts := s.resolveMaxAttempts(); maxAttempts > 0 && record.Attempts >= maxAttempts {
		return Fail(KindInvalidCode, "too many failed attempts, request a new code")
	}
	if record.Code != strings.TrimSpace(code) {
		if err := s.codes.IncrementAttempt(record.ID); err != nil {
			logger.Warnw("code_attempt_increment_failed", "code_id", record.ID, "error", err)
		}
		return Fail(KindInvalidCode, "verification code is incorrect")
	}

	if err := s.codes.MarkConsumed(record.ID, now); err != nil {
		return FailStorage("code_mark_consumed", err)
	}

	account.EmailVerifiedAt = &now
	account.IsActive = true
	if err := s.accounts.Update(account); err != nil {
		return FailStorage("account_update", err)
	}
	logger.Infow("account_email_verified", "account_id", account.ID)
	s.refreshAuthState(account)

	if s.tasks != nil {
		if err := s.tasks.EnqueueWelcomeEmail(account.Email); err != nil {
			logger.Warnw("welcome_email_enqueue_failed", "account_id", account.ID, "error", err)
		}
	}

	return Succeed("email verified", buildAccountSummary(account))
}

// SetAccountActive 管理端启用 / 停用账号
// 停用立即拉高 Token 失效水位，已签发的会话随之失效
func (s *AccountService) SetAccountActive(accountID uint, active bool) *Result {
	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return FailStorage("account_get_by_id", err)
	}
	if account == nil {
		return Fail(KindUserNotFound, "account does not exist")
	}
	if account.IsActive == active {
		return Succeed("account status unchanged", buildAccountSummary(account))
	}

	account.IsActive = active
	if !active {
		now := time.Now()
		account.TokenVersion++
		account.TokenInvalidBefore = &now
	}
	if err := s.accounts.Update(account); err != nil {
		return FailStorage("account_update", err)
	}
	logger.Infow("account_active_changed", "account_id", account.ID, "is_active", active)
	s.invalidateAuthState(account.ID)

	return Succeed("account status updated", buildAccountSummary(account))
}

// issueAndSendCode 生成验证码、落库并同步发送
// 生成与发送失败分别映射为独立失败类别；验证码邮件必须同步发送，
// 否则发送失败无法在当前请求内向调用方暴露
func (s *AccountService) issueAndSendCode(account *models.Account) *Result {
	generated := s.codeGen.GetCode()
	if !generated.Success {
		return Fail(KindCodeGenerationFailed, "could not generate a verification code, try again later")
	}

	ttl := s.resolveCodeTTL()
	record := &models.VerificationCode{
		AccountID: account.ID,
		Email:     account.Email,
		Code:      generated.Code,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.codes.Create(record); err != nil {
		return FailStorage("code_create", err)
	}

	if err := s.email.SendVerificationCode(account.Email, generated.Code); err != nil {
		logger.Warnw("verification_email_send_failed", "account_id", account.ID, "error", err)
		return Fail(KindVerificationSendFailed, "could not send the verification email, try again later")
	}
	if err := s.codes.MarkSent(record.ID, time.Now()); err != nil {
		logger.Warnw("code_mark_sent_failed", "code_id", record.ID, "error", err)
	}

	if s.tasks != nil {
		if err := s.tasks.EnqueueCodeExpirySweep(record.ID, ttl); err != nil {
			logger.Warnw("expiry_sweep_enqueue_failed", "code_id", record.ID, "error", err)
		}
	}
	return Succeed("verification code issued", nil)
}

func (s *AccountService) recordLogin(accountID uint, email string, client ClientInfo, success bool, failReason string) {
	if s.loginLogs == nil {
		return
	}
	status := constants.LoginLogStatusSuccess
	if !success {
		status = constants.LoginLogStatusFailed
	}
	entry := &models.LoginLog{
		AccountID:  accountID,
		Email:      email,
		IP:         client.IP,
		UserAgent:  client.UserAgent,
		Status:     status,
		FailReason: failReason,
	}
	if err := s.loginLogs.Create(entry); err != nil {
		logger.Warnw("login_log_create_failed", "email", email, "error", err)
	}
}

func (s *AccountService) refreshAuthState(account *models.Account) {
	if err := cache.SetAccountAuthState(context.Background(), cache.BuildAccountAuthState(account)); err != nil {
		logger.Warnw("auth_state_cache_set_failed", "account_id", account.ID, "error", err)
	}
}

func (s *AccountService) invalidateAuthState(accountID uint) {
	if err := cache.DelAccountAuthState(context.Background(), accountID); err != nil {
		logger.Warnw("auth_state_cache_del_failed", "account_id", accountID, "error", err)
	}
}

func (s *AccountService) resolveCodeTTL() time.Duration {
	minutes := s.cfg.Email.VerifyCode.ExpireMinutes
	if minutes <= 0 {
		minutes = 10
	}
	return time.Duration(minutes) * time.Minute
}

func (s *AccountService) resolveSendInterval() time.Duration {
	return time.Duration(s.cfg.Email.VerifyCode.SendIntervalSeconds) * time.Second
}

func (s *AccountService) resolveMaxAttempts() int {
	return s.cfg.Email.VerifyCode.MaxAttempts
}

func buildAccountSummary(account *models.Account) AccountSummary {
	return AccountSummary{
		PublicID:      account.PublicID,
		Email:         account.Email,
		Role:          account.Role,
		IsActive:      account.IsActive,
		EmailVerified: account.EmailVerifiedAt != nil,
		CreatedAt:     account.CreatedAt,
	}
}

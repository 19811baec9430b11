package service

import "errors"

// 业务语义错误
// 预期内的业务失败在服务内部用哨兵错误流转，
// 对外统一折叠进 Result 信封，不作为 Go error 抛给调用方
var (
	ErrInvalidEmail              = errors.New("invalid email address")
	ErrNotFound                  = errors.New("account not found")
	ErrAccountDisabled           = errors.New("account disabled")
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrEmailExists               = errors.New("email already exists")
	ErrWeakPassword              = errors.New("password does not satisfy policy")
	ErrInvalidRole               = errors.New("unknown role")
	ErrVerifyCodeInvalid         = errors.New("verification code invalid")
	ErrVerifyCodeExpired         = errors.New("verification code expired")
	ErrVerifyCodeTooFrequent     = errors.New("verification code requested too frequently")
	ErrCodeGenerationFailed      = errors.New("verification code generation failed")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrCaptchaRequired           = errors.New("captcha required")
	ErrCaptchaInvalid            = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid      = errors.New("captcha config invalid")
	ErrTokenInvalid              = errors.New("invalid token")
)

// Result 信封的失败类别
const (
	KindInvalidPassword        = "InvalidPassword"
	KindInvalidRole            = "InvalidRole"
	KindEmailAlreadyExists     = "EmailAlreadyExists"
	KindUserNotFound           = "UserNotFound"
	KindAccountDisabled        = "AccountDisabled"
	KindInvalidCredentials     = "InvalidCredentials"
	KindTokenIssuanceFailed    = "TokenIssuanceFailed"
	KindCodeGenerationFailed   = "CodeGenerationFailed"
	KindVerificationSendFailed = "VerificationSendFailed"
	KindCodeExpired            = "CodeExpired"
	KindInvalidCode            = "InvalidCode"
	KindTooFrequent            = "TooFrequent"
	KindInvalidEmail           = "InvalidEmail"
	KindStorageFailure         = "StorageFailure"
)

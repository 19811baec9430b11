package constants

// 账号角色常量（闭集，注册时必须解析为其中之一）
const (
	RoleAdministrator = "administrator"
	RoleTutor         = "tutor"
	RoleStudent       = "student"
)

// 账号状态常量
const (
	AccountStatusActive   = "active"
	AccountStatusDisabled = "disabled"
)

// 登录日志常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"

	LoginLogFailReasonBadRequest         = "bad_request"
	LoginLogFailReasonCaptchaRequired    = "captcha_required"
	LoginLogFailReasonCaptchaInvalid     = "captcha_invalid"
	LoginLogFailReasonUserNotFound       = "user_not_found"
	LoginLogFailReasonAccountDisabled    = "account_disabled"
	LoginLogFailReasonInvalidCredentials = "invalid_credentials"
	LoginLogFailReasonInternalError      = "internal_error"
)

// 图形验证码场景常量
const (
	CaptchaProviderImage = "image"
	CaptchaProviderNone  = "none"

	CaptchaSceneLogin    = "login"
	CaptchaSceneSendCode = "send_code"
)

// 队列与任务常量
const (
	QueueDefault = "default"

	TaskWelcomeEmail    = "account:welcome_email"
	TaskCodeExpirySweep = "verification:expiry_sweep"
)

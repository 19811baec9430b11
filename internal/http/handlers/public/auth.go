package public

import (
	"errors"

	"github.com/edupass/internal/constants"
	"github.com/edupass/internal/http/response"
	"github.com/edupass/internal/service"

	"github.com/gin-gonic/gin"
)

// CaptchaPayloadRequest 图形验证码载荷
type CaptchaPayloadRequest struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

func (r CaptchaPayloadRequest) toServicePayload() service.CaptchaVerifyPayload {
	return service.CaptchaVerifyPayload{
		CaptchaID:   r.CaptchaID,
		CaptchaCode: r.CaptchaCode,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Role            string `json:"role" binding:"required"`
}

// Register 账号注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	respondResult(c, h.AccountService.Register(req.Email, req.Password, req.ConfirmPassword, req.Role))
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email          string                `json:"email" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// Login 账号密码登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneLogin, req.CaptchaPayload) {
		return
	}
	client := service.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	respondResult(c, h.AccountService.Authenticate(req.Email, req.Password, client))
}

// SendVerifyCodeRequest 发送验证码请求
type SendVerifyCodeRequest struct {
	Email          string                `json:"email" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// SendVerifyCode 发送邮箱验证码
func (h *Handler) SendVerifyCode(c *gin.Context) {
	var req SendVerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if !h.verifyCaptcha(c, constants.CaptchaSceneSendCode, req.CaptchaPayload) {
		return
	}
	respondResult(c, h.AccountService.SendVerificationCode(req.Email))
}

// VerifyCodeRequest 校验验证码请求
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyCode 校验邮箱验证码
func (h *Handler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	respondResult(c, h.AccountService.VerifyCode(req.Email, req.Code))
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ChangePassword 修改当前账号密码
// 目标账号取自鉴权上下文，非本人改密走管理端接口
func (h *Handler) ChangePassword(c *gin.Context) {
	email, ok := getAccountEmail(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	respondResult(c, h.AccountService.ChangePassword(email, req.OldPassword, req.NewPassword, req.ConfirmPassword))
}

// Profile 当前账号信息
func (h *Handler) Profile(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	account, err := h.AccountRepo.GetByID(accountID)
	if err != nil {
		response.Error(c, response.CodeInternal, "failed to load account")
		return
	}
	if account == nil {
		response.NotFound(c, "account does not exist")
		return
	}
	response.Success(c, account)
}

// CaptchaChallenge 获取图形验证码
func (h *Handler) CaptchaChallenge(c *gin.Context) {
	if h.CaptchaService == nil {
		response.NotFound(c, "captcha not enabled")
		return
	}
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		if errors.Is(err, service.ErrCaptchaConfigInvalid) {
			response.NotFound(c, "captcha not enabled")
			return
		}
		response.Error(c, response.CodeInternal, "failed to generate captcha")
		return
	}
	response.Success(c, challenge)
}

func (h *Handler) verifyCaptcha(c *gin.Context, scene string, payload CaptchaPayloadRequest) bool {
	if h.CaptchaService == nil {
		return true
	}
	err := h.CaptchaService.Verify(scene, payload.toServicePayload())
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, service.ErrCaptchaRequired):
		response.BadRequest(c, "captcha is required")
	case errors.Is(err, service.ErrCaptchaInvalid):
		response.BadRequest(c, "captcha is incorrect")
	default:
		response.Error(c, response.CodeInternal, "captcha verification failed")
	}
	return false
}

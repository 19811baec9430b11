package service

import (
	"strings"
	"sync"
	"time"

	"github.com/edupass/internal/config"
	"github.com/edupass/internal/constants"

	"github.com/mojocn/base64Captcha"
)

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaService 图形验证码服务
// 按场景开关决定登录 / 发码请求是否需要先通过人机校验
type CaptchaService struct {
	cfg config.CaptchaConfig

	mu         sync.Mutex
	imageStore base64Captcha.Store
}

// NewCaptchaService 创建图形验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	return &CaptchaService{cfg: cfg}
}

// SceneEnabled 判断场景是否启用验证码
func (s *CaptchaService) SceneEnabled(scene string) bool {
	if s == nil || s.cfg.Provider != constants.CaptchaProviderImage {
		return false
	}
	switch scene {
	case constants.CaptchaSceneLogin:
		return s.cfg.Scenes.Login
	case constants.CaptchaSceneSendCode:
		return s.cfg.Scenes.SendCode
	default:
		return false
	}
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	if s.cfg.Provider != constants.CaptchaProviderImage {
		return nil, ErrCaptchaConfigInvalid
	}

	driver := base64Captcha.NewDriverString(
		s.cfg.Image.Height,
		s.cfg.Image.Width,
		s.cfg.Image.NoiseCount,
		s.cfg.Image.ShowLine,
		s.cfg.Image.Length,
		"0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
		nil,
		base64Captcha.DefaultEmbeddedFonts,
		nil,
	)
	captcha := base64Captcha.NewCaptcha(driver, s.ensureImageStore())
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		return nil, err
	}

	return &CaptchaImageChallenge{
		CaptchaID:   strings.TrimSpace(id),
		ImageBase64: strings.TrimSpace(b64s),
	}, nil
}

// Verify 按场景校验验证码
func (s *CaptchaService) Verify(scene string, payload CaptchaVerifyPayload) error {
	if !s.SceneEnabled(scene) {
		return nil
	}

	captchaID := strings.TrimSpace(payload.CaptchaID)
	captchaCode := strings.TrimSpace(payload.CaptchaCode)
	if captchaID == "" || captchaCode == "" {
		return ErrCaptchaRequired
	}
	if !s.ensureImageStore().Verify(captchaID, captchaCode, true) {
		return ErrCaptchaInvalid
	}
	return nil
}

func (s *CaptchaService) ensureImageStore() base64Captcha.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.imageStore == nil {
		maxStore := s.cfg.Image.MaxStore
		if maxStore <= 0 {
			maxStore = 10240
		}
		expireSec := s.cfg.Image.ExpireSeconds
		if expireSec <= 0 {
			expireSec = 300
		}
		s.imageStore = base64Captcha.NewMemoryStore(maxStore, time.Duration(expireSec)*time.Second)
	}
	return s.imageStore
}

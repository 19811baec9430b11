package public

import "github.com/edupass/internal/provider"

// Handler 公开接口处理器入口
// 注册、登录、验证码等匿名可达的账号接口都挂在这里
type Handler struct {
	*provider.Container
}

// New 创建公开处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

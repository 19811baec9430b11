package admin

import "github.com/edupass/internal/provider"

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// normalizePagination 归一化分页参数
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

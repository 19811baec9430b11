package admin

import (
	"strconv"
	"strings"

	"github.com/edupass/internal/http/response"
	"github.com/edupass/internal/repository"
	"github.com/edupass/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAccounts 账号列表
func (h *Handler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.AccountListFilter{
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Page:     page,
		PageSize: pageSize,
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		parsed, ok := service.ParseRole(role)
		if !ok {
			response.BadRequest(c, "unknown account role")
			return
		}
		filter.Role = parsed
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "is_active must be a boolean")
			return
		}
		filter.IsActive = &active
	}

	accounts, total, err := h.AccountRepo.List(filter)
	if err != nil {
		response.Error(c, response.CodeInternal, "failed to list accounts")
		return
	}
	response.SuccessWithPage(c, accounts, buildPagination(page, pageSize, total))
}

// SetAccountActiveRequest 账号启停请求
type SetAccountActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetAccountActive 启用 / 停用账号
func (h *Handler) SetAccountActive(c *gin.Context) {
	accountID, ok := parseIDParam(c)
	if !ok {
		response.BadRequest(c, "invalid account id")
		return
	}
	var req SetAccountActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result := h.AccountService.SetAccountActive(accountID, *req.IsActive)
	if !result.Success {
		code := response.CodeInternal
		if result.Kind == service.KindUserNotFound {
			code = response.CodeNotFound
		}
		response.ErrorWithKind(c, code, result.Kind, result.Message)
		return
	}
	response.SuccessWithMsg(c, result.Message, result.Payload)
}

// ListLoginLogs 登录日志列表
func (h *Handler) ListLoginLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.LoginLogListFilter{
		Email:    strings.TrimSpace(c.Query("email")),
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := strings.TrimSpace(c.Query("account_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid account id")
			return
		}
		filter.AccountID = uint(id)
	}

	logs, total, err := h.LoginLogRepo.List(filter)
	if err != nil {
		response.Error(c, response.CodeInternal, "failed to list login logs")
		return
	}
	response.SuccessWithPage(c, logs, buildPagination(page, pageSize, total))
}

func parseIDParam(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}

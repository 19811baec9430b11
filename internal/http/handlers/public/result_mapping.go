package public

import (
	"github.com/edupass/internal/http/response"
	"github.com/edupass/internal/service"

	"github.com/gin-gonic/gin"
)

// kindToCode 业务失败类别到响应状态码的映射
var kindToCode = map[string]int{
	service.KindInvalidPassword:        response.CodeBadRequest,
	service.KindInvalidRole:            response.CodeBadRequest,
	service.KindInvalidEmail:           response.CodeBadRequest,
	service.KindEmailAlreadyExists:     response.CodeConflict,
	service.KindUserNotFound:           response.CodeNotFound,
	service.KindAccountDisabled:        response.CodeForbidden,
	service.KindInvalidCredentials:     response.CodeUnauthorized,
	service.KindTokenIssuanceFailed:    response.CodeInternal,
	service.KindCodeGenerationFailed:   response.CodeInternal,
	service.KindVerificationSendFailed: response.CodeInternal,
	service.KindCodeExpired:            response.CodeBadRequest,
	service.KindInvalidCode:            response.CodeBadRequest,
	service.KindTooFrequent:            response.CodeTooManyRequests,
	service.KindStorageFailure:         response.CodeInternal,
}

// respondResult 把服务层 Result 信封折算为 HTTP 响应
func respondResult(c *gin.Context, result *service.Result) {
	if result == nil {
		response.Error(c, response.CodeInternal, "empty service result")
		return
	}
	if result.Success {
		response.SuccessWithMsg(c, result.Message, result.Payload)
		return
	}
	code, ok := kindToCode[result.Kind]
	if !ok {
		code = response.CodeInternal
	}
	response.ErrorWithKind(c, code, result.Kind, result.Message)
}

package service

import "github.com/edupass/internal/logger"

// Result 生命周期操作的统一返回信封
// 预期内的业务失败一律以 Success=false 的信封表达，
// 只有基础设施故障才会走 error/panic 通道
type Result struct {
	Success bool        `json:"success"`
	Kind    string      `json:"kind,omitempty"` // 失败类别（机器可读）
	Message string      `json:"message"`
	Payload interface{} `json:"payload,omitempty"`
}

// Succeed 构造成功信封
func Succeed(message string, payload interface{}) *Result {
	return &Result{
		Success: true,
		Message: message,
		Payload: payload,
	}
}

// Fail 构造失败信封
func Fail(kind, message string) *Result {
	return &Result{
		Success: false,
		Kind:    kind,
		Message: message,
	}
}

// FailStorage 存储层故障兜底
// 记录完整错误后对外只暴露类别与通用消息，不泄露内部细节
func FailStorage(operation string, err error) *Result {
	logger.Errorw("storage_failure", "operation", operation, "error", err)
	return Fail(KindStorageFailure, "storage temporarily unavailable, please retry")
}

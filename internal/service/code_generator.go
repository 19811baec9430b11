package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/edupass/internal/logger"
)

const (
	defaultCodeLength = 6

	// maxCodeGenAttempts 退化码重试上限
	// 全同字符码的出现概率为 10/10^6，重试 8 次后仍未产出
	// 只可能是随机源故障，此时按生成失败处理而不是返回退化码
	maxCodeGenAttempts = 8
)

// CodeGenerationResult 验证码生成结果
type CodeGenerationResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
}

// CodeService 验证码生成服务接口
type CodeService interface {
	GetCode() CodeGenerationResult
}

// NumericCodeService 数字验证码生成器
// 产出定宽数字验证码，拒绝全同字符的退化码
type NumericCodeService struct {
	length int
}

// NewNumericCodeService 创建数字验证码生成器
func NewNumericCodeService(length int) *NumericCodeService {
	if length < 4 || length > 10 {
		length = defaultCodeLength
	}
	return &NumericCodeService{length: length}
}

// GetCode 生成一个非退化的定宽数字验证码
func (s *NumericCodeService) GetCode() CodeGenerationResult {
	for attempt := 0; attempt < maxCodeGenAttempts; attempt++ {
		code, err := randomNumericCode(s.length)
		if err != nil {
			logger.Warnw("code_generation_rand_failed", "attempt", attempt, "error", err)
			continue
		}
		if isDegenerateCode(code) {
			continue
		}
		return CodeGenerationResult{Success: true, Code: code}
	}
	logger.Errorw("code_generation_exhausted", "max_attempts", maxCodeGenAttempts)
	return CodeGenerationResult{Success: false}
}

// isDegenerateCode 判断验证码是否所有字符完全相同（如 000000）
func isDegenerateCode(code string) bool {
	if code == "" {
		return true
	}
	first := code[0]
	for i := 1; i < len(code); i++ {
		if code[i] != first {
			return false
		}
	}
	return true
}

func randomNumericCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

package service

import (
	"unicode"

	"github.com/edupass/internal/config"
)

// IsValidPassword 核心密码谓词
// 密码必须同时包含大写字母、小写字母、数字和一个非字母数字字符
// 纯函数，不校验长度（长度约束由上游请求形状负责）
func IsValidPassword(password string) bool {
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}

// validatePassword 按配置策略校验密码
// 配置可以在核心谓词之外追加最小长度或放宽某类字符要求
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 {
		if len([]rune(password)) < policy.MinLength {
			return ErrWeakPassword
		}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return ErrWeakPassword
	}
	if policy.RequireLower && !hasLower {
		return ErrWeakPassword
	}
	if policy.RequireNumber && !hasNumber {
		return ErrWeakPassword
	}
	if policy.RequireSpecial && !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}

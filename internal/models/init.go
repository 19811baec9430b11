package models

import (
	"time"

	"github.com/edupass/internal/constants"
	"github.com/edupass/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdministrator 初始化默认管理员账号
// 仅在库内没有任何管理员时创建
func InitDefaultAdministrator(email, password string) error {
	var count int64
	DB.Model(&Account{}).Where("role = ?", constants.RoleAdministrator).Count(&count)
	if count > 0 {
		return nil
	}

	if email == "" {
		email = "admin@edupass.local"
	}
	if password == "" {
		password = "Admin#2024"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := Account{
		PublicID:        uuid.NewString(),
		Email:           email,
		PasswordHash:    string(hash),
		Role:            constants.RoleAdministrator,
		IsActive:        true,
		EmailVerifiedAt: &now,
	}

	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "Admin#2024" {
		logger.Warnw("default_administrator_created_with_default_password", "email", email)
		logger.Warnw("default_administrator_password_change_required", "email", email)
	} else {
		logger.Warnw("default_administrator_created", "email", email, "password_hidden", true)
	}
	return nil
}

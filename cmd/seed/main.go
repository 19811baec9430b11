package main

import (
	"fmt"
	"os"
	"time"

	"github.com/edupass/internal/config"
	"github.com/edupass/internal/constants"
	"github.com/edupass/internal/logger"
	"github.com/edupass/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// 开发环境种子数据：一个默认管理员加上若干演示账号
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.InitDefaultAdministrator(
		os.Getenv("EDUPASS_DEFAULT_ADMIN_EMAIL"),
		os.Getenv("EDUPASS_DEFAULT_ADMIN_PASSWORD"),
	); err != nil {
		stdLog.Fatalf("Failed to seed administrator: %v", err)
	}

	demoAccounts := []struct {
		email string
		role  string
	}{
		{"tutor1@edupass.local", constants.RoleTutor},
		{"tutor2@edupass.local", constants.RoleTutor},
		{"student1@edupass.local", constants.RoleStudent},
		{"student2@edupass.local", constants.RoleStudent},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Demo#2024"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	now := time.Now()
	created := 0
	for _, item := range demoAccounts {
		var count int64
		models.DB.Model(&models.Account{}).Where("email = ?", item.email).Count(&count)
		if count > 0 {
			continue
		}
		account := models.Account{
			PublicID:        uuid.NewString(),
			Email:           item.email,
			PasswordHash:    string(hash),
			Role:            item.role,
			IsActive:        true,
			EmailVerifiedAt: &now,
		}
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Fatalf("Failed to seed account %s: %v", item.email, err)
		}
		created++
	}

	fmt.Printf("Seed finished: %d demo accounts created (password: Demo#2024)\n", created)
}

package models

import "time"

// LoginLog 登录日志表
type LoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`         // 主键
	AccountID  uint      `gorm:"index" json:"account_id"`      // 账号 ID（登录失败时可能为 0）
	Email      string    `gorm:"index" json:"email"`           // 提交的邮箱
	IP         string    `gorm:"size:64" json:"ip"`            // 来源 IP
	UserAgent  string    `gorm:"size:512" json:"user_agent"`   // UA
	Status     string    `gorm:"index;size:16" json:"status"`  // success / failed
	FailReason string    `gorm:"size:64" json:"fail_reason"`   // 失败原因
	CreatedAt  time.Time `gorm:"index" json:"created_at"`      // 创建时间
}

// TableName 指定表名
func (LoginLog) TableName() string {
	return "login_logs"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// VerificationCode 邮箱验证码记录
// 生命周期 Created → Sent → {Consumed | Expired}，后两者为终态
type VerificationCode struct {
	ID         uint           `gorm:"primarykey" json:"id"`        // 主键
	AccountID  uint           `gorm:"index;not null" json:"account_id"` // 所属账号
	Email      string         `gorm:"index;not null" json:"email"` // 邮箱
	Code       string         `gorm:"not null" json:"-"`           // 验证码（不返回给前端）
	IsSent     bool           `gorm:"default:false" json:"is_sent"`   // 是否已发送
	Attempts   int            `gorm:"default:0" json:"attempts"`   // 尝试次数
	ExpiresAt  time.Time      `gorm:"index" json:"expires_at"`     // 过期时间
	Expired    bool           `gorm:"default:false" json:"expired"`   // 过期标记（延迟任务回填）
	ConsumedAt *time.Time     `gorm:"index" json:"consumed_at"`    // 消费时间
	SentAt     time.Time      `json:"sent_at"`                     // 发送时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`     // 创建时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`              // 软删除时间
}

// TableName 指定表名
func (VerificationCode) TableName() string {
	return "verification_codes"
}

// Usable 判断验证码在给定时间是否仍可消费
func (c *VerificationCode) Usable(now time.Time) bool {
	if c == nil {
		return false
	}
	if c.ConsumedAt != nil || c.Expired {
		return false
	}
	return c.ExpiresAt.After(now)
}

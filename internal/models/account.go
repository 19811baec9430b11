package models

import (
	"time"

	"gorm.io/gorm"
)

// Account 账号表
// email 以小写归一化形式存储，唯一索引是注册竞争的最终裁决
type Account struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                    // 主键
	PublicID           string         `gorm:"uniqueIndex;size:36" json:"public_id"`    // 对外暴露的 UUID
	Email              string         `gorm:"uniqueIndex;not null" json:"email"`       // 邮箱
	PasswordHash       string         `gorm:"not null" json:"-"`                       // 密码哈希（不返回给前端）
	Role               string         `gorm:"index;not null" json:"role"`              // 角色（administrator/tutor/student）
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`  // 账号是否可用
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`             // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                          // 该时间点前签发的 Token 失效
	EmailVerifiedAt    *time.Time     `json:"email_verified_at"`                       // 邮箱验证时间
	LastLoginAt        *time.Time     `json:"last_login_at"`                           // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}

package repository

import (
	"errors"
	"time"

	"github.com/edupass/internal/models"

	"gorm.io/gorm"
)

// VerificationCodeRepository 验证码数据访问接口
type VerificationCodeRepository interface {
	Create(code *models.VerificationCode) error
	GetLatest(email string) (*models.VerificationCode, error)
	MarkSent(id uint, sentAt time.Time) error
	MarkConsumed(id uint, consumedAt time.Time) error
	MarkExpired(id uint) error
	IncrementAttempt(id uint) error
	ExpireOverdue(now time.Time) (int64, error)
}

// GormVerificationCodeRepository GORM 实现
type GormVerificationCodeRepository struct {
	db *gorm.DB
}

// NewVerificationCodeRepository 创建验证码仓库
func NewVerificationCodeRepository(db *gorm.DB) *GormVerificationCodeRepository {
	return &GormVerificationCodeRepository{db: db}
}

// Create 创建验证码记录
func (r *GormVerificationCodeRepository) Create(code *models.VerificationCode) error {
	return r.db.Create(code).Error
}

// GetLatest 获取邮箱最新的验证码记录
func (r *GormVerificationCodeRepository) GetLatest(email string) (*models.VerificationCode, error) {
	var record models.VerificationCode
	if err := r.db.Where("email = ?", email).
		Order("created_at desc, id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// MarkSent 标记验证码已发送
func (r *GormVerificationCodeRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&models.VerificationCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_sent": true, "sent_at": sentAt}).Error
}

// MarkConsumed 标记验证码已消费（终态，不可重放）
func (r *GormVerificationCodeRepository) MarkConsumed(id uint, consumedAt time.Time) error {
	return r.db.Model(&models.VerificationCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", consumedAt).Error
}

// MarkExpired 标记验证码已过期（终态）
func (r *GormVerificationCodeRepository) MarkExpired(id uint) error {
	return r.db.Model(&models.VerificationCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("expired", true).Error
}

// IncrementAttempt 增加验证次数
func (r *GormVerificationCodeRepository) IncrementAttempt(id uint) error {
	return r.db.Model(&models.VerificationCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// ExpireOverdue 批量回填过期标记，返回影响行数
func (r *GormVerificationCodeRepository) ExpireOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&models.VerificationCode{}).
		Where("expired = ? AND consumed_at IS NULL AND expires_at <= ?", false, now).
		Update("expired", true)
	return result.RowsAffected, result.Error
}

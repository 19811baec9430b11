package repository

import (
	"time"

	"github.com/edupass/internal/models"

	"gorm.io/gorm"
)

// LoginLogListFilter 登录日志过滤条件
type LoginLogListFilter struct {
	AccountID   uint
	Email       string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// LoginLogRepository 登录日志数据访问接口
type LoginLogRepository interface {
	Create(log *models.LoginLog) error
	List(filter LoginLogListFilter) ([]models.LoginLog, int64, error)
}

// GormLoginLogRepository GORM 实现
type GormLoginLogRepository struct {
	db *gorm.DB
}

// NewLoginLogRepository 创建登录日志仓库
func NewLoginLogRepository(db *gorm.DB) *GormLoginLogRepository {
	return &GormLoginLogRepository{db: db}
}

// Create 创建登录日志
func (r *GormLoginLogRepository) Create(log *models.LoginLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// List 查询登录日志
func (r *GormLoginLogRepository) List(filter LoginLogListFilter) ([]models.LoginLog, int64, error) {
	query := r.db.Model(&models.LoginLog{})
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.LoginLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

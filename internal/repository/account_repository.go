package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/edupass/internal/models"

	"gorm.io/gorm"
)

// AccountListFilter 账号列表过滤条件
type AccountListFilter struct {
	Keyword     string
	Role        string
	IsActive    *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// AccountRepository 账号数据访问接口
// FindByEmail 返回切片：唯一索引才是邮箱唯一性的最终裁决，
// 上层把非空结果一律视为冲突
type AccountRepository interface {
	FindByEmail(email string) ([]models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	GetByID(id uint) (*models.Account, error)
	GetByPublicID(publicID string) (*models.Account, error)
	Create(account *models.Account) error
	Update(account *models.Account) error
	List(filter AccountListFilter) ([]models.Account, int64, error)
}

// GormAccountRepository GORM 实现
type GormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓库
func NewAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByEmail 按邮箱查询账号集合
func (r *GormAccountRepository) FindByEmail(email string) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.Where("email = ?", email).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetByEmail 根据邮箱获取账号
func (r *GormAccountRepository) GetByEmail(email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByID 根据 ID 获取账号
func (r *GormAccountRepository) GetByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByPublicID 根据对外 UUID 获取账号
func (r *GormAccountRepository) GetByPublicID(publicID string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("public_id = ?", publicID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create 创建账号
func (r *GormAccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// Update 更新账号
func (r *GormAccountRepository) Update(account *models.Account) error {
	return r.db.Save(account).Error
}

// List 账号列表
func (r *GormAccountRepository) List(filter AccountListFilter) ([]models.Account, int64, error) {
	query := r.db.Model(&models.Account{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("email LIKE ?", like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
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

	var accounts []models.Account
	if err := query.Order("id DESC").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// IsDuplicateKeyError 判断是否为唯一约束冲突
// 并发注册同一邮箱时由存储层唯一索引兜底，上层据此映射为邮箱已存在
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") ||
		strings.Contains(message, "duplicate key value")
}

package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/orgfinance/internal/category"
	"gorm.io/gorm"
)

// CategoryRepository implements the category.RepositoryAPI interface using GORM
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	c.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	var c category.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, category.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*category.Category, error) {
	var categories []*category.Category
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("use_count DESC").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) SearchByPrefix(ctx context.Context, organizationID, prefix string, limit int) ([]*category.Category, error) {
	var categories []*category.Category
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND normalized_name LIKE ?", organizationID, prefix+"%").
		Order("use_count DESC").
		Limit(limit).
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) TopByUseCount(ctx context.Context, organizationID string, limit int) ([]*category.Category, error) {
	var categories []*category.Category
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("use_count DESC").
		Limit(limit).
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) IncrementUseCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&category.Category{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"use_count":  gorm.Expr("use_count + 1"),
			"updated_at": time.Now(),
		}).Error
}

package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByNameAndType(ctx context.Context, name, categoryType string, facilityID uuid.UUID) (*model.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByNameAndType resolves a category by name, preferring a
// facility-specific row over a shared one.
func (r *categoryRepository) FindByNameAndType(ctx context.Context, name, categoryType string, facilityID uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := GetDB(ctx, r.db).
		Where("name = ? AND type = ? AND (facility_id = ? OR facility_id IS NULL)", name, categoryType, facilityID).
		Order("facility_id DESC NULLS LAST").
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

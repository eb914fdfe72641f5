package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	AddBudget(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	AddSpent(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	AddCollected(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	AppendActivity(ctx context.Context, activity *model.ProjectActivity) error
	CreateDocument(ctx context.Context, doc *model.ProjectDocument) error
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Create(project).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Cumulative totals are incremented in the store rather than read-modify-
// written, so concurrent cascades cannot lose updates.

func (r *projectRepository) AddBudget(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return r.addColumn(ctx, id, "budget", delta)
}

func (r *projectRepository) AddSpent(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return r.addColumn(ctx, id, "spent", delta)
}

func (r *projectRepository) AddCollected(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return r.addColumn(ctx, id, "collected", delta)
}

func (r *projectRepository) addColumn(ctx context.Context, id uuid.UUID, column string, delta decimal.Decimal) error {
	result := GetDB(ctx, r.db).Model(&model.Project{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) AppendActivity(ctx context.Context, activity *model.ProjectActivity) error {
	return GetDB(ctx, r.db).Create(activity).Error
}

func (r *projectRepository) CreateDocument(ctx context.Context, doc *model.ProjectDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

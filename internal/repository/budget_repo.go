package repository

import (
	"context"
	"fmt"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BudgetRepository interface {
	Create(ctx context.Context, budget *model.Budget) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Budget, error)
	Update(ctx context.Context, budget *model.Budget) error
	List(ctx context.Context, status string, page, limit int) ([]model.Budget, int64, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]model.Budget, error)
	FindActiveForScope(ctx context.Context, facilityID uuid.UUID, scope string, scopeID uuid.UUID, year int, excludeID uuid.UUID) (*model.Budget, error)
	LockScope(ctx context.Context, facilityID uuid.UUID, scope string, scopeID uuid.UUID, year int)
	AddAmount(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error)
}

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) Create(ctx context.Context, budget *model.Budget) error {
	return GetDB(ctx, r.db).Create(budget).Error
}

func (r *budgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Budget, error) {
	var budget model.Budget
	if err := GetDB(ctx, r.db).First(&budget, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) Update(ctx context.Context, budget *model.Budget) error {
	return GetDB(ctx, r.db).Save(budget).Error
}

func (r *budgetRepository) List(ctx context.Context, status string, page, limit int) ([]model.Budget, int64, error) {
	var budgets []model.Budget
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Budget{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Requester")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&budgets).Error; err != nil {
		return nil, 0, err
	}

	return budgets, total, nil
}

func (r *budgetRepository) ListPending(ctx context.Context, filter PendingFilter) ([]model.Budget, error) {
	var budgets []model.Budget
	query := GetDB(ctx, r.db).Where("status = ?", model.BudgetStatusDraft)
	if filter.FacilityID != nil {
		query = query.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if err := query.Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

// LockScope takes an advisory transaction lock on the consolidation scope
// key so concurrent approvals of budgets for the same (facility, scope,
// scope_id, year) serialize their merge-or-activate decision. No-op outside
// postgres.
func (r *budgetRepository) LockScope(ctx context.Context, facilityID uuid.UUID, scope string, scopeID uuid.UUID, year int) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() != "postgres" {
		return
	}
	key := fmt.Sprintf("budget:%s:%s:%s:%d", facilityID, scope, scopeID, year)
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key)
}

// FindActiveForScope looks up the single active budget for a
// (facility, scope, scope_id, year) key, excluding the given id. The row is
// locked FOR UPDATE on postgres so two concurrent consolidations cannot both
// observe "no active budget" and activate twice.
func (r *budgetRepository) FindActiveForScope(ctx context.Context, facilityID uuid.UUID, scope string, scopeID uuid.UUID, year int, excludeID uuid.UUID) (*model.Budget, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var budget model.Budget
	err := db.Where("facility_id = ? AND scope = ? AND scope_id = ? AND year = ? AND status = ? AND id <> ?",
		facilityID, scope, scopeID, year, model.BudgetStatusActive, excludeID).
		First(&budget).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// AddAmount increments a budget's amount atomically in the store.
func (r *budgetRepository) AddAmount(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Budget{}).
		Where("id = ?", id).
		Update("amount", gorm.Expr("amount + ?", delta)).Error
}

func (r *budgetRepository) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.Budget{}).Where("status = ?", status)
	if facilityID != nil {
		query = query.Where("facility_id = ?", *facilityID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

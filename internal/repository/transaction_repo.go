package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	Update(ctx context.Context, txn *model.Transaction) error
	List(ctx context.Context, status string, page, limit int) ([]model.Transaction, int64, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]model.Transaction, error)
	CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error)
	NextNumber(ctx context.Context) (string, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	return GetDB(ctx, r.db).Create(txn).Error
}

func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var txn model.Transaction
	if err := GetDB(ctx, r.db).Preload("Documents").First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepository) Update(ctx context.Context, txn *model.Transaction) error {
	return GetDB(ctx, r.db).Save(txn).Error
}

func (r *transactionRepository) List(ctx context.Context, status string, page, limit int) ([]model.Transaction, int64, error) {
	var txns []model.Transaction
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Transaction{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Category").Preload("Project")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txns).Error; err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

func (r *transactionRepository) ListPending(ctx context.Context, filter PendingFilter) ([]model.Transaction, error) {
	var txns []model.Transaction
	query := GetDB(ctx, r.db).Where("status = ?", model.TransactionStatusPending)
	if filter.FacilityID != nil {
		query = query.Where("facility_id = ?", *filter.FacilityID)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}
	if err := query.Order("created_at DESC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepository) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.Transaction{}).Where("status = ?", status)
	if facilityID != nil {
		query = query.Where("facility_id = ?", *facilityID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextNumber generates a sequential transaction number for the current day.
// The prefix is serialized with an advisory lock on postgres to prevent
// concurrent duplicates.
func (r *transactionRepository) NextNumber(ctx context.Context) (string, error) {
	db := GetDB(ctx, r.db)
	prefix := "TXN-" + time.Now().Format("20060102") + "-"

	if db.Dialector.Name() == "postgres" {
		db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)
	}

	var count int64
	if err := db.Model(&model.Transaction{}).
		Where("transaction_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

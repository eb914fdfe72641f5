package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBudgetService(db *gorm.DB) BudgetService {
	return NewBudgetService(
		repository.NewBudgetRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
}

func TestBudgetService_CreateBudgetStartsAsDraft(t *testing.T) {
	db := newTestDB(t)
	svc := newBudgetService(db)
	facility := seedFacility(t, db, "BR-01")
	requester := uuid.New()

	resp, err := svc.CreateBudget(context.Background(), requester.String(), CreateBudgetRequest{
		FacilityID: facility.ID.String(),
		Name:       "Operations 2026",
		Year:       time.Now().Year(),
		Scope:      model.BudgetScopeDepartment,
		ScopeID:    uuid.NewString(),
		Amount:     "5000000",
		Currency:   "IDR",
	})
	require.NoError(t, err)

	assert.Equal(t, model.BudgetStatusDraft, resp.Status)
	assert.Equal(t, model.BudgetPeriodYearly, resp.Period, "period defaults to YEARLY")
	assert.Equal(t, "5000000", resp.Amount)
	assert.Equal(t, "0", resp.Spent)

	var auditCount int64
	db.Model(&model.AuditLog{}).Where("action = ? AND user_id = ?", model.ActionCreateBudget, requester).Count(&auditCount)
	assert.Equal(t, int64(1), auditCount)
}

func TestBudgetService_CreateBudgetValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newBudgetService(db)
	facility := seedFacility(t, db, "BR-01")
	year := time.Now().Year()

	base := CreateBudgetRequest{
		FacilityID: facility.ID.String(),
		Name:       "Operations",
		Year:       year,
		Scope:      model.BudgetScopeDepartment,
		ScopeID:    uuid.NewString(),
		Amount:     "100",
	}

	bad := base
	bad.Scope = "REGION"
	_, err := svc.CreateBudget(context.Background(), "", bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = base
	bad.Amount = "-5"
	_, err = svc.CreateBudget(context.Background(), "", bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = base
	bad.Year = year - 3
	_, err = svc.CreateBudget(context.Background(), "", bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = base
	bad.Period = "WEEKLY"
	_, err = svc.CreateBudget(context.Background(), "", bad)
	assert.ErrorIs(t, err, ErrValidation)

	// Nothing got persisted by the failed attempts.
	var count int64
	db.Model(&model.Budget{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBudgetService_GetBudgetUnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := newBudgetService(db)

	_, err := svc.GetBudget(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetBudget(context.Background(), uuid.NewString())
	assert.Error(t, err)
}

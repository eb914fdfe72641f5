package service

import (
	"context"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database with the full schema. Max one
// open connection, otherwise the pool hands out fresh empty databases.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedFacility(t *testing.T, db *gorm.DB, code string) *model.Facility {
	t.Helper()
	facility := &model.Facility{
		Code:     code,
		Name:     "Facility " + code,
		Type:     model.FacilityTypeBranch,
		IsActive: true,
	}
	require.NoError(t, db.Create(facility).Error)
	return facility
}

func seedProject(t *testing.T, db *gorm.DB, facilityID uuid.UUID) *model.Project {
	t.Helper()
	project := &model.Project{
		FacilityID: facilityID,
		Name:       "Clean Water Initiative",
		Status:     model.ProjectStatusOngoing,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func seedBudget(t *testing.T, db *gorm.DB, facilityID, scopeID uuid.UUID, amount int64, currencyCode, status string) *model.Budget {
	t.Helper()
	budget := &model.Budget{
		FacilityID: facilityID,
		Name:       "Water budget",
		Year:       2026,
		Period:     model.BudgetPeriodYearly,
		Scope:      model.BudgetScopeProject,
		ScopeID:    scopeID,
		Amount:     decimal.NewFromInt(amount),
		Currency:   currencyCode,
		Status:     status,
	}
	require.NoError(t, db.Create(budget).Error)
	return budget
}

func newConsolidator(db *gorm.DB) *BudgetConsolidator {
	return NewBudgetConsolidator(
		repository.NewBudgetRepository(db),
		repository.NewProjectRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		currency.NewNormalizer("IDR"),
	)
}

func TestBudgetConsolidator_ActivatesFirstBudgetForScope(t *testing.T) {
	db := newTestDB(t)
	consolidator := newConsolidator(db)

	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)
	draft := seedBudget(t, db, facility.ID, project.ID, 1000, "IDR", model.BudgetStatusDraft)

	require.NoError(t, consolidator.Approve(context.Background(), draft.ID, nil, ""))

	var got model.Budget
	require.NoError(t, db.First(&got, "id = ?", draft.ID).Error)
	assert.Equal(t, model.BudgetStatusActive, got.Status)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(1000)))

	var auditCount int64
	db.Model(&model.AuditLog{}).Where("action = ?", model.ActionActivateBudget).Count(&auditCount)
	assert.Equal(t, int64(1), auditCount)
}

func TestBudgetConsolidator_MergesIntoExistingActiveBudget(t *testing.T) {
	db := newTestDB(t)
	consolidator := newConsolidator(db)

	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)
	active := seedBudget(t, db, facility.ID, project.ID, 500, "IDR", model.BudgetStatusActive)
	draft := seedBudget(t, db, facility.ID, project.ID, 100, "IDR", model.BudgetStatusDraft)

	require.NoError(t, consolidator.Approve(context.Background(), draft.ID, nil, "quarterly top-up"))

	// 500 + 100: no money appears or disappears in the merge.
	var gotActive model.Budget
	require.NoError(t, db.First(&gotActive, "id = ?", active.ID).Error)
	assert.Equal(t, model.BudgetStatusActive, gotActive.Status)
	assert.True(t, gotActive.Amount.Equal(decimal.NewFromInt(600)), "active amount = %s", gotActive.Amount)

	// The merged submission survives as a cancelled audit record.
	var gotDraft model.Budget
	require.NoError(t, db.First(&gotDraft, "id = ?", draft.ID).Error)
	assert.Equal(t, model.BudgetStatusCancelled, gotDraft.Status)
	assert.Contains(t, gotDraft.Name, "merged into")

	// Exactly one active budget remains for the scope.
	var activeCount int64
	db.Model(&model.Budget{}).
		Where("facility_id = ? AND scope = ? AND scope_id = ? AND year = ? AND status = ?",
			facility.ID, model.BudgetScopeProject, project.ID, 2026, model.BudgetStatusActive).
		Count(&activeCount)
	assert.Equal(t, int64(1), activeCount)
}

func TestBudgetConsolidator_CascadeUsesSubmittedAmountNotMergedTotal(t *testing.T) {
	db := newTestDB(t)
	consolidator := newConsolidator(db)

	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)

	first := seedBudget(t, db, facility.ID, project.ID, 1000, "IDR", model.BudgetStatusDraft)
	second := seedBudget(t, db, facility.ID, project.ID, 500, "IDR", model.BudgetStatusDraft)

	require.NoError(t, consolidator.Approve(context.Background(), first.ID, nil, ""))
	require.NoError(t, consolidator.Approve(context.Background(), second.ID, nil, ""))

	// Project cumulative budget is 1000 + 500, not 1000 + 1500.
	var gotProject model.Project
	require.NoError(t, db.First(&gotProject, "id = ?", project.ID).Error)
	assert.True(t, gotProject.Budget.Equal(decimal.NewFromInt(1500)), "project budget = %s", gotProject.Budget)

	var gotFirst model.Budget
	require.NoError(t, db.First(&gotFirst, "id = ?", first.ID).Error)
	assert.True(t, gotFirst.Amount.Equal(decimal.NewFromInt(1500)))

	var activities []model.ProjectActivity
	require.NoError(t, db.Where("project_id = ? AND type = ?", project.ID, model.ActivityBudgetApproved).Find(&activities).Error)
	assert.Len(t, activities, 2)
}

func TestBudgetConsolidator_RefusesCrossCurrencyMerge(t *testing.T) {
	db := newTestDB(t)
	consolidator := newConsolidator(db)

	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)
	seedBudget(t, db, facility.ID, project.ID, 500, "IDR", model.BudgetStatusActive)
	draft := seedBudget(t, db, facility.ID, project.ID, 100, "USD", model.BudgetStatusDraft)

	err := consolidator.Approve(context.Background(), draft.ID, nil, "")
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	// Transaction rolled back: the draft is untouched and can be resubmitted.
	var gotDraft model.Budget
	require.NoError(t, db.First(&gotDraft, "id = ?", draft.ID).Error)
	assert.Equal(t, model.BudgetStatusDraft, gotDraft.Status)
}

func TestBudgetConsolidator_ApproveNonDraftFails(t *testing.T) {
	db := newTestDB(t)
	consolidator := newConsolidator(db)

	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)
	active := seedBudget(t, db, facility.ID, project.ID, 500, "IDR", model.BudgetStatusActive)

	err := consolidator.Approve(context.Background(), active.ID, nil, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBudgetConsolidator_RejectCancelsDraftWithoutCascade(t *testing.T) {
	db := newTestDB(t)
	consolidator := newConsolidator(db)

	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)
	draft := seedBudget(t, db, facility.ID, project.ID, 1000, "IDR", model.BudgetStatusDraft)

	require.NoError(t, consolidator.Reject(context.Background(), draft.ID, nil, "duplicate request"))

	var got model.Budget
	require.NoError(t, db.First(&got, "id = ?", draft.ID).Error)
	assert.Equal(t, model.BudgetStatusCancelled, got.Status)

	var gotProject model.Project
	require.NoError(t, db.First(&gotProject, "id = ?", project.ID).Error)
	assert.True(t, gotProject.Budget.IsZero(), "rejected budget must not reach the project")
}

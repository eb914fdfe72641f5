package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRegistry(db *gorm.DB, threshold int64) []ResourceAdapter {
	normalizer := currency.NewNormalizer("IDR")
	budgetRepo := repository.NewBudgetRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	transferRepo := repository.NewTransferRepository(db)

	consolidator := NewBudgetConsolidator(budgetRepo, projectRepo, auditRepo, txManager, normalizer)
	transferWorkflow := NewTransferService(
		transferRepo,
		repository.NewTransactionRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewFacilityRepository(db),
		auditRepo, txManager, normalizer,
	)

	return NewAdapterRegistry(
		NewBudgetAdapter(budgetRepo, consolidator, normalizer),
		NewPartnerAdapter(repository.NewPartnerRepository(db), auditRepo, txManager, normalizer),
		NewCampaignAdapter(repository.NewCampaignRepository(db), auditRepo, txManager, normalizer),
		NewTransferAdapter(transferRepo, transferWorkflow, normalizer),
		NewTransactionAdapter(repository.NewTransactionRepository(db), projectRepo, auditRepo, txManager, normalizer, decimal.NewFromInt(threshold)),
	)
}

func seedPendingTransaction(t *testing.T, db *gorm.DB, facilityID uuid.UUID, projectID *uuid.UUID, amount int64, docs int) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		TransactionNumber: "TXN-TEST-" + uuid.NewString()[:8],
		FacilityID:        facilityID,
		Type:              model.TransactionTypeExpense,
		ProjectID:         projectID,
		Amount:            decimal.NewFromInt(amount),
		Currency:          "IDR",
		ExchangeRate:      decimal.NewFromInt(1),
		BaseAmount:        decimal.NewFromInt(amount),
		Date:              time.Now(),
		Status:            model.TransactionStatusPending,
	}
	for i := 0; i < docs; i++ {
		txn.Documents = append(txn.Documents, model.TransactionDocument{
			FileName: "receipt.pdf",
			FileURL:  "https://files.example.com/receipt.pdf",
		})
	}
	require.NoError(t, db.Create(txn).Error)
	return txn
}

func TestRegistry_DispatchAcrossKinds(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(newRegistry(db, 1_000_000), nil)
	facility := seedFacility(t, db, "BR-01")

	campaign := &model.Campaign{
		FacilityID:   facility.ID,
		Name:         "Qurban 1448H",
		TargetAmount: decimal.NewFromInt(50_000_000),
		Currency:     "IDR",
		Status:       model.CampaignStatusPendingApproval,
	}
	require.NoError(t, db.Create(campaign).Error)

	partner := &model.Partner{
		FacilityID: facility.ID,
		Name:       "CV Berkah",
		Type:       model.PartnerTypeVendor,
		Status:     model.PartnerStatusPending,
	}
	require.NoError(t, db.Create(partner).Error)

	require.NoError(t, svc.Approve(context.Background(), campaign.ID, nil, ""))
	require.NoError(t, svc.Reject(context.Background(), partner.ID, nil, "incomplete documents"))

	var gotCampaign model.Campaign
	require.NoError(t, db.First(&gotCampaign, "id = ?", campaign.ID).Error)
	assert.Equal(t, model.CampaignStatusActive, gotCampaign.Status)

	var gotPartner model.Partner
	require.NoError(t, db.First(&gotPartner, "id = ?", partner.ID).Error)
	assert.Equal(t, model.PartnerStatusRejected, gotPartner.Status)
}

func TestRegistry_ListMergesAllPendingKinds(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(newRegistry(db, 1_000_000), nil)
	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)

	seedBudget(t, db, facility.ID, project.ID, 1000, "IDR", model.BudgetStatusDraft)
	seedPendingTransaction(t, db, facility.ID, nil, 5000, 0)

	requests, err := svc.ListApprovals(context.Background(), ApprovalFilter{})
	require.NoError(t, err)
	require.Len(t, requests, 2)

	kinds := map[string]bool{}
	for _, r := range requests {
		kinds[r.Kind] = true
		assert.Equal(t, ApprovalStatusPending, r.Status)
		assert.Equal(t, "IDR", r.Currency)
	}
	assert.True(t, kinds[KindBudget])
	assert.True(t, kinds[KindTransaction])
}

func TestAdapters_QueueProjectionDoesNotCountRateWarnings(t *testing.T) {
	// Budgets and campaigns store no exchange rate. Listing them must not
	// pollute the normalizer's missing-rate counter, which tracks genuine
	// data-quality events on writes.
	db := newTestDB(t)
	normalizer := currency.NewNormalizer("IDR")
	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)

	budget := seedBudget(t, db, facility.ID, project.ID, 1000, "USD", model.BudgetStatusDraft)
	campaign := &model.Campaign{
		FacilityID:   facility.ID,
		Name:         "Qurban 1448H",
		TargetAmount: decimal.NewFromInt(500),
		Currency:     "USD",
		Status:       model.CampaignStatusPendingApproval,
	}
	require.NoError(t, db.Create(campaign).Error)

	budgetAdapter := NewBudgetAdapter(repository.NewBudgetRepository(db), nil, normalizer)
	campaignAdapter := NewCampaignAdapter(
		repository.NewCampaignRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		normalizer,
	)

	budgets, err := budgetAdapter.ListPending(context.Background(), repository.PendingFilter{})
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].Amount.Equal(budget.Amount), "rate-less rows project at rate 1")

	campaigns, err := campaignAdapter.ListPending(context.Background(), repository.PendingFilter{})
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.True(t, campaigns[0].Amount.Equal(campaign.TargetAmount))

	assert.Equal(t, int64(0), normalizer.WarningCount())
}

func TestTransactionAdapter_ApproveCascadesToProject(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(newRegistry(db, 1_000_000), nil)
	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)

	txn := seedPendingTransaction(t, db, facility.ID, &project.ID, 750_000, 0)
	require.NoError(t, svc.Approve(context.Background(), txn.ID, nil, ""))

	var gotProject model.Project
	require.NoError(t, db.First(&gotProject, "id = ?", project.ID).Error)
	assert.True(t, gotProject.Spent.Equal(decimal.NewFromInt(750_000)), "project spent = %s", gotProject.Spent)
	assert.True(t, gotProject.Collected.IsZero())

	var activityCount int64
	db.Model(&model.ProjectActivity{}).
		Where("project_id = ? AND type = ?", project.ID, model.ActivityTransactionApproved).
		Count(&activityCount)
	assert.Equal(t, int64(1), activityCount)
}

func TestTransactionAdapter_HighValueCopiesDocumentsToProject(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(newRegistry(db, 1_000_000), nil)
	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)

	small := seedPendingTransaction(t, db, facility.ID, &project.ID, 500_000, 2)
	large := seedPendingTransaction(t, db, facility.ID, &project.ID, 2_000_000, 2)

	require.NoError(t, svc.Approve(context.Background(), small.ID, nil, ""))
	require.NoError(t, svc.Approve(context.Background(), large.ID, nil, ""))

	// Only the above-threshold transaction's attachments are copied over.
	var docs []model.ProjectDocument
	require.NoError(t, db.Where("project_id = ?", project.ID).Find(&docs).Error)
	assert.Len(t, docs, 2)
	for _, doc := range docs {
		require.NotNil(t, doc.SourceID)
	}
}

func TestTransactionAdapter_RejectedTransactionDoesNotCascade(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(newRegistry(db, 1_000_000), nil)
	facility := seedFacility(t, db, "BR-01")
	project := seedProject(t, db, facility.ID)

	txn := seedPendingTransaction(t, db, facility.ID, &project.ID, 750_000, 0)
	require.NoError(t, svc.Reject(context.Background(), txn.ID, nil, "no supporting invoice"))

	var gotTxn model.Transaction
	require.NoError(t, db.First(&gotTxn, "id = ?", txn.ID).Error)
	assert.Equal(t, model.TransactionStatusRejected, gotTxn.Status)
	assert.Equal(t, "no supporting invoice", gotTxn.RejectionReason)

	var gotProject model.Project
	require.NoError(t, db.First(&gotProject, "id = ?", project.ID).Error)
	assert.True(t, gotProject.Spent.IsZero())
}

func TestTransferAdapter_ApproveThroughQueueCompletesTransfer(t *testing.T) {
	db := newTestDB(t)
	svc := NewApprovalService(newRegistry(db, 1_000_000), nil)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	transfer := &model.BudgetTransfer{
		Code:           "TRF-20260828-00001",
		FromFacilityID: from.ID,
		ToFacilityID:   to.ID,
		Amount:         decimal.NewFromInt(100_000),
		Currency:       "IDR",
		ExchangeRate:   decimal.NewFromInt(1),
		BaseAmount:     decimal.NewFromInt(100_000),
		Status:         model.TransferStatusPending,
	}
	require.NoError(t, db.Create(transfer).Error)

	require.NoError(t, svc.Approve(context.Background(), transfer.ID, nil, "queue approval"))

	var gotTransfer model.BudgetTransfer
	require.NoError(t, db.First(&gotTransfer, "id = ?", transfer.ID).Error)
	assert.Equal(t, model.TransferStatusCompleted, gotTransfer.Status)

	var inbound model.Transaction
	require.NoError(t, db.First(&inbound, "transaction_number = ?", transfer.Code).Error)
	assert.Equal(t, model.TransactionStatusApproved, inbound.Status)
}

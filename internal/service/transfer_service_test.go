package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTransferService(db *gorm.DB) TransferService {
	return NewTransferService(
		repository.NewTransferRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewPartnerRepository(db),
		repository.NewFacilityRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		currency.NewNormalizer("IDR"),
	)
}

func TestTransferService_CreateGeneratesCodeAndBaseAmount(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	resp, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: from.ID.String(),
		ToFacilityID:   to.ID.String(),
		Amount:         "100",
		Currency:       "USD",
		ExchangeRate:   "15000",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TRF-\d{8}-\d{5}$`, resp.Code)
	assert.Equal(t, model.TransferStatusPending, resp.Status)
	assert.Equal(t, "1500000", resp.BaseAmount)
	assert.Equal(t, "15000", resp.ExchangeRate)

	var auditCount int64
	db.Model(&model.AuditLog{}).Where("action = ?", model.ActionCreateTransfer).Count(&auditCount)
	assert.Equal(t, int64(1), auditCount)
}

func TestTransferService_CreateRejectsSameFacilityAndBadAmount(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	facility := seedFacility(t, db, "HQ-01")
	other := seedFacility(t, db, "BR-02")

	_, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: facility.ID.String(),
		ToFacilityID:   facility.ID.String(),
		Amount:         "100",
		Currency:       "IDR",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: facility.ID.String(),
		ToFacilityID:   other.ID.String(),
		Amount:         "0",
		Currency:       "IDR",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransferService_ApproveCreatesInboundIncomeTransaction(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	resp, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: from.ID.String(),
		ToFacilityID:   to.ID.String(),
		Amount:         "250000",
		Currency:       "IDR",
		Notes:          "ops funding",
	})
	require.NoError(t, err)

	transferID := uuid.MustParse(resp.ID)
	approver := uuid.New()
	require.NoError(t, svc.ApproveTransfer(context.Background(), transferID, &approver, "approved"))

	var transfer model.BudgetTransfer
	require.NoError(t, db.First(&transfer, "id = ?", transferID).Error)
	assert.Equal(t, model.TransferStatusCompleted, transfer.Status)
	require.NotNil(t, transfer.CompletedAt)
	require.NotNil(t, transfer.ApprovedBy)
	assert.Equal(t, approver, *transfer.ApprovedBy)

	// The destination facility receives a pre-approved income transaction
	// numbered with the transfer code.
	var inbound model.Transaction
	require.NoError(t, db.First(&inbound, "transaction_number = ?", transfer.Code).Error)
	assert.Equal(t, to.ID, inbound.FacilityID)
	assert.Equal(t, model.TransactionTypeIncome, inbound.Type)
	assert.Equal(t, model.TransactionStatusApproved, inbound.Status)
	assert.True(t, inbound.BaseAmount.Equal(decimal.NewFromInt(250000)))
	assert.Contains(t, inbound.Description, transfer.Code)
	assert.Contains(t, inbound.Description, from.Name)
}

func TestTransferService_ApproveLinksSendingFacilityVendor(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	// The sending facility is registered as an approved vendor at the
	// destination; the inbound transaction must reference it.
	vendor := &model.Partner{
		FacilityID: to.ID,
		Name:       from.Name,
		Type:       model.PartnerTypeVendor,
		Status:     model.PartnerStatusApproved,
	}
	require.NoError(t, db.Create(vendor).Error)

	resp, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: from.ID.String(),
		ToFacilityID:   to.ID.String(),
		Amount:         "50000",
		Currency:       "IDR",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveTransfer(context.Background(), uuid.MustParse(resp.ID), nil, ""))

	var inbound model.Transaction
	require.NoError(t, db.First(&inbound, "transaction_number = ?", resp.Code).Error)
	require.NotNil(t, inbound.VendorID)
	assert.Equal(t, vendor.ID, *inbound.VendorID)
}

func TestTransferService_ApproveWithoutVendorRecordStillCompletes(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	resp, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: from.ID.String(),
		ToFacilityID:   to.ID.String(),
		Amount:         "50000",
		Currency:       "IDR",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveTransfer(context.Background(), uuid.MustParse(resp.ID), nil, ""))

	var inbound model.Transaction
	require.NoError(t, db.First(&inbound, "transaction_number = ?", resp.Code).Error)
	assert.Nil(t, inbound.VendorID, "vendor resolution is best-effort, not required")
}

func TestTransferService_ForeignCurrencyApproveNotesOriginalAmount(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	resp, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: from.ID.String(),
		ToFacilityID:   to.ID.String(),
		Amount:         "100",
		Currency:       "USD",
		ExchangeRate:   "15000",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ApproveTransfer(context.Background(), uuid.MustParse(resp.ID), nil, ""))

	var inbound model.Transaction
	require.NoError(t, db.First(&inbound, "transaction_number = ?", resp.Code).Error)
	// Inbound side is always base currency; the original gets recorded in text.
	assert.Equal(t, "IDR", inbound.Currency)
	assert.True(t, inbound.ExchangeRate.Equal(decimal.NewFromInt(1)))
	assert.True(t, inbound.BaseAmount.Equal(decimal.NewFromInt(1500000)))
	assert.Contains(t, inbound.Description, "USD")
}

func TestTransferService_CompletedAndRejectedAreTerminal(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	resp, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: from.ID.String(),
		ToFacilityID:   to.ID.String(),
		Amount:         "1000",
		Currency:       "IDR",
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, svc.ApproveTransfer(context.Background(), id, nil, ""))
	assert.ErrorIs(t, svc.ApproveTransfer(context.Background(), id, nil, ""), ErrInvalidTransition)
	assert.ErrorIs(t, svc.RejectTransfer(context.Background(), id, nil, "too late"), ErrInvalidTransition)

	// Only the one inbound transaction exists.
	var txnCount int64
	db.Model(&model.Transaction{}).Count(&txnCount)
	assert.Equal(t, int64(1), txnCount)
}

func TestTransferService_RejectRecordsReasonWithoutTransaction(t *testing.T) {
	db := newTestDB(t)
	svc := newTransferService(db)
	from := seedFacility(t, db, "HQ-01")
	to := seedFacility(t, db, "BR-02")

	resp, err := svc.CreateTransfer(context.Background(), "", CreateTransferRequest{
		FromFacilityID: from.ID.String(),
		ToFacilityID:   to.ID.String(),
		Amount:         "1000",
		Currency:       "IDR",
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	rejecter := uuid.New()
	require.NoError(t, svc.RejectTransfer(context.Background(), id, &rejecter, "insufficient funds"))

	var transfer model.BudgetTransfer
	require.NoError(t, db.First(&transfer, "id = ?", id).Error)
	assert.Equal(t, model.TransferStatusRejected, transfer.Status)
	assert.Equal(t, "insufficient funds", transfer.RejectionReason)
	require.NotNil(t, transfer.RejectedBy)
	assert.Equal(t, rejecter, *transfer.RejectedBy)

	var txnCount int64
	db.Model(&model.Transaction{}).Count(&txnCount)
	assert.Equal(t, int64(0), txnCount, "rejection must not move money")
}

package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTransactionService(db *gorm.DB) TransactionService {
	return NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		currency.NewNormalizer("IDR"),
	)
}

func TestTransactionService_CreateNumbersAndNormalizes(t *testing.T) {
	db := newTestDB(t)
	svc := newTransactionService(db)
	facility := seedFacility(t, db, "BR-01")

	resp, err := svc.CreateTransaction(context.Background(), "", CreateTransactionRequest{
		FacilityID:   facility.ID.String(),
		Type:         model.TransactionTypeExpense,
		Amount:       "100",
		Currency:     "USD",
		ExchangeRate: "15000",
		Description:  "printer supplies",
		Documents: []TransactionDocumentPayload{
			{FileName: "invoice.pdf", FileURL: "https://files.example.com/invoice.pdf"},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TXN-\d{8}-\d{5}$`, resp.TransactionNumber)
	assert.Equal(t, model.TransactionStatusPending, resp.Status)
	assert.Equal(t, "1500000", resp.BaseAmount)
	assert.Equal(t, "15000", resp.ExchangeRate)

	var docCount int64
	db.Model(&model.TransactionDocument{}).Count(&docCount)
	assert.Equal(t, int64(1), docCount)

	var auditCount int64
	db.Model(&model.AuditLog{}).Where("action = ?", model.ActionCreateTx).Count(&auditCount)
	assert.Equal(t, int64(1), auditCount)
}

func TestTransactionService_NumbersAreSequentialPerDay(t *testing.T) {
	db := newTestDB(t)
	svc := newTransactionService(db)
	facility := seedFacility(t, db, "BR-01")

	req := CreateTransactionRequest{
		FacilityID: facility.ID.String(),
		Type:       model.TransactionTypeIncome,
		Amount:     "1000",
	}

	first, err := svc.CreateTransaction(context.Background(), "", req)
	require.NoError(t, err)
	second, err := svc.CreateTransaction(context.Background(), "", req)
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionNumber, second.TransactionNumber)
	assert.Equal(t, first.TransactionNumber[:len(first.TransactionNumber)-5], second.TransactionNumber[:len(second.TransactionNumber)-5])
}

func TestTransactionService_CreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTransactionService(db)
	facility := seedFacility(t, db, "BR-01")

	_, err := svc.CreateTransaction(context.Background(), "", CreateTransactionRequest{
		FacilityID: facility.ID.String(),
		Type:       "TRANSFER",
		Amount:     "100",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTransaction(context.Background(), "", CreateTransactionRequest{
		FacilityID: facility.ID.String(),
		Type:       model.TransactionTypeIncome,
		Amount:     "0",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTransaction(context.Background(), "", CreateTransactionRequest{
		FacilityID: facility.ID.String(),
		Type:       model.TransactionTypeIncome,
		Amount:     "100",
		Date:       "28-08-2026",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateTransaction(context.Background(), "", CreateTransactionRequest{
		FacilityID: facility.ID.String(),
		Type:       model.TransactionTypeIncome,
		Amount:     "100",
		ProjectID:  "not-a-uuid",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransactionService_CurrencyDefaultsToBase(t *testing.T) {
	db := newTestDB(t)
	svc := newTransactionService(db)
	facility := seedFacility(t, db, "BR-01")

	resp, err := svc.CreateTransaction(context.Background(), "", CreateTransactionRequest{
		FacilityID: facility.ID.String(),
		Type:       model.TransactionTypeIncome,
		Amount:     "2500",
	})
	require.NoError(t, err)

	assert.Equal(t, "IDR", resp.Currency)
	assert.Equal(t, "1", resp.ExchangeRate)
	assert.Equal(t, "2500", resp.BaseAmount)
}

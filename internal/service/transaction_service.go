package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type TransactionDocumentPayload struct {
	FileName string `json:"file_name" binding:"required"`
	FileURL  string `json:"file_url" binding:"required"`
}

type CreateTransactionRequest struct {
	FacilityID   string                       `json:"facility_id" binding:"required"`
	Type         string                       `json:"type" binding:"required"`
	CategoryID   string                       `json:"category_id"`
	ProjectID    string                       `json:"project_id"`
	VendorID     string                       `json:"vendor_id"`
	Amount       string                       `json:"amount" binding:"required"` // decimal string
	Currency     string                       `json:"currency"`
	ExchangeRate string                       `json:"exchange_rate"`
	Date         string                       `json:"date"` // RFC3339, defaults to now
	Description  string                       `json:"description"`
	Documents    []TransactionDocumentPayload `json:"documents"`
}

type TransactionResponse struct {
	ID                string `json:"id"`
	TransactionNumber string `json:"transaction_number"`
	FacilityID        string `json:"facility_id"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	ExchangeRate      string `json:"exchange_rate"`
	BaseAmount        string `json:"base_amount"`
	Date              string `json:"date"`
	Description       string `json:"description"`
	Status            string `json:"status"`
	RejectionReason   string `json:"rejection_reason,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// --- Interface ---

// TransactionService covers intake and reads for income/expense entries.
// New transactions are PENDING; the decision goes through the approval
// queue, which also owns the project cascade.
type TransactionService interface {
	CreateTransaction(ctx context.Context, userID string, req CreateTransactionRequest) (TransactionResponse, error)
	GetTransaction(ctx context.Context, id string) (TransactionResponse, error)
	ListTransactions(ctx context.Context, status string, page, limit int) ([]TransactionResponse, int64, error)
}

type transactionService struct {
	txnRepo    repository.TransactionRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	normalizer *currency.Normalizer
}

func NewTransactionService(
	txnRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	normalizer *currency.Normalizer,
) TransactionService {
	return &transactionService{txnRepo: txnRepo, auditRepo: auditRepo, txManager: txManager, normalizer: normalizer}
}

// --- Implementation ---

func (s *transactionService) CreateTransaction(ctx context.Context, userID string, req CreateTransactionRequest) (TransactionResponse, error) {
	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		return TransactionResponse{}, fmt.Errorf("%w: invalid facility_id", ErrValidation)
	}
	if req.Type != model.TransactionTypeIncome && req.Type != model.TransactionTypeExpense {
		return TransactionResponse{}, fmt.Errorf("%w: type must be INCOME or EXPENSE", ErrValidation)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return TransactionResponse{}, fmt.Errorf("%w: invalid amount", ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return TransactionResponse{}, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}

	code := req.Currency
	if code == "" {
		code = s.normalizer.Base()
	}

	rate := decimal.Zero
	if req.ExchangeRate != "" {
		rate, err = decimal.NewFromString(req.ExchangeRate)
		if err != nil {
			return TransactionResponse{}, fmt.Errorf("%w: invalid exchange_rate", ErrValidation)
		}
	}

	date := time.Now()
	if req.Date != "" {
		parsed, parseErr := time.Parse(time.RFC3339, req.Date)
		if parseErr != nil {
			return TransactionResponse{}, fmt.Errorf("%w: date must be RFC3339", ErrValidation)
		}
		date = parsed
	}

	var categoryID, projectID, vendorID *uuid.UUID
	if categoryID, err = parseOptionalID(req.CategoryID, "category_id"); err != nil {
		return TransactionResponse{}, err
	}
	if projectID, err = parseOptionalID(req.ProjectID, "project_id"); err != nil {
		return TransactionResponse{}, err
	}
	if vendorID, err = parseOptionalID(req.VendorID, "vendor_id"); err != nil {
		return TransactionResponse{}, err
	}

	var requesterID *uuid.UUID
	if userID != "" {
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			requesterID = &parsed
		}
	}

	baseAmount := currency.Round(s.normalizer.Normalize(amount, code, rate), s.normalizer.Base())

	txn := model.Transaction{
		FacilityID:   facilityID,
		Type:         req.Type,
		CategoryID:   categoryID,
		ProjectID:    projectID,
		VendorID:     vendorID,
		Amount:       amount,
		Currency:     code,
		ExchangeRate: s.normalizer.EffectiveRate(code, rate),
		BaseAmount:   baseAmount,
		Date:         date,
		Description:  req.Description,
		Status:       model.TransactionStatusPending,
		RequestedBy:  requesterID,
	}
	for _, doc := range req.Documents {
		txn.Documents = append(txn.Documents, model.TransactionDocument{
			FileName: doc.FileName,
			FileURL:  doc.FileURL,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.txnRepo.NextNumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate transaction number: %w", numErr)
		}
		txn.TransactionNumber = number

		if createErr := s.txnRepo.Create(txCtx, &txn); createErr != nil {
			return fmt.Errorf("failed to create transaction: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"number":      txn.TransactionNumber,
			"type":        txn.Type,
			"amount":      req.Amount,
			"currency":    code,
			"base_amount": baseAmount.String(),
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionCreateTx,
			EntityID:   txn.ID.String(),
			EntityName: txn.TransactionNumber,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return TransactionResponse{}, err
	}

	return toTransactionResponse(txn), nil
}

func (s *transactionService) GetTransaction(ctx context.Context, id string) (TransactionResponse, error) {
	txnID, err := uuid.Parse(id)
	if err != nil {
		return TransactionResponse{}, fmt.Errorf("%w: invalid transaction id", ErrValidation)
	}
	txn, err := s.txnRepo.FindByID(ctx, txnID)
	if err != nil {
		return TransactionResponse{}, fmt.Errorf("transaction not found: %w", err)
	}
	return toTransactionResponse(*txn), nil
}

func (s *transactionService) ListTransactions(ctx context.Context, status string, page, limit int) ([]TransactionResponse, int64, error) {
	txns, total, err := s.txnRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	result := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		result = append(result, toTransactionResponse(t))
	}
	return result, total, nil
}

// --- Helpers ---

func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", ErrValidation, field)
	}
	return &parsed, nil
}

func toTransactionResponse(t model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                t.ID.String(),
		TransactionNumber: t.TransactionNumber,
		FacilityID:        t.FacilityID.String(),
		Type:              t.Type,
		Amount:            t.Amount.String(),
		Currency:          t.Currency,
		ExchangeRate:      t.ExchangeRate.String(),
		BaseAmount:        t.BaseAmount.String(),
		Date:              t.Date.Format(time.RFC3339),
		Description:       t.Description,
		Status:            t.Status,
		RejectionReason:   t.RejectionReason,
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
	}
}

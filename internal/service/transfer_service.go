package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTransferRequest struct {
	FromFacilityID string `json:"from_facility_id" binding:"required"`
	ToFacilityID   string `json:"to_facility_id" binding:"required"`
	Amount         string `json:"amount" binding:"required"` // decimal string
	Currency       string `json:"currency" binding:"required"`
	ExchangeRate   string `json:"exchange_rate"` // decimal string, optional for base currency
	Notes          string `json:"notes"`
}

type TransferResponse struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	FromFacilityID  string  `json:"from_facility_id"`
	ToFacilityID    string  `json:"to_facility_id"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	ExchangeRate    string  `json:"exchange_rate"`
	BaseAmount      string  `json:"base_amount"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	CompletedAt     *string `json:"completed_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

// TransferService runs the inter-facility transfer state machine:
// PENDING -> COMPLETED (approve: creates the inbound income transaction at
// the destination) or PENDING -> REJECTED. Both outcomes are terminal.
type TransferService interface {
	CreateTransfer(ctx context.Context, userID string, req CreateTransferRequest) (TransferResponse, error)
	GetTransfer(ctx context.Context, id string) (TransferResponse, error)
	ListTransfers(ctx context.Context, status string, page, limit int) ([]TransferResponse, int64, error)
	ApproveTransfer(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error
	RejectTransfer(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error
}

type transferService struct {
	transferRepo repository.TransferRepository
	txnRepo      repository.TransactionRepository
	categoryRepo repository.CategoryRepository
	partnerRepo  repository.PartnerRepository
	facilityRepo repository.FacilityRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	normalizer   *currency.Normalizer
}

func NewTransferService(
	transferRepo repository.TransferRepository,
	txnRepo repository.TransactionRepository,
	categoryRepo repository.CategoryRepository,
	partnerRepo repository.PartnerRepository,
	facilityRepo repository.FacilityRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	normalizer *currency.Normalizer,
) TransferService {
	return &transferService{
		transferRepo: transferRepo,
		txnRepo:      txnRepo,
		categoryRepo: categoryRepo,
		partnerRepo:  partnerRepo,
		facilityRepo: facilityRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		normalizer:   normalizer,
	}
}

// --- Implementation ---

func (s *transferService) CreateTransfer(ctx context.Context, userID string, req CreateTransferRequest) (TransferResponse, error) {
	fromID, err := uuid.Parse(req.FromFacilityID)
	if err != nil {
		return TransferResponse{}, fmt.Errorf("%w: invalid from_facility_id", ErrValidation)
	}
	toID, err := uuid.Parse(req.ToFacilityID)
	if err != nil {
		return TransferResponse{}, fmt.Errorf("%w: invalid to_facility_id", ErrValidation)
	}
	if fromID == toID {
		return TransferResponse{}, fmt.Errorf("%w: source and destination facility must differ", ErrValidation)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return TransferResponse{}, fmt.Errorf("%w: invalid amount", ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return TransferResponse{}, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}

	rate := decimal.Zero
	if req.ExchangeRate != "" {
		rate, err = decimal.NewFromString(req.ExchangeRate)
		if err != nil {
			return TransferResponse{}, fmt.Errorf("%w: invalid exchange_rate", ErrValidation)
		}
	}

	// Normalized amount is computed and persisted once, at creation time.
	baseAmount := currency.Round(s.normalizer.Normalize(amount, req.Currency, rate), s.normalizer.Base())

	var requesterID *uuid.UUID
	if userID != "" {
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			requesterID = &parsed
		}
	}

	transfer := model.BudgetTransfer{
		FromFacilityID: fromID,
		ToFacilityID:   toID,
		Amount:         amount,
		Currency:       req.Currency,
		ExchangeRate:   s.normalizer.EffectiveRate(req.Currency, rate),
		BaseAmount:     baseAmount,
		Status:         model.TransferStatusPending,
		Notes:          req.Notes,
		RequestedBy:    requesterID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		code, codeErr := s.transferRepo.NextCode(txCtx)
		if codeErr != nil {
			return fmt.Errorf("failed to generate transfer code: %w", codeErr)
		}
		transfer.Code = code

		if createErr := s.transferRepo.Create(txCtx, &transfer); createErr != nil {
			return fmt.Errorf("failed to create transfer: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"code":        transfer.Code,
			"amount":      req.Amount,
			"currency":    req.Currency,
			"base_amount": baseAmount.String(),
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionCreateTransfer,
			EntityID:   transfer.ID.String(),
			EntityName: transfer.Code,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return TransferResponse{}, err
	}

	return toTransferResponse(transfer), nil
}

func (s *transferService) GetTransfer(ctx context.Context, id string) (TransferResponse, error) {
	transferID, err := uuid.Parse(id)
	if err != nil {
		return TransferResponse{}, fmt.Errorf("%w: invalid transfer id", ErrValidation)
	}
	transfer, err := s.transferRepo.FindByID(ctx, transferID)
	if err != nil {
		return TransferResponse{}, fmt.Errorf("transfer not found: %w", err)
	}
	return toTransferResponse(*transfer), nil
}

func (s *transferService) ListTransfers(ctx context.Context, status string, page, limit int) ([]TransferResponse, int64, error) {
	transfers, total, err := s.transferRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transfers: %w", err)
	}
	result := make([]TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		result = append(result, toTransferResponse(t))
	}
	return result, total, nil
}

// ApproveTransfer completes a pending transfer: it creates the inbound
// income transaction at the destination facility (traceable through the
// transfer code as its transaction number) and marks the transfer
// completed. The category and sending-facility vendor record are resolved
// best-effort; the transfer completes without them.
func (s *transferService) ApproveTransfer(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Re-fetch inside the transaction; never trust stale in-memory state
		// for a terminal transition.
		transfer, err := s.transferRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("transfer not found: %w", err)
		}
		if transfer.Status != model.TransferStatusPending {
			return fmt.Errorf("%w: transfer is already %s", ErrInvalidTransition, transfer.Status)
		}

		description := fmt.Sprintf("Inbound budget transfer %s", transfer.Code)
		fromFacility, facErr := s.facilityRepo.FindByID(txCtx, transfer.FromFacilityID)
		if facErr == nil {
			description = fmt.Sprintf("Inbound budget transfer %s from %s", transfer.Code, fromFacility.Name)
		}
		if transfer.Currency != s.normalizer.Base() {
			description = fmt.Sprintf("%s (original %s %s @ %s)",
				description, transfer.Amount.String(), transfer.Currency, transfer.ExchangeRate.String())
		}

		inbound := model.Transaction{
			TransactionNumber: transfer.Code,
			FacilityID:        transfer.ToFacilityID,
			Type:              model.TransactionTypeIncome,
			Amount:            transfer.BaseAmount,
			Currency:          s.normalizer.Base(),
			ExchangeRate:      decimal.NewFromInt(1),
			BaseAmount:        transfer.BaseAmount,
			Date:              time.Now(),
			Description:       description,
			Status:            model.TransactionStatusApproved,
			ApprovedBy:        actor,
		}

		// Best-effort enrichment: category and counterparty vendor record.
		if cat, catErr := s.categoryRepo.FindByNameAndType(txCtx, "Budget Transfer", model.CategoryTypeIncome, transfer.ToFacilityID); catErr == nil {
			inbound.CategoryID = &cat.ID
		} else if !errors.Is(catErr, gorm.ErrRecordNotFound) {
			log.Printf("transfer workflow: category lookup failed for %s: %v", transfer.Code, catErr)
		}

		// The sending facility may be registered as a vendor at the
		// destination; link it when it is.
		if facErr == nil {
			if vendor, vendErr := s.partnerRepo.FindApprovedByName(txCtx, transfer.ToFacilityID, fromFacility.Name); vendErr == nil {
				inbound.VendorID = &vendor.ID
			} else if !errors.Is(vendErr, gorm.ErrRecordNotFound) {
				log.Printf("transfer workflow: vendor lookup failed for %s: %v", transfer.Code, vendErr)
			}
		}

		if createErr := s.txnRepo.Create(txCtx, &inbound); createErr != nil {
			return fmt.Errorf("failed to create inbound transaction: %w", createErr)
		}

		now := time.Now()
		transfer.Status = model.TransferStatusCompleted
		transfer.ApprovedBy = actor
		transfer.ApprovedAt = &now
		transfer.CompletedAt = &now
		if saveErr := s.transferRepo.Update(txCtx, transfer); saveErr != nil {
			return fmt.Errorf("failed to complete transfer: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"code":           transfer.Code,
			"transaction_id": inbound.ID.String(),
			"base_amount":    transfer.BaseAmount.String(),
			"comment":        comment,
		})
		audit := &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionCompleteTransfer,
			EntityID:   transfer.ID.String(),
			EntityName: transfer.Code,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			log.Printf("transfer workflow: audit write failed for %s: %v", transfer.ID, auditErr)
		}
		return nil
	})
}

// RejectTransfer records the rejection and stops. No compensating
// transaction is created.
func (s *transferService) RejectTransfer(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		transfer, err := s.transferRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("transfer not found: %w", err)
		}
		if transfer.Status != model.TransferStatusPending {
			return fmt.Errorf("%w: transfer is already %s", ErrInvalidTransition, transfer.Status)
		}

		now := time.Now()
		transfer.Status = model.TransferStatusRejected
		transfer.RejectedBy = actor
		transfer.RejectedAt = &now
		transfer.RejectionReason = reason
		if saveErr := s.transferRepo.Update(txCtx, transfer); saveErr != nil {
			return fmt.Errorf("failed to reject transfer: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"code": transfer.Code, "reason": reason})
		audit := &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionRejectRequest,
			EntityID:   transfer.ID.String(),
			EntityName: transfer.Code,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			log.Printf("transfer workflow: audit write failed for %s: %v", transfer.ID, auditErr)
		}
		return nil
	})
}

// --- Helpers ---

func toTransferResponse(t model.BudgetTransfer) TransferResponse {
	resp := TransferResponse{
		ID:              t.ID.String(),
		Code:            t.Code,
		FromFacilityID:  t.FromFacilityID.String(),
		ToFacilityID:    t.ToFacilityID.String(),
		Amount:          t.Amount.String(),
		Currency:        t.Currency,
		ExchangeRate:    t.ExchangeRate.String(),
		BaseAmount:      t.BaseAmount.String(),
		Status:          t.Status,
		Notes:           t.Notes,
		RejectionReason: t.RejectionReason,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

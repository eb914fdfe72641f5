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

// TransactionAdapter exposes income/expense transactions to the approval
// queue. Approval of a project-linked transaction cascades into the
// project's cumulative totals and activity log; attachments of high-value
// transactions are copied into the project's document store.
type TransactionAdapter struct {
	repo        repository.TransactionRepository
	projectRepo repository.ProjectRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	normalizer  *currency.Normalizer

	// highValueThreshold is compared against the base-currency amount to
	// decide whether attachments get copied to the project.
	highValueThreshold decimal.Decimal
}

func NewTransactionAdapter(
	repo repository.TransactionRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	normalizer *currency.Normalizer,
	highValueThreshold decimal.Decimal,
) *TransactionAdapter {
	return &TransactionAdapter{
		repo:               repo,
		projectRepo:        projectRepo,
		auditRepo:          auditRepo,
		txManager:          txManager,
		normalizer:         normalizer,
		highValueThreshold: highValueThreshold,
	}
}

func (a *TransactionAdapter) Kind() string     { return KindTransaction }
func (a *TransactionAdapter) Module() string   { return ModuleFinance }
func (a *TransactionAdapter) Priority() string { return PriorityMedium }

func (a *TransactionAdapter) Owns(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *TransactionAdapter) ListPending(ctx context.Context, filter repository.PendingFilter) ([]ApprovalRequest, error) {
	txns, err := a.repo.ListPending(ctx, filter)
	if err != nil {
		return nil, err
	}
	requests := make([]ApprovalRequest, 0, len(txns))
	for i := range txns {
		requests = append(requests, a.toRequest(&txns[i]))
	}
	return requests, nil
}

func (a *TransactionAdapter) CountByStatus(ctx context.Context, status string, facilityID *uuid.UUID) (int64, error) {
	// Transaction statuses already use the unified vocabulary.
	return a.repo.CountByStatus(ctx, status, facilityID)
}

func (a *TransactionAdapter) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	var approved model.Transaction

	err := a.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		txn, err := a.repo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("transaction not found: %w", err)
		}
		if txn.Status != model.TransactionStatusPending {
			return fmt.Errorf("%w: transaction is already %s", ErrInvalidTransition, txn.Status)
		}

		now := time.Now()
		txn.Status = model.TransactionStatusApproved
		txn.ApprovedBy = actor
		txn.ApprovedAt = &now
		if err := a.repo.Update(txCtx, txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"kind":        a.Kind(),
			"base_amount": txn.BaseAmount.String(),
			"comment":     comment,
		})
		audit := &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionApproveRequest,
			EntityID:   txn.ID.String(),
			EntityName: txn.TransactionNumber,
			Details:    string(details),
		}
		if err := a.auditRepo.Log(txCtx, audit); err != nil {
			log.Printf("transaction adapter: audit write failed for %s: %v", txn.ID, err)
		}

		approved = *txn
		return nil
	})
	if err != nil {
		return err
	}

	if approved.ProjectID != nil {
		a.cascadeToProject(ctx, &approved, actor)
	}

	return nil
}

func (a *TransactionAdapter) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	return a.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		txn, err := a.repo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("transaction not found: %w", err)
		}
		if txn.Status != model.TransactionStatusPending {
			return fmt.Errorf("%w: transaction is already %s", ErrInvalidTransition, txn.Status)
		}

		txn.Status = model.TransactionStatusRejected
		txn.RejectionReason = reason
		if err := a.repo.Update(txCtx, txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{"kind": a.Kind(), "reason": reason})
		audit := &model.AuditLog{
			UserID:     actor,
			Action:     model.ActionRejectRequest,
			EntityID:   txn.ID.String(),
			EntityName: txn.TransactionNumber,
			Details:    string(details),
		}
		if err := a.auditRepo.Log(txCtx, audit); err != nil {
			log.Printf("transaction adapter: audit write failed for %s: %v", txn.ID, err)
		}
		return nil
	})
}

// cascadeToProject applies the post-approval project updates. Best-effort:
// failures are logged, the approval stands.
func (a *TransactionAdapter) cascadeToProject(ctx context.Context, txn *model.Transaction, actor *uuid.UUID) {
	projectID := *txn.ProjectID
	amount := currency.Round(txn.BaseAmount, a.normalizer.Base())

	var err error
	if txn.Type == model.TransactionTypeExpense {
		err = a.projectRepo.AddSpent(ctx, projectID, amount)
	} else {
		err = a.projectRepo.AddCollected(ctx, projectID, amount)
	}
	if err != nil {
		log.Printf("transaction adapter: project total cascade failed for %s: %v", txn.ID, err)
		return
	}

	activity := &model.ProjectActivity{
		ProjectID:   projectID,
		Type:        model.ActivityTransactionApproved,
		Description: fmt.Sprintf("Transaction %s approved: %s %s %s", txn.TransactionNumber, txn.Type, amount.String(), a.normalizer.Base()),
		Amount:      amount,
		CreatedBy:   actor,
	}
	if err := a.projectRepo.AppendActivity(ctx, activity); err != nil {
		log.Printf("transaction adapter: project activity append failed for %s: %v", txn.ID, err)
	}

	if txn.BaseAmount.GreaterThanOrEqual(a.highValueThreshold) {
		for _, doc := range txn.Documents {
			sourceID := doc.ID
			copyErr := a.projectRepo.CreateDocument(ctx, &model.ProjectDocument{
				ProjectID: projectID,
				SourceID:  &sourceID,
				FileName:  doc.FileName,
				FileURL:   doc.FileURL,
			})
			if copyErr != nil {
				log.Printf("transaction adapter: document copy failed for %s: %v", doc.ID, copyErr)
			}
		}
	}
}

func (a *TransactionAdapter) toRequest(t *model.Transaction) ApprovalRequest {
	status := ApprovalStatusPending
	switch t.Status {
	case model.TransactionStatusApproved:
		status = ApprovalStatusApproved
	case model.TransactionStatusRejected:
		status = ApprovalStatusRejected
	}

	label := "expense"
	if t.Type == model.TransactionTypeIncome {
		label = "income"
	}

	return ApprovalRequest{
		ID:              t.ID,
		Kind:            a.Kind(),
		Type:            label,
		Module:          a.Module(),
		Title:           t.TransactionNumber,
		Description:     t.Description,
		Amount:          a.normalizer.Normalize(t.Amount, t.Currency, t.ExchangeRate),
		Currency:        a.normalizer.Base(),
		Status:          status,
		Priority:        a.Priority(),
		RequestedBy:     t.RequestedBy,
		RequestedAt:     t.CreatedAt,
		FacilityID:      t.FacilityID,
		RelatedEntityID: t.ID,
		Metadata: map[string]interface{}{
			"original_amount":   t.Amount.String(),
			"original_currency": t.Currency,
			"exchange_rate":     t.ExchangeRate.String(),
			"transaction_type":  t.Type,
			"date":              t.Date.Format(time.RFC3339),
		},
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/currency"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetConsolidator implements the budget approval algorithm.
//
// Branches routinely submit incremental budget requests for the same
// project/year. Approving them naively would create N competing active rows
// for one scope, so approval either MERGES the new budget into the existing
// active one or ACTIVATES it when none exists. The merged submission is
// never deleted: it stays as a cancelled row with a merge annotation in its
// name, preserving the audit trail while keeping the visible active-budget
// set normalized to at most one row per (facility, scope, scope_id, year).
type BudgetConsolidator struct {
	budgetRepo  repository.BudgetRepository
	projectRepo repository.ProjectRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	normalizer  *currency.Normalizer
}

func NewBudgetConsolidator(
	budgetRepo repository.BudgetRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	normalizer *currency.Normalizer,
) *BudgetConsolidator {
	return &BudgetConsolidator{
		budgetRepo:  budgetRepo,
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		normalizer:  normalizer,
	}
}

// Approve runs the merge-or-activate decision for one draft budget.
//
// The whole decision runs in a single transaction with the scope key held
// under an advisory lock, so two concurrent approvals for the same scope
// cannot both observe "no active budget" and activate twice. The project
// cascade runs after commit and is best-effort: its failure is logged, never
// propagated (availability over strict consistency; this is not ledger
// data).
func (c *BudgetConsolidator) Approve(ctx context.Context, id uuid.UUID, actor *uuid.UUID, comment string) error {
	var approved model.Budget

	err := c.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		budget, err := c.budgetRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("budget not found: %w", err)
		}
		if budget.Status != model.BudgetStatusDraft {
			return fmt.Errorf("%w: budget is already %s", ErrInvalidTransition, budget.Status)
		}

		c.budgetRepo.LockScope(txCtx, budget.FacilityID, budget.Scope, budget.ScopeID, budget.Year)

		existing, err := c.budgetRepo.FindActiveForScope(txCtx, budget.FacilityID, budget.Scope, budget.ScopeID, budget.Year, budget.ID)
		switch {
		case err == nil:
			// Merge path. Amounts are summed numerically, which is only
			// sound when both budgets share a currency, so cross-currency
			// merge is refused outright rather than silently converted.
			if existing.Currency != budget.Currency {
				return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, budget.Currency, existing.Currency)
			}
			if mergeErr := c.budgetRepo.AddAmount(txCtx, existing.ID, budget.Amount); mergeErr != nil {
				return fmt.Errorf("failed to merge into active budget: %w", mergeErr)
			}

			budget.Status = model.BudgetStatusCancelled
			budget.Name = fmt.Sprintf("%s (merged into %s)", budget.Name, existing.Name)
			if saveErr := c.budgetRepo.Update(txCtx, budget); saveErr != nil {
				return fmt.Errorf("failed to cancel merged budget: %w", saveErr)
			}

			c.writeAudit(txCtx, actor, model.ActionMergeBudget, budget, map[string]interface{}{
				"merged_into": existing.ID.String(),
				"amount":      budget.Amount.String(),
				"comment":     comment,
			})

		case errors.Is(err, gorm.ErrRecordNotFound):
			// Activate path.
			budget.Status = model.BudgetStatusActive
			if saveErr := c.budgetRepo.Update(txCtx, budget); saveErr != nil {
				return fmt.Errorf("failed to activate budget: %w", saveErr)
			}

			c.writeAudit(txCtx, actor, model.ActionActivateBudget, budget, map[string]interface{}{
				"amount":  budget.Amount.String(),
				"comment": comment,
			})

		default:
			return fmt.Errorf("failed to look up active budget: %w", err)
		}

		approved = *budget
		return nil
	})
	if err != nil {
		return err
	}

	// Cascade: the project's cumulative budget grows by the newly approved
	// submission's own amount (not the merged total) so it reflects total
	// approved allocations regardless of how many rows were consolidated.
	if approved.Scope == model.BudgetScopeProject {
		c.cascadeToProject(ctx, &approved, actor)
	}

	return nil
}

// Reject cancels a draft budget. No cascade.
func (c *BudgetConsolidator) Reject(ctx context.Context, id uuid.UUID, actor *uuid.UUID, reason string) error {
	return c.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		budget, err := c.budgetRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("budget not found: %w", err)
		}
		if budget.Status != model.BudgetStatusDraft {
			return fmt.Errorf("%w: budget is already %s", ErrInvalidTransition, budget.Status)
		}

		budget.Status = model.BudgetStatusCancelled
		if saveErr := c.budgetRepo.Update(txCtx, budget); saveErr != nil {
			return fmt.Errorf("failed to cancel budget: %w", saveErr)
		}

		c.writeAudit(txCtx, actor, model.ActionRejectRequest, budget, map[string]interface{}{
			"reason": reason,
		})
		return nil
	})
}

func (c *BudgetConsolidator) cascadeToProject(ctx context.Context, budget *model.Budget, actor *uuid.UUID) {
	amount := currency.Round(c.normalizer.Normalize(budget.Amount, budget.Currency, decimal.Zero), c.normalizer.Base())

	if err := c.projectRepo.AddBudget(ctx, budget.ScopeID, amount); err != nil {
		log.Printf("budget consolidation: project budget cascade failed for budget %s: %v", budget.ID, err)
		return
	}

	activity := &model.ProjectActivity{
		ProjectID:   budget.ScopeID,
		Type:        model.ActivityBudgetApproved,
		Description: fmt.Sprintf("Budget %q approved: +%s %s", budget.Name, amount.String(), c.normalizer.Base()),
		Amount:      amount,
		CreatedBy:   actor,
	}
	if err := c.projectRepo.AppendActivity(ctx, activity); err != nil {
		log.Printf("budget consolidation: project activity append failed for budget %s: %v", budget.ID, err)
	}
}

func (c *BudgetConsolidator) writeAudit(ctx context.Context, actor *uuid.UUID, action string, budget *model.Budget, details map[string]interface{}) {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   budget.ID.String(),
		EntityName: budget.Name,
		Details:    string(payload),
	}
	if err := c.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("budget consolidation: audit write failed for budget %s: %v", budget.ID, err)
	}
}

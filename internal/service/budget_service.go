package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateBudgetRequest struct {
	FacilityID  string `json:"facility_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Year        int    `json:"year" binding:"required"`
	Period      string `json:"period"`
	Scope       string `json:"scope" binding:"required"`
	ScopeID     string `json:"scope_id" binding:"required"`
	Amount      string `json:"amount" binding:"required"` // decimal string
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type BudgetResponse struct {
	ID          string `json:"id"`
	FacilityID  string `json:"facility_id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	Period      string `json:"period"`
	Scope       string `json:"scope"`
	ScopeID     string `json:"scope_id"`
	Amount      string `json:"amount"`
	Spent       string `json:"spent"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

// BudgetService covers budget intake and reads. Budgets are created DRAFT;
// activation and merging happen in the consolidation engine when the budget
// is approved through the queue.
type BudgetService interface {
	CreateBudget(ctx context.Context, userID string, req CreateBudgetRequest) (BudgetResponse, error)
	GetBudget(ctx context.Context, id string) (BudgetResponse, error)
	ListBudgets(ctx context.Context, status string, page, limit int) ([]BudgetResponse, int64, error)
}

type budgetService struct {
	budgetRepo repository.BudgetRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewBudgetService(budgetRepo repository.BudgetRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) BudgetService {
	return &budgetService{budgetRepo: budgetRepo, auditRepo: auditRepo, txManager: txManager}
}

// --- Validation helpers ---

var validBudgetPeriods = map[string]bool{
	model.BudgetPeriodYearly:    true,
	model.BudgetPeriodQuarterly: true,
	model.BudgetPeriodMonthly:   true,
}

var validBudgetScopes = map[string]bool{
	model.BudgetScopeDepartment: true,
	model.BudgetScopeProject:    true,
	model.BudgetScopeCategory:   true,
}

// --- Implementation ---

func (s *budgetService) CreateBudget(ctx context.Context, userID string, req CreateBudgetRequest) (BudgetResponse, error) {
	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		return BudgetResponse{}, fmt.Errorf("%w: invalid facility_id", ErrValidation)
	}
	scopeID, err := uuid.Parse(req.ScopeID)
	if err != nil {
		return BudgetResponse{}, fmt.Errorf("%w: invalid scope_id", ErrValidation)
	}
	if !validBudgetScopes[req.Scope] {
		return BudgetResponse{}, fmt.Errorf("%w: scope must be one of: DEPARTMENT, PROJECT, CATEGORY", ErrValidation)
	}

	period := req.Period
	if period == "" {
		period = model.BudgetPeriodYearly
	}
	if !validBudgetPeriods[period] {
		return BudgetResponse{}, fmt.Errorf("%w: period must be one of: YEARLY, QUARTERLY, MONTHLY", ErrValidation)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return BudgetResponse{}, fmt.Errorf("%w: invalid amount", ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return BudgetResponse{}, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}

	currentYear := time.Now().Year()
	if req.Year < currentYear-1 || req.Year > currentYear+5 {
		return BudgetResponse{}, fmt.Errorf("%w: year out of range", ErrValidation)
	}

	var requesterID *uuid.UUID
	if userID != "" {
		if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
			requesterID = &parsed
		}
	}

	budget := model.Budget{
		FacilityID:  facilityID,
		Name:        req.Name,
		Year:        req.Year,
		Period:      period,
		Scope:       req.Scope,
		ScopeID:     scopeID,
		Amount:      amount,
		Spent:       decimal.Zero,
		Currency:    req.Currency,
		Status:      model.BudgetStatusDraft,
		Description: req.Description,
		RequestedBy: requesterID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.budgetRepo.Create(txCtx, &budget); createErr != nil {
			return fmt.Errorf("failed to create budget: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"amount":   req.Amount,
			"currency": budget.Currency,
			"year":     req.Year,
			"scope":    req.Scope,
			"scope_id": req.ScopeID,
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionCreateBudget,
			EntityID:   budget.ID.String(),
			EntityName: budget.Name,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return BudgetResponse{}, err
	}

	return toBudgetResponse(budget), nil
}

func (s *budgetService) GetBudget(ctx context.Context, id string) (BudgetResponse, error) {
	budgetID, err := uuid.Parse(id)
	if err != nil {
		return BudgetResponse{}, fmt.Errorf("%w: invalid budget id", ErrValidation)
	}
	budget, err := s.budgetRepo.FindByID(ctx, budgetID)
	if err != nil {
		return BudgetResponse{}, fmt.Errorf("budget not found: %w", err)
	}
	return toBudgetResponse(*budget), nil
}

func (s *budgetService) ListBudgets(ctx context.Context, status string, page, limit int) ([]BudgetResponse, int64, error) {
	budgets, total, err := s.budgetRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch budgets: %w", err)
	}
	result := make([]BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		result = append(result, toBudgetResponse(b))
	}
	return result, total, nil
}

// --- Helpers ---

func toBudgetResponse(b model.Budget) BudgetResponse {
	return BudgetResponse{
		ID:          b.ID.String(),
		FacilityID:  b.FacilityID.String(),
		Name:        b.Name,
		Year:        b.Year,
		Period:      b.Period,
		Scope:       b.Scope,
		ScopeID:     b.ScopeID.String(),
		Amount:      b.Amount.String(),
		Spent:       b.Spent.String(),
		Currency:    b.Currency,
		Status:      b.Status,
		Description: b.Description,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
}

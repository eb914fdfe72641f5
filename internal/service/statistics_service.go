package service

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FacilityBreakdown is one facility's slice of the consolidated totals.
type FacilityBreakdown struct {
	FacilityID   uuid.UUID `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	TotalIncome  float64   `json:"total_income"`
	TotalExpense float64   `json:"total_expense"`
}

// StatisticsResponse is the consolidated finance overview. All amounts are
// base-currency sums of approved transactions in the requested window.
type StatisticsResponse struct {
	TimeRangeStartDate time.Time           `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time           `json:"time_range_end_date"`
	TotalIncome        float64             `json:"total_income"`
	TotalExpense       float64             `json:"total_expense"`
	NetResult          float64             `json:"net_result"`
	ActiveBudgetTotal  float64             `json:"active_budget_total"`
	ActiveBudgetSpent  float64             `json:"active_budget_spent"`
	CompletedTransfers int64               `json:"completed_transfers"`
	Facilities         []FacilityBreakdown `json:"facilities"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates approved transactions, active budgets, and
// completed transfers into the HQ finance overview.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error) {
	var response StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Total income (base currency)
	var totalIncome struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("transactions").
		Select("COALESCE(SUM(base_amount), 0) as value").
		Where("type = ? AND status = ? AND date >= ? AND date <= ?",
			model.TransactionTypeIncome, model.TransactionStatusApproved, startDate, endDate).
		Scan(&totalIncome)
	response.TotalIncome = totalIncome.Value

	// Total expense (base currency)
	var totalExpense struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("transactions").
		Select("COALESCE(SUM(base_amount), 0) as value").
		Where("type = ? AND status = ? AND date >= ? AND date <= ?",
			model.TransactionTypeExpense, model.TransactionStatusApproved, startDate, endDate).
		Scan(&totalExpense)
	response.TotalExpense = totalExpense.Value

	response.NetResult = response.TotalIncome - response.TotalExpense

	// Active budget totals across all facilities
	var budgetTotals struct {
		Amount float64
		Spent  float64
	}
	s.db.WithContext(ctx).Table("budgets").
		Select("COALESCE(SUM(amount), 0) as amount, COALESCE(SUM(spent), 0) as spent").
		Where("status = ?", model.BudgetStatusActive).
		Scan(&budgetTotals)
	response.ActiveBudgetTotal = budgetTotals.Amount
	response.ActiveBudgetSpent = budgetTotals.Spent

	// Completed transfers in the window
	s.db.WithContext(ctx).Table("budget_transfers").
		Where("status = ? AND completed_at >= ? AND completed_at <= ?",
			model.TransferStatusCompleted, startDate, endDate).
		Count(&response.CompletedTransfers)

	// Per-facility breakdown
	var facilities []FacilityBreakdown
	s.db.WithContext(ctx).Table("transactions").
		Select(`facilities.id as facility_id, facilities.name as facility_name,
			COALESCE(SUM(CASE WHEN transactions.type = 'INCOME' THEN transactions.base_amount ELSE 0 END), 0) as total_income,
			COALESCE(SUM(CASE WHEN transactions.type = 'EXPENSE' THEN transactions.base_amount ELSE 0 END), 0) as total_expense`).
		Joins("JOIN facilities ON facilities.id = transactions.facility_id").
		Where("transactions.status = ? AND transactions.date >= ? AND transactions.date <= ?",
			model.TransactionStatusApproved, startDate, endDate).
		Group("facilities.id, facilities.name").
		Order("total_expense DESC").
		Scan(&facilities)
	response.Facilities = facilities

	return response, nil
}

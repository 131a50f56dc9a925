package services

import (
	"context"
	"fmt"

	"fintower/internal/core"
	"fintower/internal/ledger"
)

// BudgetService answers safe-to-spend questions for a month.
type BudgetService struct {
	store  ledger.TransactionStore
	params core.BudgetParams
}

func NewBudgetService(store ledger.TransactionStore, params core.BudgetParams) *BudgetService {
	return &BudgetService{store: store, params: params}
}

// Overview computes the safe-to-spend position for the month, with the
// per-category expense breakdown attached.
func (s *BudgetService) Overview(ctx context.Context, month core.Month) (core.BudgetOverview, error) {
	spent, err := s.store.SumExpenses(ctx, month)
	if err != nil {
		return core.BudgetOverview{}, fmt.Errorf("sum expenses for %s: %w", month, err)
	}

	overview := core.EvaluateBudget(s.params, month, spent)

	byCategory, err := s.store.SumExpensesByCategory(ctx, month)
	if err != nil {
		return core.BudgetOverview{}, fmt.Errorf("category breakdown for %s: %w", month, err)
	}
	overview.ByCategory = byCategory

	return overview, nil
}

// Params exposes the configured budget parameters, e.g. for the dashboard
// allocation panel.
func (s *BudgetService) Params() core.BudgetParams { return s.params }

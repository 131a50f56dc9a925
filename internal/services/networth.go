package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintower/internal/core"
	"fintower/internal/ledger"
)

// NetWorthService aggregates the ledger, savings fund and manual balances
// into a single net worth figure.
type NetWorthService struct {
	store    ledger.Store
	params   core.BudgetParams
	balances core.Balances
}

func NewNetWorthService(store ledger.Store, params core.BudgetParams, balances core.Balances) *NetWorthService {
	return &NetWorthService{store: store, params: params, balances: balances}
}

// NetWorthReport is the full aggregation, including the gold position
// which is tracked but deliberately kept out of the liquid total.
type NetWorthReport struct {
	core.NetWorth
	Gold core.AssetPosition `json:"gold"`
}

// Compute aggregates net worth as of the given month. The liquid figure is
// the month's remaining safe-to-spend; negative remainders carry through.
func (s *NetWorthService) Compute(ctx context.Context, month core.Month) (NetWorthReport, error) {
	spent, err := s.store.SumExpenses(ctx, month)
	if err != nil {
		return NetWorthReport{}, fmt.Errorf("sum expenses for %s: %w", month, err)
	}
	overview := core.EvaluateBudget(s.params, month, spent)

	bonus, err := s.store.SumBonusIncome(ctx)
	if err != nil {
		return NetWorthReport{}, fmt.Errorf("sum bonus income: %w", err)
	}
	fund := core.SavingsFund(bonus, s.params.SavingsContribution(), s.balances.OpeningSavings)

	gold, err := s.store.GetAsset(ctx, core.GoldAssetName)
	if errors.Is(err, core.ErrNotFound) {
		gold = core.NewAssetPosition(core.GoldAssetName)
	} else if err != nil {
		return NetWorthReport{}, fmt.Errorf("load gold position: %w", err)
	}

	return NetWorthReport{
		NetWorth: core.AggregateNetWorth(overview.Remaining, fund, s.balances),
		Gold:     gold,
	}, nil
}

// Snapshot computes today's net worth and appends it to the history.
func (s *NetWorthService) Snapshot(ctx context.Context) (core.NetWorthSnapshot, error) {
	today := core.Today()
	report, err := s.Compute(ctx, today.MonthOf())
	if err != nil {
		return core.NetWorthSnapshot{}, err
	}

	snap := core.NetWorthSnapshot{
		Date:             today,
		TotalAssets:      report.TotalAssets,
		TotalLiabilities: report.TotalLiabilities,
		NetWorth:         report.Worth,
	}
	if err := s.store.AppendSnapshot(ctx, snap); err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("append net worth snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Net worth snapshot saved",
		"date", snap.Date.String(),
		"net_worth_cents", snap.NetWorth.Cents)

	return snap, nil
}

// History returns the stored snapshots, oldest first.
func (s *NetWorthService) History(ctx context.Context) ([]core.NetWorthSnapshot, error) {
	return s.store.ListSnapshots(ctx)
}

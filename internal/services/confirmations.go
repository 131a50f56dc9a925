package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintower/internal/core"
	"fintower/internal/ledger"
)

// Allocation names accepted by the confirmation flow. They match the
// sentinel descriptions the legacy schema stored as transactions.
const (
	AllocEmergencyFund = "Monthly Emergency Fund"
	AllocWarChest      = "Monthly War Chest"
)

// ErrUnknownAllocation rejects names outside the fixed allocation set.
var ErrUnknownAllocation = errors.New("unknown allocation")

// ConfirmationService marks monthly allocations as executed, at most once
// per allocation per month.
type ConfirmationService struct {
	store  ledger.ConfirmationStore
	params core.BudgetParams
}

func NewConfirmationService(store ledger.ConfirmationStore, params core.BudgetParams) *ConfirmationService {
	return &ConfirmationService{store: store, params: params}
}

// AllocationStatus reports one allocation's amount and whether the month
// was confirmed.
type AllocationStatus struct {
	Allocation string     `json:"allocation"`
	Amount     core.Money `json:"amount"`
	Confirmed  bool       `json:"confirmed"`
}

func (s *ConfirmationService) amountFor(allocation string) (core.Money, error) {
	switch allocation {
	case AllocEmergencyFund:
		return s.params.EmergencyContribution(), nil
	case AllocWarChest:
		return s.params.SavingsContribution(), nil
	default:
		return core.Money{}, fmt.Errorf("%w: %q", ErrUnknownAllocation, allocation)
	}
}

// Confirm records that the allocation was executed this month. Repeating a
// confirmation is a no-op; created reports whether this call did the work.
func (s *ConfirmationService) Confirm(ctx context.Context, allocation string, month core.Month) (created bool, err error) {
	amount, err := s.amountFor(allocation)
	if err != nil {
		return false, err
	}

	created, err = s.store.Confirm(ctx, allocation, month, amount)
	if err != nil {
		return false, fmt.Errorf("confirm %q for %s: %w", allocation, month, err)
	}
	if created {
		slog.InfoContext(ctx, "Allocation confirmed",
			"allocation", allocation,
			"month", month.String(),
			"amount_cents", amount.Cents)
	}
	return created, nil
}

// Status lists the month's allocations with their confirmation state.
func (s *ConfirmationService) Status(ctx context.Context, month core.Month) ([]AllocationStatus, error) {
	out := make([]AllocationStatus, 0, 2)
	for _, name := range []string{AllocEmergencyFund, AllocWarChest} {
		amount, err := s.amountFor(name)
		if err != nil {
			return nil, err
		}
		confirmed, err := s.store.IsConfirmed(ctx, name, month)
		if err != nil {
			return nil, fmt.Errorf("confirmation status of %q for %s: %w", name, month, err)
		}
		out = append(out, AllocationStatus{Allocation: name, Amount: amount, Confirmed: confirmed})
	}
	return out, nil
}

// History lists every month an allocation was confirmed for.
func (s *ConfirmationService) History(ctx context.Context, allocation string) ([]core.Month, error) {
	if _, err := s.amountFor(allocation); err != nil {
		return nil, err
	}
	months, err := s.store.ConfirmedMonths(ctx, allocation)
	if err != nil {
		return nil, fmt.Errorf("confirmation history of %q: %w", allocation, err)
	}
	return months, nil
}

package core

const (
	StatusSafe     BudgetStatus = "Safe"
	StatusCaution  BudgetStatus = "Caution"
	StatusCritical BudgetStatus = "Critical"
)

type (
	// BudgetStatus tiers the remaining safe-to-spend percentage.
	// Both cuts are strictly greater: above 50% is Safe, above 25% is
	// Caution, exactly 50% is Caution and exactly 25% is Critical.
	BudgetStatus string

	// BudgetParams are the user-configured inputs of the budget engine.
	// They are passed explicitly into every evaluation; no history of
	// past values is kept, so views always reflect the current config.
	BudgetParams struct {
		MonthlySalary    Money
		FixedCosts       Money
		EmergencyFundPct int
		SavingsPct       int
		GoldMonthly      Money
	}

	// CategoryAmount is an amount aggregated by category.
	CategoryAmount struct {
		Category Category `json:"category"`
		Amount   Money    `json:"amount"`
	}

	// BudgetOverview is the read-side view for one month.
	BudgetOverview struct {
		Month        Month            `json:"month"`
		Cap          Money            `json:"cap"`
		Spent        Money            `json:"spent"`
		Remaining    Money            `json:"remaining"`
		PctRemaining float64          `json:"pct_remaining"`
		Status       BudgetStatus     `json:"status"`
		ByCategory   []CategoryAmount `json:"by_category,omitempty"`
	}
)

// EmergencyContribution is the monthly emergency-fund carve-out.
func (p BudgetParams) EmergencyContribution() Money {
	return p.MonthlySalary.Percent(p.EmergencyFundPct)
}

// SavingsContribution is the monthly savings carve-out.
func (p BudgetParams) SavingsContribution() Money {
	return p.MonthlySalary.Percent(p.SavingsPct)
}

// AllocationsTotal sums all recurring carve-outs: the percentage-based
// emergency fund and savings allocations plus the fixed gold amount.
func (p BudgetParams) AllocationsTotal() Money {
	return p.EmergencyContribution().Add(p.SavingsContribution()).Add(p.GoldMonthly)
}

// SafeToSpendCap is the discretionary budget left after fixed costs and
// allocations are removed from salary. It can go negative when the
// configuration over-allocates.
func (p BudgetParams) SafeToSpendCap() Money {
	return p.MonthlySalary.Sub(p.FixedCosts).Sub(p.AllocationsTotal())
}

// EvaluateBudget derives the monthly view from the parameters and the
// already-aggregated discretionary spend (Expense, category not Fixed
// Cost, dated inside the month).
//
// A cap of zero or less yields PctRemaining 0 rather than an error.
func EvaluateBudget(p BudgetParams, month Month, spent Money) BudgetOverview {
	cap := p.SafeToSpendCap()
	remaining := cap.Sub(spent)

	var pct float64
	if cap.Cents > 0 {
		pct = float64(remaining.Cents) / float64(cap.Cents) * 100
	}

	status := StatusCritical
	switch {
	case pct > 50:
		status = StatusSafe
	case pct > 25:
		status = StatusCaution
	}

	return BudgetOverview{
		Month:        month,
		Cap:          cap,
		Spent:        spent,
		Remaining:    remaining,
		PctRemaining: pct,
		Status:       status,
	}
}

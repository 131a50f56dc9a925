package core

import "testing"

func aed(whole int64) Money { return Money{Cents: whole * 100} }

func referenceParams() BudgetParams {
	// Salary 40000, fixed 20000, savings 20% (8000), emergency 0%,
	// gold 1000 fixed: allocations 9000, cap 11000.
	return BudgetParams{
		MonthlySalary:    aed(40000),
		FixedCosts:       aed(20000),
		EmergencyFundPct: 0,
		SavingsPct:       20,
		GoldMonthly:      aed(1000),
	}
}

func TestSafeToSpendCap(t *testing.T) {
	p := referenceParams()
	if got := p.AllocationsTotal(); got != aed(9000) {
		t.Fatalf("allocations: got %v", got)
	}
	if got := p.SafeToSpendCap(); got != aed(11000) {
		t.Fatalf("cap: got %v", got)
	}
}

func TestEvaluateBudget(t *testing.T) {
	month := Month{Year: 2026, Month: 8}
	ov := EvaluateBudget(referenceParams(), month, aed(3000))

	if ov.Cap != aed(11000) {
		t.Fatalf("cap: got %v", ov.Cap)
	}
	if ov.Remaining != aed(8000) {
		t.Fatalf("remaining: got %v", ov.Remaining)
	}
	if ov.PctRemaining < 72.7 || ov.PctRemaining > 72.8 {
		t.Fatalf("pct remaining: got %f", ov.PctRemaining)
	}
	if ov.Status != StatusSafe {
		t.Fatalf("status: got %s", ov.Status)
	}
	if ov.Month != month {
		t.Fatalf("month: got %v", ov.Month)
	}
}

func TestEvaluateBudgetStatusTiers(t *testing.T) {
	p := BudgetParams{MonthlySalary: aed(10000)} // cap = 10000
	cases := []struct {
		spent int64
		want  BudgetStatus
	}{
		{0, StatusSafe},
		{4999, StatusSafe},
		{5000, StatusCaution}, // exactly 50% left is not Safe
		{7499, StatusCaution},
		{7500, StatusCritical}, // exactly 25% left is not Caution
		{10000, StatusCritical},
		{12000, StatusCritical}, // overspent, negative remaining
	}
	for _, tc := range cases {
		ov := EvaluateBudget(p, Month{Year: 2026, Month: 1}, aed(tc.spent))
		if ov.Status != tc.want {
			t.Fatalf("spent %d: expected %s, got %s (pct %f)", tc.spent, tc.want, ov.Status, ov.PctRemaining)
		}
	}
}

func TestEvaluateBudgetZeroCapGuard(t *testing.T) {
	// Over-allocated config: cap is negative, pct must be 0, no panic.
	p := BudgetParams{
		MonthlySalary: aed(10000),
		FixedCosts:    aed(12000),
	}
	ov := EvaluateBudget(p, Month{Year: 2026, Month: 1}, aed(500))
	if ov.PctRemaining != 0 {
		t.Fatalf("expected pct 0 for negative cap, got %f", ov.PctRemaining)
	}
	if ov.Status != StatusCritical {
		t.Fatalf("expected Critical, got %s", ov.Status)
	}

	ov = EvaluateBudget(BudgetParams{}, Month{Year: 2026, Month: 1}, Money{})
	if ov.PctRemaining != 0 || ov.Status != StatusCritical {
		t.Fatalf("zero cap: pct %f status %s", ov.PctRemaining, ov.Status)
	}
}

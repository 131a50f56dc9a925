package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintower/internal/classifier"
	"fintower/internal/core"
	"fintower/internal/ledger"
	"fintower/internal/ledger/memory"
)

// stubClassifier returns a fixed guess without calling any model.
type stubClassifier struct {
	guess classifier.Guess
	err   error
}

func (s stubClassifier) Categorize(context.Context, string) (classifier.Guess, error) {
	return s.guess, s.err
}

// captureEvents records published event ids.
type captureEvents struct {
	recorded []int64
	deleted  []int64
}

func (c *captureEvents) TransactionRecorded(_ context.Context, id int64) error {
	c.recorded = append(c.recorded, id)
	return nil
}

func (c *captureEvents) TransactionDeleted(_ context.Context, tx core.Transaction) error {
	c.deleted = append(c.deleted, tx.ID)
	return nil
}

func testParams() core.BudgetParams {
	return core.BudgetParams{
		MonthlySalary:    core.Money{Cents: 4000000},
		FixedCosts:       core.Money{Cents: 2000000},
		EmergencyFundPct: 10,
		SavingsPct:       10,
		GoldMonthly:      core.Money{Cents: 100000},
	}
}

func TestRecordTextStoresAndReportsBudget(t *testing.T) {
	store := memory.New()
	events := &captureEvents{}
	svc := NewRecorderService(stubClassifier{guess: classifier.Guess{
		Amount:      core.Money{Cents: 35000},
		Description: "Dinner at Zuma",
		Category:    core.CategoryGuiltFree,
	}}, store, events, testParams(), core.DefaultGoldPricePerGram)

	res, err := svc.RecordText(context.Background(), "350 dinner at zuma", "Telegram")
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if res.Transaction.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if res.Transaction.Source != "Telegram" || res.Transaction.Type != core.Expense {
		t.Fatalf("unexpected transaction: %+v", res.Transaction)
	}
	if !res.GoldGrams.IsZero() {
		t.Fatalf("no gold expected, got %s", res.GoldGrams)
	}

	// Cap is 40000 - 20000 - (4000 + 4000 + 1000) = 11000 AED; one 350
	// expense leaves 10650.
	if res.Budget.Remaining.Cents != 1065000 {
		t.Fatalf("remaining = %d, want 1065000", res.Budget.Remaining.Cents)
	}
	if !strings.Contains(res.Message, "Dinner at Zuma") || !strings.Contains(res.Message, "Safe to spend left") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if len(events.recorded) != 1 || events.recorded[0] != res.Transaction.ID {
		t.Fatalf("expected recorded event for id %d, got %v", res.Transaction.ID, events.recorded)
	}
}

func TestRecordGoldDripsIntoPosition(t *testing.T) {
	store := memory.New()
	svc := NewRecorderService(stubClassifier{guess: classifier.Guess{
		Amount:      core.Money{Cents: 100000},
		Description: "Gold drip",
		Category:    core.CategoryGoldPurchase,
		Tag:         core.TagGold,
	}}, store, nil, testParams(), core.DefaultGoldPricePerGram)

	res, err := svc.RecordText(context.Background(), "1000 gold", "Mobile")
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// 1000 AED at 285.50/g is 3.5026 g.
	want := decimal.RequireFromString("3.5026")
	if !res.GoldGrams.Equal(want) {
		t.Fatalf("grams = %s, want %s", res.GoldGrams, want)
	}

	pos, err := store.GetAsset(context.Background(), core.GoldAssetName)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if !pos.Grams.Equal(want) {
		t.Fatalf("position grams = %s, want %s", pos.Grams, want)
	}

	// A second drip accumulates.
	if _, err := svc.RecordText(context.Background(), "1000 gold", "Mobile"); err != nil {
		t.Fatalf("second record: %v", err)
	}
	pos, _ = store.GetAsset(context.Background(), core.GoldAssetName)
	if !pos.Grams.Equal(decimal.RequireFromString("7.0052")) {
		t.Fatalf("accumulated grams = %s", pos.Grams)
	}
}

func TestRecordTextClassifierFailure(t *testing.T) {
	store := memory.New()
	svc := NewRecorderService(stubClassifier{
		err: &classifier.ClassificationError{Reason: "model call failed"},
	}, store, nil, testParams(), core.DefaultGoldPricePerGram)

	if _, err := svc.RecordText(context.Background(), "???", "Mobile"); err == nil {
		t.Fatal("expected error")
	}

	// Nothing was stored.
	all, _ := store.List(context.Background(), ledger.Filter{})
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d transactions", len(all))
	}
}

func TestRecordBonusSplit(t *testing.T) {
	store := memory.New()
	events := &captureEvents{}
	svc := NewRecorderService(stubClassifier{}, store, events, testParams(), core.DefaultGoldPricePerGram)

	res, err := svc.RecordBonus(context.Background(), core.Money{Cents: 1000000}, "Quarterly bonus")
	if err != nil {
		t.Fatalf("record bonus: %v", err)
	}

	if res.Retained.Cents != 900000 || res.Spendable.Cents != 100000 {
		t.Fatalf("split = %d/%d, want 900000/100000", res.Retained.Cents, res.Spendable.Cents)
	}
	if res.Transaction.Type != core.Income || res.Transaction.Tag != core.TagBonus {
		t.Fatalf("unexpected transaction: %+v", res.Transaction)
	}

	bonus, _ := store.SumBonusIncome(context.Background())
	if bonus.Cents != 1000000 {
		t.Fatalf("bonus income = %d", bonus.Cents)
	}
}

func TestUpdatePublishesReconcileEvents(t *testing.T) {
	store := memory.New()
	events := &captureEvents{}
	svc := NewRecorderService(stubClassifier{}, store, events, testParams(), core.DefaultGoldPricePerGram)

	id, err := store.Add(context.Background(), core.Transaction{
		Date:        core.Today(),
		Amount:      core.Money{Cents: 35000},
		Description: "Dinner at Zuma",
		Category:    core.CategoryGuiltFree,
		Type:        core.Expense,
		Source:      "Manual",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.Update(context.Background(), id, core.Transaction{
		Date:        core.Today(),
		Amount:      core.Money{Cents: 30000},
		Description: "Dinner at Zuma (corrected)",
		Category:    core.CategoryGuiltFree,
		Type:        core.Expense,
		Source:      "Manual",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != id || updated.Amount.Cents != 30000 {
		t.Fatalf("updated = %+v", updated)
	}

	// The old row's delete event clears the stale exported copy and the
	// recorded event triggers re-export of the new version.
	if len(events.deleted) != 1 || events.deleted[0] != id {
		t.Fatalf("deleted events = %v, want [%d]", events.deleted, id)
	}
	if len(events.recorded) != 1 || events.recorded[0] != id {
		t.Fatalf("recorded events = %v, want [%d]", events.recorded, id)
	}
}

func TestUpdateMissingTransaction(t *testing.T) {
	svc := NewRecorderService(stubClassifier{}, memory.New(), nil, testParams(), core.DefaultGoldPricePerGram)

	_, err := svc.Update(context.Background(), 404, core.Transaction{
		Date:        core.Today(),
		Amount:      core.Money{Cents: 1000},
		Description: "coffee",
		Category:    core.CategoryFoodDrinks,
		Type:        core.Expense,
		Source:      "Manual",
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeletePublishesEvent(t *testing.T) {
	store := memory.New()
	events := &captureEvents{}
	svc := NewRecorderService(stubClassifier{}, store, events, testParams(), core.DefaultGoldPricePerGram)

	id, err := store.Add(context.Background(), core.Transaction{
		Date:        core.Today(),
		Amount:      core.Money{Cents: 1000},
		Description: "coffee",
		Category:    core.CategoryFoodDrinks,
		Type:        core.Expense,
		Source:      "Manual",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(events.deleted) != 1 || events.deleted[0] != id {
		t.Fatalf("expected delete event for %d, got %v", id, events.deleted)
	}
}

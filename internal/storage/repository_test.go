package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"fintower/internal/core"
	"fintower/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintower.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleTx() core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2026, 3, 10),
		Amount:      core.Money{Cents: 35000},
		Description: "Dinner at Zuma",
		Category:    core.CategoryGuiltFree,
		Type:        core.Expense,
		Source:      "Manual",
	}
}

func TestAddThenGetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := sampleTx()
	id, err := repo.Add(ctx, want)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want.ID = id
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	bad := sampleTx()
	bad.Category = core.CategoryGoldPurchase // missing #gold tag
	if _, err := repo.Add(context.Background(), bad); !errors.Is(err, core.ErrGoldTagRequired) {
		t.Fatalf("expected ErrGoldTagRequired, got %v", err)
	}
}

func TestUpdateDeleteNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Update(ctx, 99, sampleTx()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, 99); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}

	id, err := repo.Add(ctx, sampleTx())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	updated := sampleTx()
	updated.Description = "Dinner at Zuma (corrected)"
	updated.Amount = core.Money{Cents: 30000}
	if err := repo.Update(ctx, id, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != updated.Description || got.Amount != updated.Amount {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListOrderAndFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	txs := []core.Transaction{
		{Date: core.NewDate(2026, 3, 5), Amount: core.Money{Cents: 100}, Description: "metro", Category: core.CategoryTransport, Type: core.Expense, Source: "Manual"},
		{Date: core.NewDate(2026, 3, 20), Amount: core.Money{Cents: 200}, Description: "cinema", Category: core.CategoryEntertain, Type: core.Expense, Source: "Manual"},
		{Date: core.NewDate(2026, 4, 1), Amount: core.Money{Cents: 300}, Description: "salary", Category: core.CategoryBonus, Type: core.Income, Source: "Manual", Tag: core.TagBonus},
	}
	for _, tx := range txs {
		if _, err := repo.Add(ctx, tx); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	all, err := repo.List(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
	// Date descending.
	if all[0].Description != "salary" || all[2].Description != "metro" {
		t.Fatalf("unexpected order: %s ... %s", all[0].Description, all[2].Description)
	}

	march, err := repo.List(ctx, ledger.Filter{
		From: core.NewDate(2026, 3, 1),
		To:   core.NewDate(2026, 4, 1),
		Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("list march: %v", err)
	}
	if len(march) != 2 {
		t.Fatalf("expected 2 march expenses, got %d", len(march))
	}

	transport, err := repo.List(ctx, ledger.Filter{Categories: []core.Category{core.CategoryTransport}})
	if err != nil {
		t.Fatalf("list transport: %v", err)
	}
	if len(transport) != 1 || transport[0].Description != "metro" {
		t.Fatalf("category filter: %+v", transport)
	}
}

func TestSumExpensesExcludesFixedCostAndOtherMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	month := core.Month{Year: 2026, Month: 3}

	add := func(date core.Date, cents int64, cat core.Category, typ core.TxType, tag string) {
		t.Helper()
		_, err := repo.Add(ctx, core.Transaction{
			Date: date, Amount: core.Money{Cents: cents}, Description: "x",
			Category: cat, Type: typ, Source: "Manual", Tag: tag,
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	add(core.NewDate(2026, 3, 1), 1000, core.CategoryFoodDrinks, core.Expense, "")
	add(core.NewDate(2026, 3, 31), 2000, core.CategoryTransport, core.Expense, "")
	add(core.NewDate(2026, 3, 15), 99999, core.CategoryFixedCost, core.Expense, "") // excluded: fixed cost
	add(core.NewDate(2026, 4, 1), 500, core.CategoryFoodDrinks, core.Expense, "")   // excluded: next month
	add(core.NewDate(2026, 3, 10), 7000, core.CategoryBonus, core.Income, core.TagBonus)

	spent, err := repo.SumExpenses(ctx, month)
	if err != nil {
		t.Fatalf("sum expenses: %v", err)
	}
	if spent.Cents != 3000 {
		t.Fatalf("expected 3000, got %d", spent.Cents)
	}

	bonus, err := repo.SumBonusIncome(ctx)
	if err != nil {
		t.Fatalf("sum bonus: %v", err)
	}
	if bonus.Cents != 7000 {
		t.Fatalf("expected 7000 bonus, got %d", bonus.Cents)
	}

	byCat, err := repo.SumExpensesByCategory(ctx, month)
	if err != nil {
		t.Fatalf("category sums: %v", err)
	}
	if len(byCat) != 3 || byCat[0].Category != core.CategoryFixedCost {
		t.Fatalf("unexpected category sums: %+v", byCat)
	}
}

func TestAssetPositionPersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetAsset(ctx, core.GoldAssetName); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing asset, got %v", err)
	}

	p := core.NewAssetPosition(core.GoldAssetName)
	if err := p.Revalue(decimal.RequireFromString("3.5026"), core.Money{Cents: 28550}); err != nil {
		t.Fatalf("revalue: %v", err)
	}
	if err := repo.SaveAsset(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetAsset(ctx, core.GoldAssetName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Grams.Equal(p.Grams) || got.Value != p.Value {
		t.Fatalf("mismatch: got %s/%d want %s/%d", got.Grams, got.Value.Cents, p.Grams, p.Value.Cents)
	}

	// Upsert replaces the single row.
	if err := p.Revalue(decimal.Zero, core.Money{Cents: 30000}); err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if err := repo.SaveAsset(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = repo.GetAsset(ctx, core.GoldAssetName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Grams.Equal(p.Grams) || got.Value != p.Value {
		t.Fatalf("reprice not persisted: %s/%d", got.Grams, got.Value.Cents)
	}
}

func TestConfirmationsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	month := core.Month{Year: 2026, Month: 3}
	const alloc = "Monthly Emergency Fund"

	done, err := repo.IsConfirmed(ctx, alloc, month)
	if err != nil || done {
		t.Fatalf("expected not confirmed, got %v err=%v", done, err)
	}

	created, err := repo.Confirm(ctx, alloc, month, core.Money{Cents: 200000})
	if err != nil || !created {
		t.Fatalf("first confirm: created=%v err=%v", created, err)
	}
	created, err = repo.Confirm(ctx, alloc, month, core.Money{Cents: 200000})
	if err != nil || created {
		t.Fatalf("second confirm must be a no-op: created=%v err=%v", created, err)
	}

	done, err = repo.IsConfirmed(ctx, alloc, month)
	if err != nil || !done {
		t.Fatalf("expected confirmed, got %v err=%v", done, err)
	}
	// Neighboring month stays unconfirmed.
	done, err = repo.IsConfirmed(ctx, alloc, month.Next())
	if err != nil || done {
		t.Fatalf("next month must stay unconfirmed, got %v err=%v", done, err)
	}

	months, err := repo.ConfirmedMonths(ctx, alloc)
	if err != nil || len(months) != 1 || months[0] != month {
		t.Fatalf("confirmed months: %v err=%v", months, err)
	}
}

func TestConfirmationLegacySentinel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	month := core.Month{Year: 2026, Month: 3}
	const alloc = "Monthly Emergency Fund"

	// A sentinel transaction imported from the old schema counts as
	// confirmation evidence for its month only.
	_, err := repo.Add(ctx, core.Transaction{
		Date:        month.First(),
		Amount:      core.Money{Cents: 200000},
		Description: alloc,
		Category:    core.CategorySavings,
		Type:        core.Expense,
		Source:      "Auto",
	})
	if err != nil {
		t.Fatalf("add sentinel: %v", err)
	}

	done, err := repo.IsConfirmed(ctx, alloc, month)
	if err != nil || !done {
		t.Fatalf("sentinel should confirm 2026-03: %v err=%v", done, err)
	}
	done, err = repo.IsConfirmed(ctx, alloc, core.Month{Year: 2026, Month: 4})
	if err != nil || done {
		t.Fatalf("2026-04 must remain unconfirmed: %v err=%v", done, err)
	}
}

func TestOffsetsMonotonic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	const source = "telegram"

	off, err := repo.LastOffset(ctx, source)
	if err != nil || off != 0 {
		t.Fatalf("initial offset: %d err=%v", off, err)
	}

	if err := repo.SetOffset(ctx, source, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	off, _ = repo.LastOffset(ctx, source)
	if off != 7 {
		t.Fatalf("expected 7, got %d", off)
	}

	// A stale write never regresses the offset.
	if err := repo.SetOffset(ctx, source, 5); err != nil {
		t.Fatalf("stale set: %v", err)
	}
	off, _ = repo.LastOffset(ctx, source)
	if off != 7 {
		t.Fatalf("offset regressed to %d", off)
	}

	if err := repo.SetOffset(ctx, source, 12); err != nil {
		t.Fatalf("set: %v", err)
	}
	off, _ = repo.LastOffset(ctx, source)
	if off != 12 {
		t.Fatalf("expected 12, got %d", off)
	}
}

func TestNetWorthHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := core.NetWorthSnapshot{
		Date:             core.NewDate(2026, 3, 31),
		TotalAssets:      core.Money{Cents: 10000000},
		TotalLiabilities: core.Money{Cents: 3000000},
		NetWorth:         core.Money{Cents: 7000000},
	}
	if err := repo.AppendSnapshot(ctx, snap); err != nil {
		t.Fatalf("append: %v", err)
	}

	history, err := repo.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 1 || history[0] != snap {
		t.Fatalf("history mismatch: %+v", history)
	}
}

func TestExportQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, _ := repo.Add(ctx, sampleTx())
	id2, _ := repo.Add(ctx, sampleTx())

	pending, err := repo.PendingExport(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending: %d err=%v", len(pending), err)
	}

	if err := repo.MarkExported(ctx, id1); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	if err := repo.MarkExportError(ctx, id2); err != nil {
		t.Fatalf("mark error: %v", err)
	}

	pending, err = repo.PendingExport(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected empty pending, got %d err=%v", len(pending), err)
	}
}

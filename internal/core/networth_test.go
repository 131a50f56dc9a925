package core

import "testing"

func TestSavingsFund(t *testing.T) {
	// 90% of 10000 bonus + 8000 contribution + 5000 opening = 22000.
	got := SavingsFund(aed(10000), aed(8000), aed(5000))
	if got != aed(22000) {
		t.Fatalf("savings fund: got %v", got)
	}

	if got := SavingsFund(Money{}, Money{}, Money{}); !got.IsZero() {
		t.Fatalf("empty inputs: got %v", got)
	}
}

func TestAggregateNetWorth(t *testing.T) {
	b := Balances{
		ManualAssets:     aed(30000),
		RealEstateValue:  aed(50000),
		OtherLiabilities: aed(10000),
		MortgageBalance:  aed(20000),
	}
	nw := AggregateNetWorth(aed(8000), aed(12000), b)

	if nw.TotalAssets != aed(100000) {
		t.Fatalf("assets: got %v", nw.TotalAssets)
	}
	if nw.TotalLiabilities != aed(30000) {
		t.Fatalf("liabilities: got %v", nw.TotalLiabilities)
	}
	if nw.Worth != aed(70000) {
		t.Fatalf("net worth: got %v", nw.Worth)
	}
}

func TestSplitBonus(t *testing.T) {
	save, fun := SplitBonus(aed(10000))
	if save != aed(9000) || fun != aed(1000) {
		t.Fatalf("split: save %v fun %v", save, fun)
	}

	// Odd amounts: shares still sum exactly to the input.
	in := Money{Cents: 333}
	save, fun = SplitBonus(in)
	if save.Add(fun) != in {
		t.Fatalf("split does not sum: %v + %v != %v", save, fun, in)
	}
}

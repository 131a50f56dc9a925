package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func grams(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRevalueAccumulates(t *testing.T) {
	p := NewAssetPosition(GoldAssetName)
	price := Money{Cents: 28550} // AED 285.50/g

	if err := p.Revalue(grams("2"), price); err != nil {
		t.Fatalf("revalue: %v", err)
	}
	if !p.Grams.Equal(grams("2")) {
		t.Fatalf("grams: got %s", p.Grams)
	}
	if p.Value.Cents != 57100 {
		t.Fatalf("value: got %d", p.Value.Cents)
	}

	if err := p.Revalue(grams("1.5"), price); err != nil {
		t.Fatalf("revalue: %v", err)
	}
	if !p.Grams.Equal(grams("3.5")) {
		t.Fatalf("grams after second buy: got %s", p.Grams)
	}

	// Additivity: two buys at the same price match one combined buy.
	q := NewAssetPosition(GoldAssetName)
	if err := q.Revalue(grams("3.5"), price); err != nil {
		t.Fatalf("revalue: %v", err)
	}
	if !q.Grams.Equal(p.Grams) || q.Value != p.Value {
		t.Fatalf("single buy differs: %s/%d vs %s/%d", q.Grams, q.Value.Cents, p.Grams, p.Value.Cents)
	}
}

func TestRevalueRepriceOnly(t *testing.T) {
	p := NewAssetPosition(GoldAssetName)
	if err := p.Revalue(grams("10"), Money{Cents: 28550}); err != nil {
		t.Fatalf("revalue: %v", err)
	}

	// Zero delta re-marks the value and never moves the quantity.
	if err := p.Revalue(decimal.Zero, Money{Cents: 30000}); err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if !p.Grams.Equal(grams("10")) {
		t.Fatalf("reprice changed quantity: %s", p.Grams)
	}
	if p.Value.Cents != 300000 {
		t.Fatalf("value not re-marked: %d", p.Value.Cents)
	}
}

func TestRevalueOversell(t *testing.T) {
	p := NewAssetPosition(GoldAssetName)
	if err := p.Revalue(grams("1"), Money{Cents: 28550}); err != nil {
		t.Fatalf("revalue: %v", err)
	}

	err := p.Revalue(grams("-2"), Money{Cents: 28550})
	if !errors.Is(err, ErrOversell) {
		t.Fatalf("expected ErrOversell, got %v", err)
	}
	// Position untouched after the rejected disposal.
	if !p.Grams.Equal(grams("1")) || p.Value.Cents != 28550 {
		t.Fatalf("position mutated on oversell: %s / %d", p.Grams, p.Value.Cents)
	}

	// Full disposal down to exactly zero is allowed.
	if err := p.Revalue(grams("-1"), Money{Cents: 28550}); err != nil {
		t.Fatalf("full disposal: %v", err)
	}
	if !p.Grams.IsZero() || p.Value.Cents != 0 {
		t.Fatalf("expected empty position, got %s / %d", p.Grams, p.Value.Cents)
	}
}

func TestGramsForAmount(t *testing.T) {
	// AED 1000 at 285.50/g = 3.5026 g (4 decimal places).
	got := GramsForAmount(Money{Cents: 100000}, Money{Cents: 28550})
	if !got.Equal(grams("3.5026")) {
		t.Fatalf("grams: got %s", got)
	}
	if !GramsForAmount(Money{Cents: 100}, Money{}).IsZero() {
		t.Fatal("zero price must yield zero grams")
	}
}

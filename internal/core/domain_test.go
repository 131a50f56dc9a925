package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory("Gold Purchase"); err != nil || c != CategoryGoldPurchase {
		t.Fatalf("expected Gold Purchase, got %q err=%v", c, err)
	}
	if c, err := ParseCategory("  Transport "); err != nil || c != CategoryTransport {
		t.Fatalf("expected Transport, got %q err=%v", c, err)
	}
	if _, err := ParseCategory("Groceries"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := ParseCategory(""); err == nil {
		t.Fatal("expected error for empty category")
	}
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2026-03")
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}
	if m.String() != "2026-03" {
		t.Fatalf("round trip: %q", m.String())
	}
	if m.First() != NewDate(2026, 3, 1) {
		t.Fatalf("first day: %v", m.First())
	}
	if !m.Contains(NewDate(2026, 3, 31)) {
		t.Fatal("expected 2026-03-31 inside 2026-03")
	}
	if m.Contains(NewDate(2026, 4, 1)) {
		t.Fatal("expected 2026-04-01 outside 2026-03")
	}
	if next := (Month{Year: 2026, Month: 12}).Next(); next != (Month{Year: 2027, Month: 1}) {
		t.Fatalf("december rollover: %v", next)
	}
	if _, err := ParseMonth("march 2026"); err == nil {
		t.Fatal("expected error for bad month")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2026, 3, 10),
		Amount:      Money{Cents: 35000},
		Description: "Dinner at Zuma",
		Category:    CategoryGuiltFree,
		Type:        Expense,
		Source:      "Manual",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(tx *Transaction)
		want error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{Time: time.Time{}} }, ErrInvalidDate},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"unknown category", func(tx *Transaction) { tx.Category = "Groceries" }, ErrUnknownCategory},
		{"unknown type", func(tx *Transaction) { tx.Type = "Transfer" }, ErrUnknownType},
		{"gold without tag", func(tx *Transaction) { tx.Category = CategoryGoldPurchase }, ErrGoldTagRequired},
		{"gold with wrong tag", func(tx *Transaction) {
			tx.Category = CategoryGoldPurchase
			tx.Tag = "#bonus"
		}, ErrGoldTagRequired},
	}
	for _, tc := range cases {
		tx := good
		tc.mut(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	gold := good
	gold.Category = CategoryGoldPurchase
	gold.Tag = TagGold
	if err := gold.Validate(); err != nil {
		t.Fatalf("tagged gold purchase should validate, got %v", err)
	}
}

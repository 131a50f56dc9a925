// Package ledger declares the outbound ports of the tracker: what the
// HTTP layer, the services and the workers need from a durable store.
// SQLite implements them for real deployments, the memory backend for
// dev and tests.
package ledger

import (
	"context"

	"fintower/internal/core"
)

// Filter narrows a transaction listing. Zero fields are ignored.
type Filter struct {
	From       core.Date
	To         core.Date // exclusive
	Type       core.TxType
	Categories []core.Category
}

type (
	// TransactionStore is durable CRUD over the transaction ledger plus
	// the aggregates the budget and net-worth views are built from.
	TransactionStore interface {
		// Add assigns a new id and appends the record.
		Add(ctx context.Context, tx core.Transaction) (int64, error)
		Get(ctx context.Context, id int64) (core.Transaction, error)
		// Update is a full replace by id; core.ErrNotFound if absent.
		Update(ctx context.Context, id int64, tx core.Transaction) error
		Delete(ctx context.Context, id int64) error
		// List returns matching transactions ordered by date descending.
		List(ctx context.Context, f Filter) ([]core.Transaction, error)
		// SumExpenses aggregates discretionary spend for the month:
		// type Expense, category not Fixed Cost, date inside the month.
		SumExpenses(ctx context.Context, month core.Month) (core.Money, error)
		// SumExpensesByCategory breaks the month's expenses down per category.
		SumExpensesByCategory(ctx context.Context, month core.Month) ([]core.CategoryAmount, error)
		// SumBonusIncome totals all Income transactions tagged #bonus.
		SumBonusIncome(ctx context.Context) (core.Money, error)
	}

	// AssetStore persists asset positions. A position's grams and value
	// are written as one atomic unit; readers never observe one updated
	// without the other.
	AssetStore interface {
		// GetAsset returns core.ErrNotFound for an unknown name.
		GetAsset(ctx context.Context, name string) (core.AssetPosition, error)
		SaveAsset(ctx context.Context, p core.AssetPosition) error
	}

	// ConfirmationStore records which monthly allocations were confirmed.
	ConfirmationStore interface {
		// Confirm marks the allocation done for the month. Returns false
		// when it was already confirmed; confirming twice is not an error.
		Confirm(ctx context.Context, allocation string, month core.Month, amount core.Money) (bool, error)
		IsConfirmed(ctx context.Context, allocation string, month core.Month) (bool, error)
		// ConfirmedMonths lists the months an allocation was confirmed in,
		// ascending.
		ConfirmedMonths(ctx context.Context, allocation string) ([]core.Month, error)
	}

	// OffsetStore tracks the highest processed update id per message
	// source so re-polling never reprocesses a message.
	OffsetStore interface {
		LastOffset(ctx context.Context, source string) (int64, error)
		// SetOffset persists the new offset; a value below the stored one
		// is ignored.
		SetOffset(ctx context.Context, source string, offset int64) error
	}

	// SnapshotStore appends and lists net-worth history records.
	SnapshotStore interface {
		AppendSnapshot(ctx context.Context, s core.NetWorthSnapshot) error
		ListSnapshots(ctx context.Context) ([]core.NetWorthSnapshot, error)
	}

	// Store is the full surface a single backend provides.
	Store interface {
		TransactionStore
		AssetStore
		ConfirmationStore
		OffsetStore
		SnapshotStore
	}
)

// Matches reports whether tx passes the filter.
func (f Filter) Matches(tx core.Transaction) bool {
	if !f.From.IsZero() && tx.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && !tx.Date.Before(f.To.Time) {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if tx.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

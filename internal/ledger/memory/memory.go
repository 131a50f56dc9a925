// Package memory is the in-memory ledger backend used by the dev server
// and handler tests. Semantics mirror the SQLite repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"fintower/internal/core"
	"fintower/internal/ledger"
)

type Store struct {
	mu        sync.Mutex
	nextID    int64
	txns      []core.Transaction
	assets    map[string]core.AssetPosition
	confirmed map[string]map[string]core.Money // allocation -> month -> amount
	offsets   map[string]int64
	snapshots []core.NetWorthSnapshot
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		nextID:    1,
		assets:    make(map[string]core.AssetPosition),
		confirmed: make(map[string]map[string]core.Money),
		offsets:   make(map[string]int64),
	}
}

func (s *Store) Add(_ context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextID
	s.nextID++
	s.txns = append(s.txns, tx)
	return tx.ID, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txns {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) Update(_ context.Context, id int64, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].ID == id {
			tx.ID = id
			s.txns[i] = tx
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].ID == id {
			s.txns = append(s.txns[:i], s.txns[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) List(_ context.Context, f ledger.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.txns {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date.Time) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) SumExpenses(_ context.Context, month core.Month) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, tx := range s.txns {
		if tx.Type == core.Expense && tx.Category != core.CategoryFixedCost && month.Contains(tx.Date) {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (s *Store) SumExpensesByCategory(_ context.Context, month core.Month) ([]core.CategoryAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := make(map[core.Category]core.Money)
	for _, tx := range s.txns {
		if tx.Type == core.Expense && month.Contains(tx.Date) {
			sums[tx.Category] = sums[tx.Category].Add(tx.Amount)
		}
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for c, m := range sums {
		out = append(out, core.CategoryAmount{Category: c, Amount: m})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents == out[j].Amount.Cents {
			return out[i].Category < out[j].Category
		}
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out, nil
}

func (s *Store) SumBonusIncome(_ context.Context) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, tx := range s.txns {
		if tx.Type == core.Income && tx.Tag == core.TagBonus {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (s *Store) GetAsset(_ context.Context, name string) (core.AssetPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.assets[name]
	if !ok {
		return core.AssetPosition{}, core.ErrNotFound
	}
	return p, nil
}

func (s *Store) SaveAsset(_ context.Context, p core.AssetPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[p.Name] = p
	return nil
}

func (s *Store) Confirm(_ context.Context, allocation string, month core.Month, amount core.Money) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	months, ok := s.confirmed[allocation]
	if !ok {
		months = make(map[string]core.Money)
		s.confirmed[allocation] = months
	}
	if _, done := months[month.String()]; done {
		return false, nil
	}
	months[month.String()] = amount
	return true, nil
}

func (s *Store) IsConfirmed(ctx context.Context, allocation string, month core.Month) (bool, error) {
	s.mu.Lock()
	if months, ok := s.confirmed[allocation]; ok {
		if _, done := months[month.String()]; done {
			s.mu.Unlock()
			return true, nil
		}
	}
	// Legacy sentinel rows: a transaction named like the allocation and
	// dated inside the month still counts as confirmation evidence.
	for _, tx := range s.txns {
		if tx.Description == allocation && month.Contains(tx.Date) {
			s.mu.Unlock()
			return true, nil
		}
	}
	s.mu.Unlock()
	return false, nil
}

func (s *Store) ConfirmedMonths(_ context.Context, allocation string) ([]core.Month, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Month
	for ms := range s.confirmed[allocation] {
		m, err := core.ParseMonth(ms)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year == out[j].Year {
			return out[i].Month < out[j].Month
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

func (s *Store) LastOffset(_ context.Context, source string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsets[source], nil
}

func (s *Store) SetOffset(_ context.Context, source string, offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset > s.offsets[source] {
		s.offsets[source] = offset
	}
	return nil
}

func (s *Store) AppendSnapshot(_ context.Context, snap core.NetWorthSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *Store) ListSnapshots(_ context.Context) ([]core.NetWorthSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.NetWorthSnapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out, nil
}

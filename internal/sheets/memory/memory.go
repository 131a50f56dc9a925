// Package memory is an in-process sheets appender for tests and for
// running without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintower/internal/core"
	ports "fintower/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	rows []core.Transaction

	// FailNext makes the next Append return an error, for retry tests.
	FailNext bool
}

var (
	_ ports.TransactionAppender = (*Appender)(nil)
	_ ports.TransactionRemover  = (*Appender)(nil)
)

func New() *Appender { return &Appender{} }

func (a *Appender) Append(_ context.Context, tx core.Transaction) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.FailNext {
		a.FailNext = false
		return "", fmt.Errorf("append failed")
	}

	a.rows = append(a.rows, tx)
	return fmt.Sprintf("memory!A%d:G%d", len(a.rows), len(a.rows)), nil
}

// Remove drops the first row matching the transaction's date,
// description and amount, mirroring the value-based matching of the
// Google client. No match is not an error.
func (a *Appender) Remove(_ context.Context, tx core.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, row := range a.rows {
		if row.Date.String() == tx.Date.String() &&
			row.Description == tx.Description &&
			row.Amount.Cents == tx.Amount.Cents {
			a.rows = append(a.rows[:i], a.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []core.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]core.Transaction, len(a.rows))
	copy(out, a.rows)
	return out
}

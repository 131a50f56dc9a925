// Package sheets defines the spreadsheet export port. The worker mirrors
// recorded transactions into a Google Sheet through it.
package sheets

import (
	"context"

	"fintower/internal/core"
)

// TransactionAppender appends one transaction row to the export sheet and
// returns a reference to the written range.
type TransactionAppender interface {
	Append(ctx context.Context, tx core.Transaction) (string, error)
}

// TransactionRemover removes the sheet row matching a transaction so
// deletions and edits in the ledger reconcile into the export. Rows have
// no stable id in a sheet, so matching is by (date, description, amount);
// removing a row that is not present is not an error.
type TransactionRemover interface {
	Remove(ctx context.Context, tx core.Transaction) error
}

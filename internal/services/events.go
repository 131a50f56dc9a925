package services

import (
	"context"

	"fintower/internal/core"
)

// EventPublisher notifies downstream consumers about ledger changes.
// Publishing is best effort; the ledger write has already happened.
type EventPublisher interface {
	TransactionRecorded(ctx context.Context, id int64) error
	TransactionDeleted(ctx context.Context, tx core.Transaction) error
}

package amqp

import (
	"encoding/json"
	"time"

	"fintower/internal/core"
)

// TransactionRecordedMessage announces a newly stored transaction. It
// carries only the ID; the worker fetches the full row from the database.
type TransactionRecordedMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(id int64) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransactionDeletedMessage announces a removed transaction. The full row
// is embedded because it no longer exists in the database by the time a
// consumer sees the message.
type TransactionDeletedMessage struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewTransactionDeletedMessage(tx core.Transaction) *TransactionDeletedMessage {
	return &TransactionDeletedMessage{
		ID:          tx.ID,
		Date:        tx.Date.String(),
		AmountCents: tx.Amount.Cents,
		Description: tx.Description,
		Category:    string(tx.Category),
		Timestamp:   time.Now(),
	}
}

func (m *TransactionDeletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionDeletedMessageFromJSON(data []byte) (*TransactionDeletedMessage, error) {
	var msg TransactionDeletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

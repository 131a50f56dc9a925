// Package services orchestrates ledger writes across the classifier,
// persistent store, gold accumulator and event publisher.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintower/internal/classifier"
	"fintower/internal/core"
	"fintower/internal/ledger"
)

// RecorderService turns free-text lines into stored transactions. Gold
// purchases additionally drip into the tracked gold position.
type RecorderService struct {
	classifier classifier.Classifier
	store      ledger.Store
	events     EventPublisher
	params     core.BudgetParams
	goldPrice  core.Money
}

func NewRecorderService(c classifier.Classifier, store ledger.Store, events EventPublisher, params core.BudgetParams, goldPrice core.Money) *RecorderService {
	if goldPrice.IsZero() {
		goldPrice = core.DefaultGoldPricePerGram
	}
	return &RecorderService{
		classifier: c,
		store:      store,
		events:     events,
		params:     params,
		goldPrice:  goldPrice,
	}
}

// RecordResult is the outcome of recording one transaction, including the
// refreshed safe-to-spend position for the transaction's month.
type RecordResult struct {
	Transaction core.Transaction    `json:"transaction"`
	GoldGrams   decimal.Decimal     `json:"gold_grams,omitempty"`
	Budget      core.BudgetOverview `json:"budget"`
	Message     string              `json:"message"`
}

// RecordText classifies a free-text line, stores the resulting expense
// dated today, and applies the gold drip when the purchase is gold.
func (s *RecorderService) RecordText(ctx context.Context, text, source string) (RecordResult, error) {
	guess, err := s.classifier.Categorize(ctx, text)
	if err != nil {
		return RecordResult{}, fmt.Errorf("classify %q: %w", text, err)
	}

	tx := core.Transaction{
		Date:        core.Today(),
		Amount:      guess.Amount,
		Description: guess.Description,
		Category:    guess.Category,
		Type:        core.Expense,
		Source:      source,
		Tag:         guess.Tag,
	}
	return s.Record(ctx, tx)
}

// Record stores an already-structured transaction and runs the same
// post-write steps as RecordText.
func (s *RecorderService) Record(ctx context.Context, tx core.Transaction) (RecordResult, error) {
	id, err := s.store.Add(ctx, tx)
	if err != nil {
		return RecordResult{}, err
	}
	tx.ID = id

	res := RecordResult{Transaction: tx}

	if tx.Tag == core.TagGold || tx.Category == core.CategoryGoldPurchase {
		grams, err := s.dripGold(ctx, tx.Amount)
		if err != nil {
			// The transaction is saved; surface the drip failure without
			// rolling it back.
			slog.ErrorContext(ctx, "Gold drip failed", "id", id, "error", err)
		} else {
			res.GoldGrams = grams
		}
	}

	s.publishRecorded(ctx, id)

	month := tx.Date.MonthOf()
	spent, err := s.store.SumExpenses(ctx, month)
	if err != nil {
		return res, fmt.Errorf("sum expenses for %s: %w", month, err)
	}
	res.Budget = core.EvaluateBudget(s.params, month, spent)
	res.Message = recordMessage(tx, res.GoldGrams, res.Budget)

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"category", tx.Category,
		"source", tx.Source,
		"remaining_cents", res.Budget.Remaining.Cents)

	return res, nil
}

// BonusResult describes a recorded bonus and its split.
type BonusResult struct {
	Transaction core.Transaction `json:"transaction"`
	Retained    core.Money       `json:"retained"`
	Spendable   core.Money       `json:"spendable"`
	Message     string           `json:"message"`
}

// RecordBonus stores a bonus income line and reports the retention split.
// The retained share only moves on paper; the savings fund derives it from
// tagged bonus income at read time.
func (s *RecorderService) RecordBonus(ctx context.Context, amount core.Money, description string) (BonusResult, error) {
	if description == "" {
		description = "Bonus"
	}
	tx := core.Transaction{
		Date:        core.Today(),
		Amount:      amount,
		Description: description,
		Category:    core.CategoryBonus,
		Type:        core.Income,
		Source:      "Manual",
		Tag:         core.TagBonus,
	}

	id, err := s.store.Add(ctx, tx)
	if err != nil {
		return BonusResult{}, err
	}
	tx.ID = id

	s.publishRecorded(ctx, id)

	save, fun := core.SplitBonus(amount)
	slog.InfoContext(ctx, "Bonus recorded",
		"id", id,
		"retained_cents", save.Cents,
		"spendable_cents", fun.Cents)

	return BonusResult{
		Transaction: tx,
		Retained:    save,
		Spendable:   fun,
		Message: fmt.Sprintf("Bonus recorded: %s. Retained %s, spendable %s.",
			core.FormatAED(amount), core.FormatAED(save), core.FormatAED(fun)),
	}, nil
}

// Update replaces a stored transaction and notifies consumers so the
// exported copy is reconciled: the old row's delete event removes the
// stale sheet row, then the recorded event re-exports the new version
// instead of appending a duplicate.
func (s *RecorderService) Update(ctx context.Context, id int64, tx core.Transaction) (core.Transaction, error) {
	old, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.Update(ctx, id, tx); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id

	if s.events != nil {
		if err := s.events.TransactionDeleted(ctx, old); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event for update", "id", id, "error", err)
		}
	}
	s.publishRecorded(ctx, id)

	slog.InfoContext(ctx, "Transaction updated", "id", id, "category", tx.Category)
	return tx, nil
}

// Delete removes a transaction and notifies consumers so external copies
// can be reconciled.
func (s *RecorderService) Delete(ctx context.Context, id int64) error {
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if s.events != nil {
		if err := s.events.TransactionDeleted(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event", "id", id, "error", err)
		}
	}
	return nil
}

func (s *RecorderService) dripGold(ctx context.Context, amount core.Money) (decimal.Decimal, error) {
	grams := core.GramsForAmount(amount, s.goldPrice)

	pos, err := s.store.GetAsset(ctx, core.GoldAssetName)
	if errors.Is(err, core.ErrNotFound) {
		pos = core.NewAssetPosition(core.GoldAssetName)
	} else if err != nil {
		return decimal.Zero, fmt.Errorf("load gold position: %w", err)
	}

	if err := pos.Revalue(grams, s.goldPrice); err != nil {
		return decimal.Zero, err
	}
	if err := s.store.SaveAsset(ctx, pos); err != nil {
		return decimal.Zero, fmt.Errorf("save gold position: %w", err)
	}

	slog.InfoContext(ctx, "Gold position updated",
		"added_grams", grams.String(),
		"total_grams", pos.Grams.String(),
		"value_cents", pos.Value.Cents)

	return grams, nil
}

func (s *RecorderService) publishRecorded(ctx context.Context, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.TransactionRecorded(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recorded event", "id", id, "error", err)
	}
}

func recordMessage(tx core.Transaction, grams decimal.Decimal, b core.BudgetOverview) string {
	if !grams.IsZero() {
		return fmt.Sprintf("Added gold: %s (%s, %s g). Safe to spend left: %s (%s).",
			tx.Description, core.FormatAED(tx.Amount), grams, core.FormatAED(b.Remaining), b.Status)
	}
	return fmt.Sprintf("Recorded: %s (%s, %s). Safe to spend left: %s (%s).",
		tx.Description, core.FormatAED(tx.Amount), tx.Category, core.FormatAED(b.Remaining), b.Status)
}

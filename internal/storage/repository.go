// Package storage is the SQLite ledger backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintower/internal/core"
	"fintower/internal/ledger"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Add(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (date, amount_cents, description, category, type, source, tag)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.Date.String(), tx.Amount.Cents, tx.Description,
		string(tx.Category), string(tx.Type), tx.Source, tx.Tag)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"type", tx.Type)

	return id, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, amount_cents, description, category, type, source, tag
		FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id int64, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount_cents = ?, description = ?, category = ?, type = ?, source = ?, tag = ?, sheet_synced = 0
		WHERE id = ?`,
		tx.Date.String(), tx.Amount.Cents, tx.Description,
		string(tx.Category), string(tx.Type), tx.Source, tx.Tag, id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, f ledger.Filter) ([]core.Transaction, error) {
	query := `
		SELECT id, date, amount_cents, description, category, type, source, tag
		FROM transactions WHERE 1=1`
	var args []any

	if !f.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += ` AND date < ?`
		args = append(args, f.To.String())
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Type))
	}
	if len(f.Categories) > 0 {
		query += ` AND category IN (?` + strings.Repeat(",?", len(f.Categories)-1) + `)`
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, month core.Month) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE type = ? AND category != ? AND date >= ? AND date < ?`,
		string(core.Expense), string(core.CategoryFixedCost),
		month.First().String(), month.Next().First().String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses for %s: %w", month, err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) SumExpensesByCategory(ctx context.Context, month core.Month) ([]core.CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents) FROM transactions
		WHERE type = ? AND date >= ? AND date < ?
		GROUP BY category ORDER BY SUM(amount_cents) DESC, category`,
		string(core.Expense), month.First().String(), month.Next().First().String())
	if err != nil {
		return nil, fmt.Errorf("category sums for %s: %w", month, err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var cat string
		var cents int64
		if err := rows.Scan(&cat, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, core.CategoryAmount{
			Category: core.Category(cat),
			Amount:   core.Money{Cents: cents},
		})
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumBonusIncome(ctx context.Context) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE type = ? AND tag = ?`,
		string(core.Income), core.TagBonus).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum bonus income: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *SQLiteRepository) GetAsset(ctx context.Context, name string) (core.AssetPosition, error) {
	var (
		gramsStr string
		cents    int64
		pricedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT grams, value_cents, priced_at FROM asset_positions WHERE name = ?`,
		name).Scan(&gramsStr, &cents, &pricedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.AssetPosition{}, core.ErrNotFound
		}
		return core.AssetPosition{}, fmt.Errorf("get asset %q: %w", name, err)
	}

	grams, err := decimal.NewFromString(gramsStr)
	if err != nil {
		return core.AssetPosition{}, fmt.Errorf("corrupt grams %q for asset %q: %w", gramsStr, name, err)
	}
	return core.AssetPosition{
		Name:     name,
		Grams:    grams,
		Value:    core.Money{Cents: cents},
		PricedAt: pricedAt,
	}, nil
}

// SaveAsset writes grams and value in one statement; there is no window
// where a reader sees one without the other.
func (r *SQLiteRepository) SaveAsset(ctx context.Context, p core.AssetPosition) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO asset_positions (name, grams, value_cents, priced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			grams = excluded.grams,
			value_cents = excluded.value_cents,
			priced_at = excluded.priced_at`,
		p.Name, p.Grams.String(), p.Value.Cents, p.PricedAt)
	if err != nil {
		return fmt.Errorf("save asset %q: %w", p.Name, err)
	}

	slog.InfoContext(ctx, "Asset position updated",
		"name", p.Name,
		"grams", p.Grams.String(),
		"value_cents", p.Value.Cents)
	return nil
}

func (r *SQLiteRepository) Confirm(ctx context.Context, allocation string, month core.Month, amount core.Money) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO allocation_confirmations (allocation, month, amount_cents)
		VALUES (?, ?, ?)
		ON CONFLICT(allocation, month) DO NOTHING`,
		allocation, month.String(), amount.Cents)
	if err != nil {
		return false, fmt.Errorf("confirm %q for %s: %w", allocation, month, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// IsConfirmed checks the confirmation table and, for histories imported
// from the old schema, falls back to a sentinel transaction named like
// the allocation and dated inside the month.
func (r *SQLiteRepository) IsConfirmed(ctx context.Context, allocation string, month core.Month) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM allocation_confirmations WHERE allocation = ? AND month = ?
			UNION ALL
			SELECT 1 FROM transactions WHERE description = ? AND date >= ? AND date < ?
		)`,
		allocation, month.String(),
		allocation, month.First().String(), month.Next().First().String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check confirmation %q for %s: %w", allocation, month, err)
	}
	return exists, nil
}

func (r *SQLiteRepository) ConfirmedMonths(ctx context.Context, allocation string) ([]core.Month, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT month FROM allocation_confirmations
		WHERE allocation = ? ORDER BY month`, allocation)
	if err != nil {
		return nil, fmt.Errorf("confirmed months for %q: %w", allocation, err)
	}
	defer rows.Close()

	var out []core.Month
	for rows.Next() {
		var ms string
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		m, err := core.ParseMonth(ms)
		if err != nil {
			return nil, fmt.Errorf("corrupt month %q: %w", ms, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) LastOffset(ctx context.Context, source string) (int64, error) {
	var offset int64
	err := r.db.QueryRowContext(ctx, `
		SELECT last_update_id FROM message_offsets WHERE source = ?`, source).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("last offset for %q: %w", source, err)
	}
	return offset, nil
}

// SetOffset never moves the offset backwards.
func (r *SQLiteRepository) SetOffset(ctx context.Context, source string, offset int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_offsets (source, last_update_id)
		VALUES (?, ?)
		ON CONFLICT(source) DO UPDATE SET last_update_id = excluded.last_update_id
		WHERE excluded.last_update_id > message_offsets.last_update_id`,
		source, offset)
	if err != nil {
		return fmt.Errorf("set offset for %q: %w", source, err)
	}
	return nil
}

func (r *SQLiteRepository) AppendSnapshot(ctx context.Context, s core.NetWorthSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO net_worth_history (date, total_assets_cents, total_liabilities_cents, net_worth_cents)
		VALUES (?, ?, ?, ?)`,
		s.Date.String(), s.TotalAssets.Cents, s.TotalLiabilities.Cents, s.NetWorth.Cents)
	if err != nil {
		return fmt.Errorf("append net worth snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context) ([]core.NetWorthSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, total_assets_cents, total_liabilities_cents, net_worth_cents
		FROM net_worth_history ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list net worth history: %w", err)
	}
	defer rows.Close()

	var out []core.NetWorthSnapshot
	for rows.Next() {
		var (
			dateStr                string
			assets, liabs, worth   int64
		)
		if err := rows.Scan(&dateStr, &assets, &liabs, &worth); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		d, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot date %q: %w", dateStr, err)
		}
		out = append(out, core.NetWorthSnapshot{
			Date:             d,
			TotalAssets:      core.Money{Cents: assets},
			TotalLiabilities: core.Money{Cents: liabs},
			NetWorth:         core.Money{Cents: worth},
		})
	}
	return out, rows.Err()
}

// PendingExport lists transactions not yet exported to the backup sheet.
func (r *SQLiteRepository) PendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, amount_cents, description, category, type, source, tag
		FROM transactions WHERE sheet_synced = 0 ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// MarkExported flags a transaction as written to the backup sheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET sheet_synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported %d: %w", id, err)
	}
	return nil
}

// MarkExportError flags a transaction whose export failed so the
// periodic pass can retry it explicitly.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE transactions SET sheet_synced = -1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark export error %d: %w", id, err)
	}
	slog.WarnContext(ctx, "Transaction export failed", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx       core.Transaction
		dateStr  string
		cents    int64
		category string
		txType   string
	)
	if err := row.Scan(&tx.ID, &dateStr, &cents, &tx.Description, &category, &txType, &tx.Source, &tx.Tag); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("corrupt date %q: %w", dateStr, err)
	}
	tx.Date = d
	tx.Amount = core.Money{Cents: cents}
	tx.Category = core.Category(category)
	tx.Type = core.TxType(txType)
	return tx, nil
}

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense TxType = "Expense"
	Income  TxType = "Income"
)

// Transaction categories form a closed set. The classifier prompt and the
// manual-entry API both validate against it.
const (
	CategoryFoodDrinks   Category = "Food & Drinks"
	CategoryTransport    Category = "Transport"
	CategoryEntertain    Category = "Entertainment"
	CategoryItems        Category = "Items"
	CategoryService      Category = "Service"
	CategoryFixedCost    Category = "Fixed Cost"
	CategoryGuiltFree    Category = "Guilt-Free Spending"
	CategoryGoldPurchase Category = "Gold Purchase"
	CategorySavings      Category = "Savings"
	CategoryBonus        Category = "Bonus"
	CategoryHousing      Category = "Housing"
	CategoryMisc         Category = "Misc"
)

const (
	TagGold  = "#gold"
	TagBonus = "#bonus"
)

type (
	TxType   string
	Category string

	Date struct {
		time.Time
	}

	// Month identifies a calendar month ("2026-03").
	Month struct {
		Year  int
		Month int
	}

	Transaction struct {
		ID          int64    `json:"id"`
		Date        Date     `json:"date"`
		Amount      Money    `json:"amount"`
		Description string   `json:"description"`
		Category    Category `json:"category"`
		Type        TxType   `json:"type"`
		Source      string   `json:"source"`
		Tag         string   `json:"tag,omitempty"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownType      = errors.New("unknown transaction type")
	ErrGoldTagRequired  = errors.New("gold purchases must carry the " + TagGold + " tag")
	ErrNotFound         = errors.New("not found")
)

// Categories returns the closed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryFoodDrinks, CategoryTransport, CategoryEntertain,
		CategoryItems, CategoryService, CategoryFixedCost,
		CategoryGuiltFree, CategoryGoldPurchase, CategorySavings,
		CategoryBonus, CategoryHousing, CategoryMisc,
	}
}

// ParseCategory matches s against the closed set, ignoring surrounding
// whitespace. Empty input is not a category.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.TrimSpace(s)) {
	case Expense:
		return Expense, nil
	case Income:
		return Income, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// NewDate creates a calendar-day date (midnight UTC).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses the stored "YYYY-MM-DD" form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders the stored "YYYY-MM-DD" form.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthOf returns the calendar month the date falls in.
func (d Date) MonthOf() Month {
	return Month{Year: d.Time.Year(), Month: int(d.Time.Month())}
}

// ParseMonth parses the "YYYY-MM" form.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q", s)
	}
	return Month{Year: t.Year(), Month: int(t.Month())}, nil
}

// CurrentMonth returns the month containing today.
func CurrentMonth() Month {
	return Today().MonthOf()
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// MarshalJSON renders the "YYYY-MM" form.
func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Month) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// First returns the first calendar day of the month. Confirmations are
// dated to it.
func (m Month) First() Date {
	return NewDate(m.Year, m.Month, 1)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == 12 {
		return Month{Year: m.Year + 1, Month: 1}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Contains reports whether the date falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.MonthOf() == m
}

// Validate checks the transaction against the domain rules, including the
// gold category/tag invariant.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if _, err := ParseCategory(string(t.Category)); err != nil {
		return err
	}
	if _, err := ParseTxType(string(t.Type)); err != nil {
		return err
	}
	if t.Category == CategoryGoldPurchase && t.Tag != TagGold {
		return ErrGoldTagRequired
	}
	return nil
}

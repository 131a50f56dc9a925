package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// GoldAssetName is the single incrementally-purchased asset tracked today.
// The position model is generic; nothing below is gold-specific.
const GoldAssetName = "Gold Holdings"

// DefaultGoldPricePerGram is the manually maintained mark (AED/gram).
// There is no live price feed; config may override it.
var DefaultGoldPricePerGram = Money{Cents: 28550}

// ErrOversell rejects a disposal that would leave a negative quantity.
var ErrOversell = errors.New("disposal exceeds held quantity")

// gramPrecision bounds the stored quantity at a tenth of a milligram.
const gramPrecision = 4

// AssetPosition holds quantity and marked value of one asset as a single
// entity so both fields always move in one write.
//
// Value is latest-mark: fully recomputed from the current quantity and
// the price supplied with the most recent update. No weighted-average
// cost basis is kept; that is a known, accepted limitation.
type AssetPosition struct {
	Name     string          `json:"name"`
	Grams    decimal.Decimal `json:"grams"`
	Value    Money           `json:"value"`
	PricedAt time.Time       `json:"priced_at"`
}

// NewAssetPosition returns an empty position for lazy first-purchase
// initialization.
func NewAssetPosition(name string) AssetPosition {
	return AssetPosition{Name: name, Grams: decimal.Zero}
}

// Revalue applies a quantity delta and re-marks the value at unitPrice.
// A zero delta re-prices without touching the quantity. A negative delta
// that would take the quantity below zero fails with ErrOversell and
// leaves the position untouched.
func (p *AssetPosition) Revalue(deltaGrams decimal.Decimal, unitPrice Money) error {
	newGrams := p.Grams.Add(deltaGrams).Round(gramPrecision)
	if newGrams.IsNegative() {
		return ErrOversell
	}
	p.Grams = newGrams
	p.Value = Money{
		Cents: newGrams.Mul(decimal.NewFromInt(unitPrice.Cents)).Round(0).IntPart(),
	}
	p.PricedAt = time.Now().UTC()
	return nil
}

// GramsForAmount converts a purchase amount into grams at unitPrice.
func GramsForAmount(amount, unitPrice Money) decimal.Decimal {
	if unitPrice.Cents <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(amount.Cents).
		Div(decimal.NewFromInt(unitPrice.Cents)).
		Round(gramPrecision)
}

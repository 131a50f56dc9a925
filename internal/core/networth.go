package core

// BonusRetentionPct is the share of every bonus swept into the savings
// fund; the remainder stays discretionary.
const BonusRetentionPct = 90

type (
	// Balances are the manually maintained account figures that the
	// ledger cannot derive.
	Balances struct {
		OpeningSavings   Money // cash already set aside before tracking started
		ManualAssets     Money // stocks, crypto, other liquid holdings
		RealEstateValue  Money
		OtherLiabilities Money
		MortgageBalance  Money
	}

	NetWorth struct {
		SavingsFund      Money `json:"savings_fund"`
		TotalAssets      Money `json:"total_assets"`
		TotalLiabilities Money `json:"total_liabilities"`
		Worth            Money `json:"net_worth"`
	}

	// NetWorthSnapshot is a persisted point-in-time record.
	NetWorthSnapshot struct {
		Date             Date  `json:"date"`
		TotalAssets      Money `json:"total_assets"`
		TotalLiabilities Money `json:"total_liabilities"`
		NetWorth         Money `json:"net_worth"`
	}
)

// SavingsFund rolls up the savings position: retained share of all bonus
// income, plus this month's savings contribution, plus the opening
// balance.
func SavingsFund(bonusIncome, savingsContribution, opening Money) Money {
	retained := bonusIncome.Percent(BonusRetentionPct)
	return retained.Add(savingsContribution).Add(opening)
}

// AggregateNetWorth combines the ledger-derived liquid figure and savings
// fund with the manual balances. Pure arithmetic; persisting the result
// is the caller's call.
func AggregateNetWorth(liquidRemaining, savingsFund Money, b Balances) NetWorth {
	assets := liquidRemaining.Add(savingsFund).Add(b.ManualAssets).Add(b.RealEstateValue)
	liabilities := b.OtherLiabilities.Add(b.MortgageBalance)
	return NetWorth{
		SavingsFund:      savingsFund,
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		Worth:            assets.Sub(liabilities),
	}
}

// SplitBonus divides a bonus into the retained savings share and the
// guilt-free remainder. The shares always sum to the input.
func SplitBonus(amount Money) (save, fun Money) {
	save = amount.Percent(BonusRetentionPct)
	fun = amount.Sub(save)
	return save, fun
}

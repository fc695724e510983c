package account

// RateProvider converts an amount between currencies. The ledger applies it
// whenever a credit or debit arrives in a currency other than the account's.
type RateProvider interface {
	Convert(amount int64, from, to Currency) int64
}

// FlatMarkup is the default provider: a fixed 1.5x multiplier on any
// cross-currency amount. It is not an exchange rate; callers that need FX
// accuracy must plug in a real feed.
type FlatMarkup struct{}

func (FlatMarkup) Convert(amount int64, from, to Currency) int64 {
	if from == to {
		return amount
	}
	return amount * 3 / 2
}

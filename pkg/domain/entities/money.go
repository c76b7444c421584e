package entities

import "github.com/shopspring/decimal"

// Money is a currency amount. Float resource requests are converted at the
// ledger boundary so balances never accumulate rounding error.
type Money = decimal.Decimal

// MoneyFromFloat converts a requested amount, rounded to cents
func MoneyFromFloat(amount float64) Money {
	return decimal.NewFromFloat(amount).Round(2)
}

// MoneyToFloat converts a balance for use in a ResourceRequest
func MoneyToFloat(m Money) float64 {
	f, _ := m.Float64()
	return f
}

// MonthlyInterest returns balance × annualRate% / 12, rounded to cents
func MonthlyInterest(balance Money, annualRatePercent decimal.Decimal) Money {
	return balance.Mul(annualRatePercent).Div(decimal.NewFromInt(1200)).Round(2)
}

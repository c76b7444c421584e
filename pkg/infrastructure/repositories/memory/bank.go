package memory

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

// BankAccount holds money with decimal precision and an annual interest
// rate. Requests are in currency units as float64 and are rounded to cents.
type BankAccount struct {
	name               string
	balance            entities.Money
	overdraft          entities.Money
	InterestRateEarned decimal.Decimal // annual %, applied to positive balances
	InterestRatePaid   decimal.Decimal // annual %, applied to overdrawn balances
	ledger             *Ledger
}

// Verify interface compliance
var _ repositories.ResourceType = (*BankAccount)(nil)

// NewBankAccount creates an account with an opening balance and the amount
// it may be overdrawn by
func NewBankAccount(name string, opening, overdraft entities.Money, ledger *Ledger) *BankAccount {
	if overdraft.IsNegative() {
		overdraft = decimal.Zero
	}
	return &BankAccount{name: name, balance: opening, overdraft: overdraft, ledger: ledger}
}

func (b *BankAccount) Name() string { return b.name }

// Amount returns the balance as a float
func (b *BankAccount) Amount() float64 {
	return entities.MoneyToFloat(b.balance)
}

// InterestRates returns the annual earned and paid rates in percent
func (b *BankAccount) InterestRates() (earned, paid decimal.Decimal) {
	return b.InterestRateEarned, b.InterestRatePaid
}

// Balance returns the exact balance
func (b *BankAccount) Balance() entities.Money {
	return b.balance
}

// Funds returns balance plus overdraft, the most that can be spent
func (b *BankAccount) Funds() entities.Money {
	funds := b.balance.Add(b.overdraft)
	if funds.IsNegative() {
		return decimal.Zero
	}
	return funds
}

func (b *BankAccount) Add(amount float64, source, tag, category string) {
	b.Deposit(entities.MoneyFromFloat(amount), source, tag, category)
}

// Deposit credits an exact amount
func (b *BankAccount) Deposit(amount entities.Money, source, tag, category string) {
	if !amount.IsPositive() {
		return
	}
	b.balance = b.balance.Add(amount)
	if b.ledger != nil {
		b.ledger.record(repositories.Transaction{
			Resource: b.name, Activity: source, Category: category, Tag: tag, Gain: entities.MoneyToFloat(amount),
		})
	}
}

// Withdraw debits an exact amount regardless of funds, used for charges
// the farm cannot refuse such as interest
func (b *BankAccount) Withdraw(amount entities.Money, source, category string) {
	if !amount.IsPositive() {
		return
	}
	b.balance = b.balance.Sub(amount)
	if b.ledger != nil {
		b.ledger.record(repositories.Transaction{
			Resource: b.name, Activity: source, Category: category, Loss: entities.MoneyToFloat(amount),
		})
	}
}

func (b *BankAccount) Remove(req *entities.ResourceRequest, amount float64) float64 {
	funds := entities.MoneyToFloat(b.Funds())
	take := math.Max(math.Min(math.Min(amount, req.Required), funds), 0)
	req.Provide(funds, take)
	provided := entities.MoneyFromFloat(req.Provided)
	if provided.IsPositive() {
		b.balance = b.balance.Sub(provided)
		if b.ledger != nil {
			b.ledger.record(repositories.Transaction{
				Resource: b.name, Activity: req.ActivityName, Category: req.Category, Tag: req.RelatesTo, Loss: req.Provided,
			})
		}
	}
	return req.Provided
}

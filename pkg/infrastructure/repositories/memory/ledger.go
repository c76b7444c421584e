package memory

import (
	"time"

	"github.com/vsinha/clem/pkg/domain/repositories"
)

// Ledger collects transactions from every pool in a registry
type Ledger struct {
	transactions []repositories.Transaction
	now          func() time.Time
}

// NewLedger creates a ledger stamping transactions with now
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = func() time.Time { return time.Time{} }
	}
	return &Ledger{now: now}
}

func (l *Ledger) record(tx repositories.Transaction) {
	tx.Date = l.now()
	l.transactions = append(l.transactions, tx)
}

// Transactions returns all recorded transactions
func (l *Ledger) Transactions() []repositories.Transaction {
	return append([]repositories.Transaction(nil), l.transactions...)
}

// Drain returns recorded transactions and clears the ledger
func (l *Ledger) Drain() []repositories.Transaction {
	out := l.transactions
	l.transactions = nil
	return out
}

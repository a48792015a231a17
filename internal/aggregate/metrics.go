package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/period"
)

// LatestBalance returns the running balance of the most recent transaction.
// txns must be sorted most recent first.
func LatestBalance(txns []model.Transaction) decimal.Decimal {
	if len(txns) == 0 {
		return decimal.Zero
	}
	return txns[0].Balance
}

// CashFlow returns credits minus debits over the trailing calendar month ending today.
func CashFlow(txns []model.Transaction, now time.Time) decimal.Decimal {
	w := period.TrailingMonth(now)
	flow := decimal.Zero
	for _, t := range txns {
		if !w.Contains(t.Date) {
			continue
		}
		switch t.Type {
		case model.TxnCredit:
			flow = flow.Add(t.Amount)
		case model.TxnDebit:
			flow = flow.Sub(t.Amount)
		}
	}
	return flow
}

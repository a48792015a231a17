package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnType is the bank transaction direction code carried in position 3 of a raw record.
type TxnType int

const (
	TxnOther  TxnType = 0
	TxnCredit TxnType = 1
	TxnDebit  TxnType = 2
)

// String returns CREDIT, DEBIT, or OTHER.
func (t TxnType) String() string {
	switch t {
	case TxnCredit:
		return "CREDIT"
	case TxnDebit:
		return "DEBIT"
	default:
		return "OTHER"
	}
}

// UnknownBank is used when a transaction group carries no bank name.
const UnknownBank = "Unknown"

// Transaction is one normalized bank transaction.
type Transaction struct {
	Bank      string          `json:"bank"`
	Amount    decimal.Decimal `json:"amount"` // never negative; direction is in Type
	Narration string          `json:"narration"`
	Date      time.Time       `json:"date"`
	Type      TxnType         `json:"type"`
	Mode      string          `json:"mode"`
	Balance   decimal.Decimal `json:"balance"` // running account balance after this transaction
}

// IsCredit reports whether the transaction adds money to the account.
func (t Transaction) IsCredit() bool { return t.Type == TxnCredit }

// IsDebit reports whether the transaction takes money out of the account.
func (t Transaction) IsDebit() bool { return t.Type == TxnDebit }

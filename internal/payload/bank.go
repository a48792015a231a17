package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fidash/internal/model"
)

// BankTransactions is the fetch_bank_transactions payload.
type BankTransactions struct {
	BankTransactions []BankGroup `json:"bankTransactions"`
}

// BankGroup is one bank's transaction list. Each record is a positional array:
// [amount, narration, date, type, mode, balance].
type BankGroup struct {
	Bank string  `json:"bank"`
	Txns [][]any `json:"txns"`
}

const (
	bankNumFields = 6
	colAmount     = 0
	colNarration  = 1
	colDate       = 2
	colType       = 3
	colMode       = 4
	colBalance    = 5
)

var txnDateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// DecodeBankTransactions decodes the payload with json.Number preserved so amounts
// never pass through float64.
func DecodeBankTransactions(raw []byte) (*BankTransactions, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var p BankTransactions
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding bank transactions: %w", err)
	}
	return &p, nil
}

// NormalizeBankTransactions flattens every group into typed transactions sorted by date,
// most recent first. Records with fewer than six fields or unparsable amount, date or
// balance are left out and reported.
func NormalizeBankTransactions(p *BankTransactions) ([]model.Transaction, []ValidationError) {
	if p == nil {
		return nil, nil
	}

	var txns []model.Transaction
	var verrs []ValidationError
	for gi, group := range p.BankTransactions {
		bank := group.Bank
		if bank == "" {
			bank = model.UnknownBank
		}
		for ri, rec := range group.Txns {
			txn, err := parseBankRecord(bank, rec)
			if err != nil {
				verrs = append(verrs, ValidationError{
					Tool:   model.ToolBankTransactions,
					Path:   fmt.Sprintf("bankTransactions[%d].txns[%d]", gi, ri),
					Reason: err.Error(),
				})
				continue
			}
			txns = append(txns, txn)
		}
	}

	// Stable so same-instant transactions keep their input order.
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})
	return txns, verrs
}

func parseBankRecord(bank string, rec []any) (model.Transaction, error) {
	if len(rec) < bankNumFields {
		return model.Transaction{}, fmt.Errorf("expected at least %d fields, got %d", bankNumFields, len(rec))
	}

	amount, err := parseDecimal(rec[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount: %w", err)
	}

	date, err := parseDate(rec[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date: %w", err)
	}

	balance, err := parseDecimal(rec[colBalance])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing balance: %w", err)
	}

	return model.Transaction{
		Bank:      bank,
		Amount:    amount.Abs(),
		Narration: asString(rec[colNarration]),
		Date:      date,
		Type:      parseTxnType(rec[colType]),
		Mode:      asString(rec[colMode]),
		Balance:   balance,
	}, nil
}

func parseDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(x), ",", ""))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%q is not a number", x)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected %T", v)
	}
}

func parseDate(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected %T", v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range txnDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseTxnType maps 1 and 2 (number or string) to credit and debit. Anything else,
// including unparsable values, is TxnOther.
func parseTxnType(v any) model.TxnType {
	var code int64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return model.TxnOther
		}
		code = n
	case float64:
		code = int64(x)
	case string:
		switch strings.ToUpper(strings.TrimSpace(x)) {
		case "CREDIT":
			return model.TxnCredit
		case "DEBIT":
			return model.TxnDebit
		}
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return model.TxnOther
		}
		code = n
	default:
		return model.TxnOther
	}

	switch model.TxnType(code) {
	case model.TxnCredit, model.TxnDebit:
		return model.TxnType(code)
	default:
		return model.TxnOther
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

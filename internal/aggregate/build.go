package aggregate

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/payload"
)

// Result is everything derived from one set of raw tool payloads.
type Result struct {
	View   model.DashboardView
	Charts model.Charts
	// Issues lists the payload parts left out of the view, in fetch order.
	Issues []payload.ValidationError
}

// Build derives the dashboard view and chart series from raw payloads. It performs no
// I/O and returns identical results for identical input. Tools that failed to fetch or
// do not match their schema are treated as absent.
func Build(raw model.RawToolResult, now time.Time) Result {
	res := Result{
		View: model.DashboardView{
			NetWorth:     decimal.Zero,
			BankBalance:  decimal.Zero,
			CashFlow:     decimal.Zero,
			Transactions: []model.Transaction{},
			Assets:       map[string]decimal.Decimal{},
		},
	}

	if p, ok := raw.Usable(model.ToolNetWorth); ok {
		res.applyNetWorth(p)
	}
	if p, ok := raw.Usable(model.ToolBankTransactions); ok {
		res.applyBankTransactions(p, now)
	}
	res.applyStats(raw)

	res.Charts = model.Charts{
		Monthly:    Monthly(res.View.Transactions),
		Categories: SpendByCategory(res.View.Transactions),
		Assets:     AssetAllocation(res.View.Assets),
	}
	return res
}

func (r *Result) applyNetWorth(p []byte) {
	nw, err := payload.DecodeNetWorth(p)
	if err != nil {
		r.toolIssue(model.ToolNetWorth, err)
		return
	}

	total, err := nw.Total()
	if err != nil {
		r.Issues = append(r.Issues, payload.ValidationError{
			Tool:   model.ToolNetWorth,
			Path:   "netWorthResponse.totalNetWorthValue",
			Reason: err.Error(),
		})
	} else {
		r.View.NetWorth = total
	}

	assets, verrs := nw.Assets()
	r.View.Assets = assets
	r.Issues = append(r.Issues, verrs...)
}

func (r *Result) applyBankTransactions(p []byte, now time.Time) {
	bt, err := payload.DecodeBankTransactions(p)
	if err != nil {
		r.toolIssue(model.ToolBankTransactions, err)
		return
	}

	txns, verrs := payload.NormalizeBankTransactions(bt)
	r.Issues = append(r.Issues, verrs...)
	if txns == nil {
		txns = []model.Transaction{}
	}
	r.View.Transactions = txns
	r.View.BankBalance = LatestBalance(txns)
	r.View.CashFlow = CashFlow(txns, now)
}

func (r *Result) applyStats(raw model.RawToolResult) {
	stats := &r.View.FinancialStats

	if p, ok := raw.Usable(model.ToolNetWorth); ok {
		stats.NetWorth = passThrough(p)
	}
	if p, ok := raw.Usable(model.ToolCreditReport); ok {
		if c, err := payload.DecodeCreditReport(p); err != nil {
			r.toolIssue(model.ToolCreditReport, err)
		} else {
			stats.Credit = passThrough(p)
			stats.CreditAccountsActive = c.ActiveAccounts()
		}
	}
	if p, ok := raw.Usable(model.ToolMFTransactions); ok {
		if m, err := payload.DecodeMutualFunds(p); err != nil {
			r.toolIssue(model.ToolMFTransactions, err)
		} else {
			stats.MutualFunds = passThrough(p)
			stats.MutualFundHoldings = m.Holdings()
		}
	}
	if p, ok := raw.Usable(model.ToolStockTransactions); ok {
		if s, err := payload.DecodeStocks(p); err != nil {
			r.toolIssue(model.ToolStockTransactions, err)
		} else {
			stats.Stocks = passThrough(p)
			stats.StockHoldings = s.Holdings()
		}
	}
}

func (r *Result) toolIssue(tool model.Tool, err error) {
	r.Issues = append(r.Issues, payload.ValidationError{Tool: tool, Reason: err.Error()})
}

// passThrough copies p so the view never aliases the fetched buffer.
func passThrough(p []byte) json.RawMessage {
	return json.RawMessage(bytes.Clone(p))
}

package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DashboardView is the read-only aggregate consumed by summary cards and charts.
// It is rebuilt from scratch on every load.
type DashboardView struct {
	NetWorth       decimal.Decimal            `json:"netWorth"`
	BankBalance    decimal.Decimal            `json:"bankBalance"`
	CashFlow       decimal.Decimal            `json:"cashFlow"`
	Transactions   []Transaction              `json:"transactions"`
	Assets         map[string]decimal.Decimal `json:"assets"`
	FinancialStats FinancialStats             `json:"financialStats"`
}

// FinancialStats passes selected raw payloads through and carries the summary counts
// shown next to the charts.
type FinancialStats struct {
	NetWorth    json.RawMessage `json:"netWorth,omitempty"`
	Credit      json.RawMessage `json:"credit,omitempty"`
	MutualFunds json.RawMessage `json:"mutualFunds,omitempty"`
	Stocks      json.RawMessage `json:"stocks,omitempty"`

	CreditAccountsActive int `json:"creditAccountsActive"`
	MutualFundHoldings   int `json:"mutualFundHoldings"`
	StockHoldings        int `json:"stockHoldings"`
}

// MonthlySeries is credits and debits per YYYY-MM bucket, aligned to Labels.
type MonthlySeries struct {
	Labels  []string          `json:"labels"`
	Credits []decimal.Decimal `json:"credits"`
	Debits  []decimal.Decimal `json:"debits"`
}

// CategorySeries is total debit spend per category label, aligned to Labels.
type CategorySeries struct {
	Labels []string          `json:"labels"`
	Totals []decimal.Decimal `json:"totals"`
}

// Map returns the series as label -> total.
func (s CategorySeries) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s.Labels))
	for i, l := range s.Labels {
		m[l] = s.Totals[i]
	}
	return m
}

// AssetSeries is the asset allocation, aligned to Labels.
type AssetSeries struct {
	Labels []string          `json:"labels"`
	Values []decimal.Decimal `json:"values"`
}

// Charts groups every chart-ready series derived from a DashboardView.
type Charts struct {
	Monthly    MonthlySeries  `json:"monthly"`
	Categories CategorySeries `json:"categories"`
	Assets     AssetSeries    `json:"assets"`
}

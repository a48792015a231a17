package payload

import (
	"encoding/json"
	"fmt"
)

// CreditReport is the part of fetch_credit_report the dashboard counts.
type CreditReport struct {
	CreditReports []struct {
		CreditReportData struct {
			CreditAccount struct {
				CreditAccountSummary struct {
					Account struct {
						CreditAccountActive json.Number `json:"creditAccountActive"`
					} `json:"account"`
				} `json:"creditAccountSummary"`
			} `json:"creditAccount"`
		} `json:"creditReportData"`
	} `json:"creditReports"`
}

// ActiveAccounts returns the active credit account count of the first report.
func (c *CreditReport) ActiveAccounts() int {
	if c == nil || len(c.CreditReports) == 0 {
		return 0
	}
	n, err := c.CreditReports[0].CreditReportData.CreditAccount.CreditAccountSummary.Account.CreditAccountActive.Int64()
	if err != nil {
		return 0
	}
	return int(n)
}

// MutualFunds is the part of fetch_mf_transactions the dashboard counts.
type MutualFunds struct {
	MFSchemeAnalytics struct {
		SchemeAnalytics []json.RawMessage `json:"schemeAnalytics"`
	} `json:"mfSchemeAnalytics"`
}

// Holdings returns the number of schemes held.
func (m *MutualFunds) Holdings() int {
	if m == nil {
		return 0
	}
	return len(m.MFSchemeAnalytics.SchemeAnalytics)
}

// Stocks is the part of fetch_stock_transactions the dashboard counts.
type Stocks struct {
	AccountDetailsBulkResponse struct {
		AccountDetailsMap map[string]struct {
			EquitySummary json.RawMessage `json:"equitySummary"`
		} `json:"accountDetailsMap"`
	} `json:"accountDetailsBulkResponse"`
}

// Holdings returns the number of accounts carrying an equity summary.
func (s *Stocks) Holdings() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, acc := range s.AccountDetailsBulkResponse.AccountDetailsMap {
		if len(acc.EquitySummary) > 0 && string(acc.EquitySummary) != "null" {
			n++
		}
	}
	return n
}

func decodeInto[T any](raw []byte, what string) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", what, err)
	}
	return &v, nil
}

// DecodeCreditReport decodes the credit report payload.
func DecodeCreditReport(raw []byte) (*CreditReport, error) {
	return decodeInto[CreditReport](raw, "credit report")
}

// DecodeMutualFunds decodes the mutual fund payload.
func DecodeMutualFunds(raw []byte) (*MutualFunds, error) {
	return decodeInto[MutualFunds](raw, "mutual funds")
}

// DecodeStocks decodes the stock payload.
func DecodeStocks(raw []byte) (*Stocks, error) {
	return decodeInto[Stocks](raw, "stocks")
}

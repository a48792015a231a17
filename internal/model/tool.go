package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tool names a remote data-fetch endpoint on the financial data backend.
type Tool string

const (
	ToolNetWorth          Tool = "fetch_net_worth"
	ToolBankTransactions  Tool = "fetch_bank_transactions"
	ToolCreditReport      Tool = "fetch_credit_report"
	ToolEPFDetails        Tool = "fetch_epf_details"
	ToolMFTransactions    Tool = "fetch_mf_transactions"
	ToolStockTransactions Tool = "fetch_stock_transactions"
)

// AllTools returns every tool in the order the dashboard fetches them.
func AllTools() []Tool {
	return []Tool{
		ToolNetWorth,
		ToolBankTransactions,
		ToolCreditReport,
		ToolEPFDetails,
		ToolMFTransactions,
		ToolStockTransactions,
	}
}

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, error) {
	for _, t := range AllTools() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// FetchFailedMessage is the error marker text stored for a tool that could not be fetched.
const FetchFailedMessage = "Failed to fetch"

var failedMarker = []byte(`{"error":"` + FetchFailedMessage + `"}`)

// ToolPayload is the raw JSON body returned for one tool, or the fetch error marker.
type ToolPayload json.RawMessage

// FailedPayload returns the {"error":"Failed to fetch"} marker.
func FailedPayload() ToolPayload {
	return ToolPayload(bytes.Clone(failedMarker))
}

// Failed reports whether the payload is the fetch error marker.
func (p ToolPayload) Failed() bool {
	var marker struct {
		Error *string `json:"error"`
	}
	if len(p) == 0 || p[0] != '{' {
		return false
	}
	if err := json.Unmarshal(p, &marker); err != nil {
		return false
	}
	return marker.Error != nil && *marker.Error == FetchFailedMessage
}

// MarshalJSON emits the payload verbatim.
func (p ToolPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// RawToolResult holds one payload per tool for a single dashboard load.
type RawToolResult map[Tool]ToolPayload

// Usable returns the payload for tool when it was fetched successfully.
func (r RawToolResult) Usable(tool Tool) (ToolPayload, bool) {
	p, ok := r[tool]
	if !ok || len(p) == 0 || p.Failed() {
		return nil, false
	}
	return p, true
}

// FailedTools lists tools whose slot holds the error marker, in fetch order.
func (r RawToolResult) FailedTools() []Tool {
	var failed []Tool
	for _, t := range AllTools() {
		if p, ok := r[t]; ok && p.Failed() {
			failed = append(failed, t)
		}
	}
	return failed
}

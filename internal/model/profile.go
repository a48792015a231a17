package model

import "time"

// FinancialGoal is one entry of the onboarding goal list.
type FinancialGoal struct {
	Type    string `json:"type"`
	Other   string `json:"other,omitempty"`
	Details string `json:"details,omitempty"`
}

// Profile holds the onboarding answers for a user.
type Profile struct {
	FullName           string          `json:"fullName"`
	Age                string          `json:"age,omitempty"`
	MonthlyIncome      string          `json:"monthlyIncome,omitempty"`
	MonthlyBudget      string          `json:"monthlyBudget,omitempty"`
	RiskTolerance      string          `json:"riskTolerance,omitempty"`
	RiskToleranceOther string          `json:"riskToleranceOther,omitempty"`
	MonthlyGoal        string          `json:"monthlyGoal,omitempty"`
	FinancialGoals     []FinancialGoal `json:"financialGoals,omitempty"`
	UsageReason        string          `json:"usageReason,omitempty"`
	UsageReasonOther   string          `json:"usageReasonOther,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          *time.Time      `json:"updatedAt,omitempty"`
}

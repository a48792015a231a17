package aggregate

import "strings"

// Category labels, in rule priority order.
const (
	CategorySalary      = "Salary"
	CategoryRent        = "Rent"
	CategoryGroceries   = "Groceries"
	CategoryFuel        = "Fuel"
	CategoryCreditCard  = "Credit Card"
	CategoryInvestments = "Investments"
	CategoryUPI         = "UPI Payments"
	CategoryOthers      = "Others"
)

// Rule assigns Label when the upper-cased narration contains any keyword.
type Rule struct {
	Label    string
	Keywords []string
}

var defaultRules = []Rule{
	{Label: CategorySalary, Keywords: []string{"SALARY"}},
	{Label: CategoryRent, Keywords: []string{"RENT"}},
	{Label: CategoryGroceries, Keywords: []string{"GROCERY", "GROCER"}},
	{Label: CategoryFuel, Keywords: []string{"FUEL", "PETROL"}},
	{Label: CategoryCreditCard, Keywords: []string{"CREDIT CARD"}},
	{Label: CategoryInvestments, Keywords: []string{"SIP", "MUTUAL"}},
	{Label: CategoryUPI, Keywords: []string{"UPI"}},
}

// Categories returns every label in priority order, Others last.
func Categories() []string {
	labels := make([]string, 0, len(defaultRules)+1)
	for _, r := range defaultRules {
		labels = append(labels, r.Label)
	}
	return append(labels, CategoryOthers)
}

// Categorize returns the label of the first rule matching narration.
// "SALARY UPI CREDIT" is Salary, not UPI Payments.
func Categorize(narration string) string {
	n := strings.ToUpper(narration)
	for _, r := range defaultRules {
		for _, kw := range r.Keywords {
			if strings.Contains(n, kw) {
				return r.Label
			}
		}
	}
	return CategoryOthers
}

package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fidash/internal/model"
	"github.com/cleared-dev/fidash/internal/period"
)

// Monthly sums credits and debits per YYYY-MM bucket. Labels are in chronological order.
func Monthly(txns []model.Transaction) model.MonthlySeries {
	type bucket struct{ credits, debits decimal.Decimal }
	buckets := make(map[string]*bucket)
	for _, t := range txns {
		key := period.MonthKey(t.Date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{credits: decimal.Zero, debits: decimal.Zero}
			buckets[key] = b
		}
		switch t.Type {
		case model.TxnCredit:
			b.credits = b.credits.Add(t.Amount)
		case model.TxnDebit:
			b.debits = b.debits.Add(t.Amount)
		}
	}

	series := model.MonthlySeries{
		Labels:  make([]string, 0, len(buckets)),
		Credits: make([]decimal.Decimal, 0, len(buckets)),
		Debits:  make([]decimal.Decimal, 0, len(buckets)),
	}
	for key := range buckets {
		series.Labels = append(series.Labels, key)
	}
	sort.Strings(series.Labels)
	for _, key := range series.Labels {
		series.Credits = append(series.Credits, buckets[key].credits)
		series.Debits = append(series.Debits, buckets[key].debits)
	}
	return series
}

// SpendByCategory sums debit amounts per category. Labels follow rule priority order
// and only categories with at least one debit appear.
func SpendByCategory(txns []model.Transaction) model.CategorySeries {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if !t.IsDebit() {
			continue
		}
		label := Categorize(t.Narration)
		if cur, ok := totals[label]; ok {
			totals[label] = cur.Add(t.Amount)
		} else {
			totals[label] = t.Amount
		}
	}

	series := model.CategorySeries{
		Labels: make([]string, 0, len(totals)),
		Totals: make([]decimal.Decimal, 0, len(totals)),
	}
	for _, label := range Categories() {
		if total, ok := totals[label]; ok {
			series.Labels = append(series.Labels, label)
			series.Totals = append(series.Totals, total)
		}
	}
	return series
}

// AssetAllocation lays the asset map out as a series with labels sorted.
func AssetAllocation(assets map[string]decimal.Decimal) model.AssetSeries {
	series := model.AssetSeries{
		Labels: make([]string, 0, len(assets)),
		Values: make([]decimal.Decimal, 0, len(assets)),
	}
	for label := range assets {
		series.Labels = append(series.Labels, label)
	}
	sort.Strings(series.Labels)
	for _, label := range series.Labels {
		series.Values = append(series.Values, assets[label])
	}
	return series
}

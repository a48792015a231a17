package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fidash/internal/model"
)

// NetWorth is the fetch_net_worth payload.
type NetWorth struct {
	NetWorthResponse *NetWorthResponse `json:"netWorthResponse"`
}

// NetWorthResponse holds the total and the per-asset breakdown.
type NetWorthResponse struct {
	TotalNetWorthValue *Money       `json:"totalNetWorthValue"`
	AssetValues        []AssetValue `json:"assetValues"`
}

// AssetValue is one asset classification and its value.
type AssetValue struct {
	NetWorthAttribute string `json:"netWorthAttribute"`
	Value             *Money `json:"value"`
}

// Money is the backend's money shape. Only units are read; units may be a
// JSON string or number and are parsed on demand, so one bad value does not
// reject the rest of the payload.
type Money struct {
	CurrencyCode string          `json:"currencyCode,omitempty"`
	Units        json.RawMessage `json:"units,omitempty"`
	Nanos        int64           `json:"nanos,omitempty"`
}

// Decimal returns the units as a decimal. Absent, null and empty-string units
// are zero.
func (m *Money) Decimal() (decimal.Decimal, error) {
	if m == nil || len(m.Units) == 0 {
		return decimal.Zero, nil
	}
	dec := json.NewDecoder(bytes.NewReader(m.Units))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return decimal.Zero, fmt.Errorf("parsing units: %w", err)
	}
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return decimal.Zero, nil
		}
	}
	d, err := parseDecimal(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing units: %w", err)
	}
	return d, nil
}

// assetTypePrefix is stripped from netWorthAttribute to build asset labels.
const assetTypePrefix = "ASSET_TYPE_"

// AssetLabel turns "ASSET_TYPE_MUTUAL_FUND" into "MUTUAL FUND".
func AssetLabel(attribute string) string {
	return strings.ReplaceAll(strings.TrimPrefix(attribute, assetTypePrefix), "_", " ")
}

// DecodeNetWorth decodes the net worth payload. Money units are left raw; see
// Money.Decimal.
func DecodeNetWorth(raw []byte) (*NetWorth, error) {
	var p NetWorth
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding net worth: %w", err)
	}
	return &p, nil
}

// Total returns the total net worth, zero if absent.
func (p *NetWorth) Total() (decimal.Decimal, error) {
	if p == nil || p.NetWorthResponse == nil {
		return decimal.Zero, nil
	}
	return p.NetWorthResponse.TotalNetWorthValue.Decimal()
}

// Assets maps asset labels to values. When two attributes normalize to the same
// label the later one wins, and the collision is reported.
func (p *NetWorth) Assets() (map[string]decimal.Decimal, []ValidationError) {
	assets := make(map[string]decimal.Decimal)
	if p == nil || p.NetWorthResponse == nil {
		return assets, nil
	}

	var verrs []ValidationError
	source := make(map[string]string)
	for i, av := range p.NetWorthResponse.AssetValues {
		path := fmt.Sprintf("netWorthResponse.assetValues[%d]", i)
		if av.NetWorthAttribute == "" {
			verrs = append(verrs, ValidationError{Tool: model.ToolNetWorth, Path: path, Reason: "missing netWorthAttribute"})
			continue
		}
		value, err := av.Value.Decimal()
		if err != nil {
			verrs = append(verrs, ValidationError{Tool: model.ToolNetWorth, Path: path, Reason: err.Error()})
			continue
		}

		label := AssetLabel(av.NetWorthAttribute)
		if prev, ok := source[label]; ok && prev != av.NetWorthAttribute {
			verrs = append(verrs, ValidationError{
				Tool:   model.ToolNetWorth,
				Path:   path,
				Reason: fmt.Sprintf("%s overwrites %s under label %q", av.NetWorthAttribute, prev, label),
			})
		}
		source[label] = av.NetWorthAttribute
		assets[label] = value
	}
	return assets, verrs
}
